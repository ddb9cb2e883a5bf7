package service

import (
	"context"
	"sync"

	"github.com/adi-0903/FacePass/internal/domain"
)

// SessionStore keeps one liveness analyzer per enrollment session so
// blink state accumulates across the frames a kiosk streams before
// submitting the registration.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]LivenessAnalyzer
	newAnalyzer func() LivenessAnalyzer
}

func NewSessionStore(newAnalyzer func() LivenessAnalyzer) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]LivenessAnalyzer),
		newAnalyzer: newAnalyzer,
	}
}

// Get returns the session's analyzer, creating it on first use.
func (s *SessionStore) Get(id string) LivenessAnalyzer {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyzer, ok := s.sessions[id]
	if !ok {
		analyzer = s.newAnalyzer()
		s.sessions[id] = analyzer
	}
	return analyzer
}

// BlinkCount reports the blinks seen so far; zero for unknown sessions.
func (s *SessionStore) BlinkCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyzer, ok := s.sessions[id]
	if !ok {
		return 0
	}
	return analyzer.BlinkCount()
}

// Reset clears a session's blink state without discarding it.
func (s *SessionStore) Reset(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyzer, ok := s.sessions[id]
	if !ok {
		return false
	}
	analyzer.Reset()
	return true
}

// End discards the session. A no-op for empty or unknown ids.
func (s *SessionStore) End(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// AnalyzeFrame runs one frame of a liveness session: detect the face,
// then feed the crop and landmarks to the session's analyzer. Blink
// counts survive between frames until the session ends.
func (s *AttendanceService) AnalyzeFrame(ctx context.Context, sessionID string, imageBytes []byte) (*domain.LivenessResult, error) {
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, err
	}

	regions, err := s.deps.Detector.DetectFaces(img)
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	result := s.checkLiveness(ctx, img, regions[0], s.sessions.Get(sessionID))
	return &result, nil
}

// ResetSession clears a session's accumulated blink state.
func (s *AttendanceService) ResetSession(sessionID string) error {
	if !s.sessions.Reset(sessionID) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// EndSession discards a liveness session.
func (s *AttendanceService) EndSession(sessionID string) {
	s.sessions.End(sessionID)
}
