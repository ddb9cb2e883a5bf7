// Package gallery holds the in-memory enrollment gallery: every active
// user's decoded feature vector, swapped atomically on reload so that
// identification never observes a partially loaded state.
package gallery

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/provider"
)

// StoredEncoding is one enrolled encoding as persisted: owner plus raw
// serialized vector.
type StoredEncoding struct {
	UserID uuid.UUID
	Raw    []byte
}

type entry struct {
	userID uuid.UUID
	vector domain.FeatureVector
}

type snapshot struct {
	entries []entry
}

// Matcher identifies probe vectors against the current gallery
// snapshot. Load may run concurrently with Identify; readers keep the
// snapshot they started with.
type Matcher struct {
	encoder            provider.FaceEncoder
	tolerance          float64
	duplicateThreshold float64
	logger             *slog.Logger

	current atomic.Pointer[snapshot]
}

func NewMatcher(encoder provider.FaceEncoder, tolerance, duplicateThreshold float64, logger *slog.Logger) *Matcher {
	m := &Matcher{
		encoder:            encoder,
		tolerance:          tolerance,
		duplicateThreshold: duplicateThreshold,
		logger:             logger,
	}
	m.current.Store(&snapshot{})
	return m
}

// Load decodes the stored encodings and atomically replaces the
// gallery. Encodings that fail to decode (corrupt, or written by a
// different strategy) are skipped with a warning so one bad row cannot
// block everyone else's attendance. Returns the number of entries
// loaded.
func (m *Matcher) Load(stored []StoredEncoding) int {
	entries := make([]entry, 0, len(stored))
	for _, s := range stored {
		vec, err := m.encoder.DecodeBytes(s.Raw)
		if err != nil {
			m.logger.Warn("skipping unreadable face encoding",
				slog.String("user_id", s.UserID.String()),
				slog.String("error", err.Error()))
			continue
		}
		entries = append(entries, entry{userID: s.UserID, vector: vec})
	}

	m.current.Store(&snapshot{entries: entries})
	return len(entries)
}

// Size is the number of enrolled encodings in the current snapshot.
func (m *Matcher) Size() int {
	return len(m.current.Load().entries)
}

// Identify scans the gallery for the enrolled vector closest to probe.
// Returns nil when the gallery is empty or nothing matches within the
// configured tolerance. Ties go to the earlier enrollment.
func (m *Matcher) Identify(probe domain.FeatureVector) (*domain.MatchResult, error) {
	return m.bestMatch(probe, m.tolerance)
}

// CheckDuplicate reports whether probe already belongs to an enrolled
// user: the best gallery match, if any, must also clear the stricter
// duplicate confidence bar.
func (m *Matcher) CheckDuplicate(probe domain.FeatureVector) (*domain.MatchResult, error) {
	best, err := m.bestMatch(probe, m.tolerance)
	if err != nil {
		return nil, err
	}
	if best == nil || best.Confidence < m.duplicateThreshold {
		return nil, nil
	}
	return best, nil
}

func (m *Matcher) bestMatch(probe domain.FeatureVector, tolerance float64) (*domain.MatchResult, error) {
	snap := m.current.Load()

	var best *domain.MatchResult
	for _, e := range snap.entries {
		cmp, err := m.encoder.Compare(e.vector, probe, tolerance)
		if err != nil {
			return nil, err
		}
		if !cmp.Match {
			continue
		}
		if best == nil || cmp.Distance < best.Distance {
			best = &domain.MatchResult{
				UserID:     e.userID,
				Confidence: cmp.Confidence,
				Distance:   cmp.Distance,
			}
		}
	}
	return best, nil
}
