package gallery

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/provider"
)

// stubEncoder is a two-value strategy with L1 distance, enough to
// exercise the matcher without real images.
type stubEncoder struct{}

func (stubEncoder) Name() string { return "stub" }
func (stubEncoder) Length() int  { return 2 }

func (stubEncoder) Encode(context.Context, image.Image, domain.FaceRegion) (domain.FeatureVector, error) {
	return nil, fmt.Errorf("not used")
}

func (stubEncoder) EncodeBytes(vec domain.FeatureVector) []byte {
	raw := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return raw
}

func (e stubEncoder) DecodeBytes(raw []byte) (domain.FeatureVector, error) {
	if len(raw) != 8*e.Length() {
		return nil, fmt.Errorf("want %d bytes, got %d", 8*e.Length(), len(raw))
	}
	vec := make(domain.FeatureVector, e.Length())
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return vec, nil
}

func (stubEncoder) Compare(enrolled, probe domain.FeatureVector, tolerance float64) (provider.Comparison, error) {
	if len(enrolled) != len(probe) {
		return provider.Comparison{}, fmt.Errorf("length mismatch")
	}
	distance := 0.0
	for i := range enrolled {
		distance += math.Abs(enrolled[i] - probe[i])
	}
	confidence := 1 - distance
	if confidence < 0 {
		confidence = 0
	}
	return provider.Comparison{
		Confidence: confidence,
		Distance:   distance,
		Match:      distance <= tolerance,
	}, nil
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMatcher(stubEncoder{}, 0.5, 0.7, logger)
}

func stored(id uuid.UUID, vec domain.FeatureVector) StoredEncoding {
	return StoredEncoding{UserID: id, Raw: stubEncoder{}.EncodeBytes(vec)}
}

func TestIdentify_EmptyGallery(t *testing.T) {
	matcher := newTestMatcher(t)

	match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})

	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Equal(t, 0, matcher.Size())
}

func TestIdentify_PicksClosestMatch(t *testing.T) {
	matcher := newTestMatcher(t)
	near := uuid.New()
	far := uuid.New()

	matcher.Load([]StoredEncoding{
		stored(far, domain.FeatureVector{0.4, 0.4}),
		stored(near, domain.FeatureVector{0.5, 0.45}),
	})

	match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, near, match.UserID)
	assert.InDelta(t, 0.05, match.Distance, 1e-9)
}

func TestIdentify_NothingWithinTolerance(t *testing.T) {
	matcher := newTestMatcher(t)

	matcher.Load([]StoredEncoding{
		stored(uuid.New(), domain.FeatureVector{0, 0}),
	})

	match, err := matcher.Identify(domain.FeatureVector{1, 1})

	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestIdentify_TieGoesToEarlierEnrollment(t *testing.T) {
	matcher := newTestMatcher(t)
	first := uuid.New()
	second := uuid.New()

	matcher.Load([]StoredEncoding{
		stored(first, domain.FeatureVector{0.4, 0.5}),
		stored(second, domain.FeatureVector{0.6, 0.5}),
	})

	match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})

	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, first, match.UserID)
}

func TestLoad_SkipsUnreadableEncodings(t *testing.T) {
	matcher := newTestMatcher(t)
	good := uuid.New()

	loaded := matcher.Load([]StoredEncoding{
		{UserID: uuid.New(), Raw: []byte{1, 2, 3}},
		stored(good, domain.FeatureVector{0.5, 0.5}),
	})

	assert.Equal(t, 1, loaded)
	assert.Equal(t, 1, matcher.Size())

	match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, good, match.UserID)
}

func TestLoad_ReplacesPreviousSnapshot(t *testing.T) {
	matcher := newTestMatcher(t)
	old := uuid.New()
	fresh := uuid.New()

	matcher.Load([]StoredEncoding{stored(old, domain.FeatureVector{0.5, 0.5})})
	matcher.Load([]StoredEncoding{stored(fresh, domain.FeatureVector{0.5, 0.5})})

	match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, fresh, match.UserID)
	assert.Equal(t, 1, matcher.Size())
}

func TestCheckDuplicate(t *testing.T) {
	matcher := newTestMatcher(t)
	enrolled := uuid.New()

	matcher.Load([]StoredEncoding{stored(enrolled, domain.FeatureVector{0.5, 0.5})})

	// Close enough to match and clear the duplicate bar.
	dup, err := matcher.CheckDuplicate(domain.FeatureVector{0.5, 0.55})
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, enrolled, dup.UserID)

	// Matches under tolerance but confidence below the duplicate bar.
	weak, err := matcher.CheckDuplicate(domain.FeatureVector{0.5, 0.95})
	require.NoError(t, err)
	assert.Nil(t, weak)

	// No match at all.
	none, err := matcher.CheckDuplicate(domain.FeatureVector{2, 2})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestConcurrentReloadAndIdentify(t *testing.T) {
	matcher := newTestMatcher(t)
	id := uuid.New()
	enc := []StoredEncoding{stored(id, domain.FeatureVector{0.5, 0.5})}
	matcher.Load(enc)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				matcher.Load(enc)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				match, err := matcher.Identify(domain.FeatureVector{0.5, 0.5})
				assert.NoError(t, err)
				// Every reader sees a complete snapshot.
				if assert.NotNil(t, match) {
					assert.Equal(t, id, match.UserID)
				}
			}
		}()
	}
	wg.Wait()
}
