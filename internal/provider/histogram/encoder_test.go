package histogram

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/vision"
)

func newTestEncoder() *Encoder {
	return New(vision.NewNormalizer(2.0, 8, true, true))
}

func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x*37 + y*13) % 256),
				G: uint8((x*11 + y*29) % 256),
				B: uint8((x*7 + y*41) % 256),
				A: 255,
			})
		}
	}
	return img
}

func fullRegion(w, h int) domain.FaceRegion {
	return domain.FaceRegion{Top: 0, Right: w, Bottom: h, Left: 0}
}

func TestEncoder_NameAndLength(t *testing.T) {
	e := newTestEncoder()
	assert.Equal(t, "histogram", e.Name())
	assert.Equal(t, 132, e.Length())
}

func TestEncode_DescriptorShape(t *testing.T) {
	e := newTestEncoder()
	vec, err := e.Encode(context.Background(), testImage(120, 120), fullRegion(120, 120))
	require.NoError(t, err)
	require.Len(t, vec, VectorLength)

	// four L1-normalized blocks, each summing to 1
	blocks := []struct {
		name       string
		start, end int
	}{
		{"lbp", 0, 64},
		{"gray", 64, 96},
		{"gradient", 96, 114},
		{"hue", 114, 132},
	}
	for _, b := range blocks {
		sum := 0.0
		for _, v := range vec[b.start:b.end] {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-4, "block %s", b.name)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	e := newTestEncoder()
	img := testImage(120, 120)

	a, err := e.Encode(context.Background(), img, fullRegion(120, 120))
	require.NoError(t, err)
	b, err := e.Encode(context.Background(), img, fullRegion(120, 120))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_RegionTooSmall(t *testing.T) {
	e := newTestEncoder()
	img := testImage(120, 120)

	_, err := e.Encode(context.Background(), img, domain.FaceRegion{Top: 0, Right: 5, Bottom: 5, Left: 0})
	assert.ErrorIs(t, err, domain.ErrInsufficientRegion)

	// region fully outside bounds clamps to empty
	_, err = e.Encode(context.Background(), img, domain.FaceRegion{Top: 200, Right: 300, Bottom: 300, Left: 200})
	assert.ErrorIs(t, err, domain.ErrInsufficientRegion)
}

func TestCompare_SelfSimilarityIsExactlyOne(t *testing.T) {
	e := newTestEncoder()
	vec, err := e.Encode(context.Background(), testImage(120, 120), fullRegion(120, 120))
	require.NoError(t, err)

	cmp, err := e.Compare(vec, vec, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cmp.Confidence)
	assert.Equal(t, 0.0, cmp.Distance)
	assert.True(t, cmp.Match)
}

func TestCompare_DistinctImagesScoreLower(t *testing.T) {
	e := newTestEncoder()

	a, err := e.Encode(context.Background(), testImage(120, 120), fullRegion(120, 120))
	require.NoError(t, err)

	flat := image.NewNRGBA(image.Rect(0, 0, 120, 120))
	for i := range flat.Pix {
		flat.Pix[i] = 200
	}
	b, err := e.Encode(context.Background(), flat, fullRegion(120, 120))
	require.NoError(t, err)

	cmp, err := e.Compare(a, b, 0.99)
	require.NoError(t, err)
	assert.Less(t, cmp.Confidence, 1.0)
	assert.False(t, cmp.Match)
}

func TestCompare_Errors(t *testing.T) {
	e := newTestEncoder()

	_, err := e.Compare(make(domain.FeatureVector, 132), make(domain.FeatureVector, 128), 0.5)
	assert.Error(t, err)

	// zero enrolled mass never matches
	cmp, err := e.Compare(make(domain.FeatureVector, 132), make(domain.FeatureVector, 132), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cmp.Confidence)
	assert.False(t, cmp.Match)
}

func TestEncodeBytes_RoundTrip(t *testing.T) {
	e := newTestEncoder()
	vec, err := e.Encode(context.Background(), testImage(120, 120), fullRegion(120, 120))
	require.NoError(t, err)

	raw := e.EncodeBytes(vec)
	require.Len(t, raw, 4*VectorLength)

	decoded, err := e.DecodeBytes(raw)
	require.NoError(t, err)
	require.Len(t, decoded, VectorLength)
	for i := range vec {
		assert.InDelta(t, vec[i], decoded[i], 1e-6)
	}
}

func TestDecodeBytes_WrongLength(t *testing.T) {
	e := newTestEncoder()
	_, err := e.DecodeBytes(make([]byte, 100))
	assert.Error(t, err)
}
