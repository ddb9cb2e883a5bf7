package dlib

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/provider"
)

const (
	// VectorLength is the dlib face recognition model's output size.
	VectorLength = 128

	minRegionSize = 10
)

// Encoder is the external embedding strategy backed by the sidecar.
type Encoder struct {
	client *Client
}

func NewEncoder(config Config) *Encoder {
	return &Encoder{client: NewClient(config)}
}

func (e *Encoder) Name() string { return "dlib" }

func (e *Encoder) Length() int { return VectorLength }

func (e *Encoder) Encode(ctx context.Context, img image.Image, region domain.FaceRegion) (domain.FeatureVector, error) {
	clamped := region.Clamp(img.Bounds())
	if clamped.Empty() || clamped.Width() < minRegionSize || clamped.Height() < minRegionSize {
		return nil, domain.ErrInsufficientRegion
	}

	encoded, err := encodeImage(img)
	if err != nil {
		return nil, fmt.Errorf("encode image for sidecar: %w", err)
	}

	resp, err := e.client.Encodings(ctx, EncodeRequest{
		Image:  encoded,
		Region: clamped,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Encoding) != VectorLength {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrInvalidResponse, len(resp.Encoding), VectorLength)
	}
	return domain.FeatureVector(resp.Encoding), nil
}

// EncodeBytes serializes the vector as little-endian float64, no header.
func (e *Encoder) EncodeBytes(vec domain.FeatureVector) []byte {
	raw := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return raw
}

func (e *Encoder) DecodeBytes(raw []byte) (domain.FeatureVector, error) {
	if len(raw) != 8*VectorLength {
		return nil, fmt.Errorf("dlib encoding must be %d bytes, got %d", 8*VectorLength, len(raw))
	}
	vec := make(domain.FeatureVector, VectorLength)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return vec, nil
}

// Compare scores by Euclidean distance: a match when the distance is
// within tolerance, with confidence shrinking linearly to zero at the
// tolerance boundary.
func (e *Encoder) Compare(enrolled, probe domain.FeatureVector, tolerance float64) (provider.Comparison, error) {
	if len(enrolled) != len(probe) {
		return provider.Comparison{}, fmt.Errorf("vector length mismatch: %d vs %d", len(enrolled), len(probe))
	}

	var sum float64
	for i := range enrolled {
		diff := enrolled[i] - probe[i]
		sum += diff * diff
	}
	distance := math.Sqrt(sum)

	confidence := 0.0
	if tolerance > 0 {
		confidence = 1 - distance/tolerance
		if confidence < 0 {
			confidence = 0
		}
	}

	return provider.Comparison{
		Confidence: confidence,
		Distance:   distance,
		Match:      distance <= tolerance,
	}, nil
}

// LandmarkProvider exposes the sidecar's landmark endpoint as the
// optional landmark source for blink detection.
type LandmarkProvider struct {
	client *Client
}

func NewLandmarkProvider(config Config) *LandmarkProvider {
	return &LandmarkProvider{client: NewClient(config)}
}

func (p *LandmarkProvider) Landmarks(ctx context.Context, img image.Image, region domain.FaceRegion) (map[string][]domain.Point, error) {
	encoded, err := encodeImage(img)
	if err != nil {
		return nil, fmt.Errorf("encode image for sidecar: %w", err)
	}

	resp, err := p.client.Landmarks(ctx, LandmarksRequest{
		Image:  encoded,
		Region: region,
	})
	if err != nil {
		return nil, err
	}
	return resp.Landmarks, nil
}

func encodeImage(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

var _ provider.FaceEncoder = (*Encoder)(nil)
var _ provider.LandmarkProvider = (*LandmarkProvider)(nil)
