// Package histogram implements the in-process face encoding strategy:
// a 132-value descriptor built from texture, intensity, gradient and
// color histograms of a normalized 100x100 face crop. It needs no
// external model and is the default strategy.
package histogram

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/provider"
	"github.com/adi-0903/FacePass/internal/vision"
)

const (
	cropSize      = 100
	minRegionSize = 10

	lbpBins  = 64
	grayBins = 32
	gradBins = 18
	hueBins  = 18

	// VectorLength is lbpBins + grayBins + gradBins + hueBins. The
	// concatenation order is load-bearing: stored encodings assume it.
	VectorLength = 132
)

type Encoder struct {
	normalizer *vision.Normalizer
}

func New(normalizer *vision.Normalizer) *Encoder {
	return &Encoder{normalizer: normalizer}
}

func (e *Encoder) Name() string { return "histogram" }

func (e *Encoder) Length() int { return VectorLength }

// Encode extracts the descriptor for the face at region: clamp, crop,
// resize to a fixed square, re-normalize lighting, then concatenate the
// four L1-normalized histograms.
func (e *Encoder) Encode(_ context.Context, img image.Image, region domain.FaceRegion) (domain.FeatureVector, error) {
	clamped := region.Clamp(img.Bounds())
	if clamped.Empty() || clamped.Width() < minRegionSize || clamped.Height() < minRegionSize {
		return nil, domain.ErrInsufficientRegion
	}

	crop := imaging.Crop(img, clamped.Rect())
	resized := imaging.Resize(crop, cropSize, cropSize, imaging.Linear)
	normalized := e.normalizer.Normalize(resized)
	gray := vision.ToGray(normalized)

	vec := make(domain.FeatureVector, 0, VectorLength)
	vec = append(vec, vision.LBPHistogram(vision.LBPCodes(gray), lbpBins)...)
	vec = append(vec, vision.GrayHistogram(gray, grayBins)...)
	vec = append(vec, vision.GradientOrientationHistogram(gray, gradBins)...)
	vec = append(vec, vision.HueHistogram(normalized, hueBins)...)
	return vec, nil
}

// EncodeBytes serializes the vector as little-endian float32, no header.
func (e *Encoder) EncodeBytes(vec domain.FeatureVector) []byte {
	raw := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(float32(v)))
	}
	return raw
}

func (e *Encoder) DecodeBytes(raw []byte) (domain.FeatureVector, error) {
	if len(raw) != 4*VectorLength {
		return nil, fmt.Errorf("histogram encoding must be %d bytes, got %d", 4*VectorLength, len(raw))
	}
	vec := make(domain.FeatureVector, VectorLength)
	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
	}
	return vec, nil
}

// Compare scores by histogram intersection normalized against the
// enrolled vector's own mass. The asymmetry is deliberate: similarity
// is how much of the enrolled histogram the probe covers, so a vector
// against itself is exactly 1.
func (e *Encoder) Compare(enrolled, probe domain.FeatureVector, tolerance float64) (provider.Comparison, error) {
	if len(enrolled) != len(probe) {
		return provider.Comparison{}, fmt.Errorf("vector length mismatch: %d vs %d", len(enrolled), len(probe))
	}

	var intersection, mass float64
	for i := range enrolled {
		mass += enrolled[i]
		if probe[i] < enrolled[i] {
			intersection += probe[i]
		} else {
			intersection += enrolled[i]
		}
	}

	similarity := 0.0
	if mass > 0 {
		similarity = intersection / mass
	}

	return provider.Comparison{
		Confidence: similarity,
		Distance:   1 - similarity,
		Match:      similarity >= tolerance,
	}, nil
}

var _ provider.FaceEncoder = (*Encoder)(nil)
