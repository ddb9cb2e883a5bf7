package provider

import (
	"context"
	"image"

	"github.com/adi-0903/FacePass/internal/domain"
)

// Comparison is the outcome of comparing a probe vector against an
// enrolled vector under a tolerance threshold. Distance is normalized
// so that lower always means more similar, whatever the strategy.
type Comparison struct {
	Confidence float64
	Distance   float64
	Match      bool
}

// FaceEncoder maps a face crop to a fixed-length descriptor and defines
// how descriptors of its own kind are stored and compared. The strategy
// is chosen once at startup; vectors from different encoders are never
// interchangeable.
type FaceEncoder interface {
	// Name identifies the strategy ("histogram", "dlib").
	Name() string

	// Length is the fixed descriptor length.
	Length() int

	// Encode extracts the descriptor for the face at region. Returns
	// domain.ErrInsufficientRegion when the clamped region is empty or
	// smaller than the minimum usable size.
	Encode(ctx context.Context, img image.Image, region domain.FaceRegion) (domain.FeatureVector, error)

	// EncodeBytes serializes a vector to its raw stored form: native
	// little-endian floats, no header.
	EncodeBytes(vec domain.FeatureVector) []byte

	// DecodeBytes parses a stored encoding, rejecting buffers whose
	// length does not correspond to exactly Length values.
	DecodeBytes(raw []byte) (domain.FeatureVector, error)

	// Compare scores probe against an enrolled vector. Mismatched
	// vector lengths are an error, never coerced.
	Compare(enrolled, probe domain.FeatureVector, tolerance float64) (Comparison, error)
}

// FaceDetector finds face rectangles in a normalized frame. The
// implementation is interchangeable as long as it reports regions in
// (top, right, bottom, left) order.
type FaceDetector interface {
	DetectFaces(img image.Image) ([]domain.FaceRegion, error)
}

// LandmarkProvider resolves named landmark point groups for a detected
// face; at minimum "left_eye" and "right_eye" with six points each.
// It is optional: without one, liveness degrades to texture, reflection
// and blur fusion and blink counting is disabled.
type LandmarkProvider interface {
	Landmarks(ctx context.Context, img image.Image, region domain.FaceRegion) (map[string][]domain.Point, error)
}
