package domain

import (
	"image"

	"github.com/google/uuid"
)

// FaceRegion is a face rectangle in source-image pixel coordinates,
// following the (top, right, bottom, left) convention of the detector.
type FaceRegion struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

func (r FaceRegion) Width() int  { return r.Right - r.Left }
func (r FaceRegion) Height() int { return r.Bottom - r.Top }

func (r FaceRegion) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Rect converts the region to a stdlib rectangle.
func (r FaceRegion) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Clamp restricts the region to the given image bounds.
func (r FaceRegion) Clamp(bounds image.Rectangle) FaceRegion {
	out := r
	if out.Top < bounds.Min.Y {
		out.Top = bounds.Min.Y
	}
	if out.Left < bounds.Min.X {
		out.Left = bounds.Min.X
	}
	if out.Bottom > bounds.Max.Y {
		out.Bottom = bounds.Max.Y
	}
	if out.Right > bounds.Max.X {
		out.Right = bounds.Max.X
	}
	return out
}

// WithMargin expands the region by margin (a fraction of its own size)
// on every side, clamped to bounds.
func (r FaceRegion) WithMargin(margin float64, bounds image.Rectangle) FaceRegion {
	mh := int(float64(r.Height()) * margin)
	mw := int(float64(r.Width()) * margin)
	out := FaceRegion{
		Top:    r.Top - mh,
		Right:  r.Right + mw,
		Bottom: r.Bottom + mh,
		Left:   r.Left - mw,
	}
	return out.Clamp(bounds)
}

// Point is a landmark coordinate in source-image pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FeatureVector is a fixed-length face descriptor. Its length is fixed by
// the active encoding strategy; vectors of different lengths are never
// comparable.
type FeatureVector []float64

// MatchResult is a positive identification against the gallery.
// A nil *MatchResult means "no match".
type MatchResult struct {
	UserID     uuid.UUID `json:"user_id"`
	Confidence float64   `json:"confidence"`
	Distance   float64   `json:"distance"`
}

// LivenessResult carries the per-frame spoof signals and fused verdict.
// BlurScore is only computed when no eye landmarks are available;
// EyeAspectRatio and BlinkCount only when they are.
type LivenessResult struct {
	TextureScore    float64  `json:"texture_score"`
	ReflectionScore float64  `json:"reflection_score"`
	BlurScore       *float64 `json:"blur_score,omitempty"`
	EyeAspectRatio  *float64 `json:"ear,omitempty"`
	BlinkCount      *int     `json:"blink_count,omitempty"`
	Confidence      float64  `json:"confidence"`
	IsLive          bool     `json:"is_live"`

	// Degraded marks a fail-open result produced because scoring could
	// not run; it is a monitoring signal, never a rejection.
	Degraded bool `json:"degraded,omitempty"`
}
