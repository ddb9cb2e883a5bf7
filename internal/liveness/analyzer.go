// Package liveness decides whether a presented face is a live person
// or a replayed photo/screen. Several weak per-frame signals (texture
// complexity, specular reflection, sharpness) are fused into one
// confidence; eye-blink counting over landmark geometry is tracked as
// an advisory session signal, never fused into the per-frame score.
package liveness

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/vision"
)

const (
	// brightCutoff and blurNorm are empirically tuned on the original
	// deployment's cameras; recalibration candidates, not structure.
	brightCutoff = 240
	blurNorm     = 500.0

	entropyNorm = 8.0
	textureSize = 128

	// consecutiveFrames is how many sub-threshold EAR frames must be
	// seen before a return above threshold counts as one blink.
	consecutiveFrames = 3

	// Fusion weights, two schemes depending on blur availability.
	textureWeightEAR    = 0.6
	reflectionWeightEAR = 0.4
	textureWeight       = 0.4
	reflectionWeight    = 0.3
	blurWeight          = 0.3
)

// Analyzer computes per-frame liveness. The blink counter is the only
// cross-frame state in the engine; one Analyzer belongs to exactly one
// capture session and must not be shared across concurrent sessions.
type Analyzer struct {
	threshold      float64
	blinkThreshold float64
	logger         *slog.Logger

	frameCounter int
	blinkCounter int
}

func NewAnalyzer(threshold, blinkThreshold float64, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		threshold:      threshold,
		blinkThreshold: blinkThreshold,
		logger:         logger,
	}
}

// Check runs the per-frame liveness analysis on a face crop. When
// landmarks include both eyes the blink signal is updated and blur is
// skipped; otherwise blur joins the fusion. A degenerate crop or any
// scoring fault fails OPEN: attendance is never hard-blocked by an
// internal scoring error, but the result is flagged degraded and
// logged for monitoring.
func (a *Analyzer) Check(crop image.Image, landmarks map[string][]domain.Point) (result domain.LivenessResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("liveness scoring degraded, failing open", slog.Any("panic", r))
			result = failOpen()
		}
	}()

	if crop == nil || crop.Bounds().Dx() == 0 || crop.Bounds().Dy() == 0 {
		a.logger.Warn("liveness scoring degraded, failing open", slog.String("reason", "empty crop"))
		return failOpen()
	}

	gray := vision.ToGray(crop)

	result.TextureScore = a.textureScore(gray)
	result.ReflectionScore = a.reflectionScore(gray)

	left, right := eyePoints(landmarks)
	if left != nil && right != nil {
		ear := (eyeAspectRatio(left) + eyeAspectRatio(right)) / 2
		a.observeEAR(ear)
		blinks := a.blinkCounter
		result.EyeAspectRatio = &ear
		result.BlinkCount = &blinks
		result.Confidence = result.TextureScore*textureWeightEAR +
			result.ReflectionScore*reflectionWeightEAR
	} else {
		blur := a.blurScore(gray)
		result.BlurScore = &blur
		result.Confidence = result.TextureScore*textureWeight +
			result.ReflectionScore*reflectionWeight +
			blur*blurWeight
	}

	result.IsLive = result.Confidence >= a.threshold
	return result
}

// Reset clears the blink state for a new session.
func (a *Analyzer) Reset() {
	a.blinkCounter = 0
	a.frameCounter = 0
}

// BlinkCount reports blinks observed so far in this session.
func (a *Analyzer) BlinkCount() int {
	return a.blinkCounter
}

// textureScore is the Shannon entropy of the full 256-bin LBP
// histogram, normalized to [0, 1]. Replayed media have flatter
// micro-texture than skin: real faces typically land around 5-7 bits,
// prints and screens lower.
func (a *Analyzer) textureScore(gray *image.Gray) float64 {
	resized := vision.ToGray(imaging.Resize(gray, textureSize, textureSize, imaging.Linear))
	hist := vision.LBPHistogram(vision.LBPCodes(resized), 256)
	return clamp01(vision.Entropy(hist) / entropyNorm)
}

// reflectionScore penalizes concentrated specular glare: the fraction
// of near-saturated pixels is scaled so that 10% bright already zeroes
// the score.
func (a *Analyzer) reflectionScore(gray *image.Gray) float64 {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	bright := 0
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			if row[x] > brightCutoff {
				bright++
			}
		}
	}
	brightRatio := float64(bright) / float64(w*h)
	return 1 - math.Min(brightRatio*10, 1)
}

// blurScore measures high-frequency detail via Laplacian variance;
// recaptured images lose sharpness.
func (a *Analyzer) blurScore(gray *image.Gray) float64 {
	return clamp01(vision.LaplacianVariance(gray) / blurNorm)
}

// observeEAR feeds one eye-aspect-ratio sample into the hysteresis
// blink detector: sub-threshold frames accumulate, and a return above
// threshold after at least consecutiveFrames of closure counts as one
// blink.
func (a *Analyzer) observeEAR(ear float64) {
	if ear < a.blinkThreshold {
		a.frameCounter++
	} else {
		if a.frameCounter >= consecutiveFrames {
			a.blinkCounter++
		}
		a.frameCounter = 0
	}
}

// eyeAspectRatio computes EAR = (|p2-p6| + |p3-p5|) / (2 |p1-p4|) from
// the six standard eye landmarks. Open eyes sit near 0.3, closed ones
// below 0.2.
func eyeAspectRatio(eye []domain.Point) float64 {
	vertA := pointDistance(eye[1], eye[5])
	vertB := pointDistance(eye[2], eye[4])
	horiz := pointDistance(eye[0], eye[3])
	if horiz == 0 {
		return 0
	}
	return (vertA + vertB) / (2 * horiz)
}

func eyePoints(landmarks map[string][]domain.Point) (left, right []domain.Point) {
	if landmarks == nil {
		return nil, nil
	}
	l, r := landmarks["left_eye"], landmarks["right_eye"]
	if len(l) < 6 || len(r) < 6 {
		return nil, nil
	}
	return l, r
}

func pointDistance(a, b domain.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func failOpen() domain.LivenessResult {
	return domain.LivenessResult{
		TextureScore:    1,
		ReflectionScore: 1,
		Confidence:      1,
		IsLive:          true,
		Degraded:        true,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
