// Package detector locates faces in frames with the pigo pixel
// intensity comparison cascade, a pure-Go detector that needs no
// native dependencies on the edge devices running the kiosk.
package detector

import (
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/adi-0903/FacePass/internal/domain"
	"github.com/adi-0903/FacePass/internal/provider"
	"github.com/adi-0903/FacePass/internal/vision"
)

const (
	minFaceSize      = 60
	shiftFactor      = 0.1
	scaleFactor      = 1.1
	clusterThreshold = 0.2
	qualityThreshold = 5.0
)

// Detector wraps an unpacked pigo cascade. The classifier is immutable
// after unpacking, so one Detector serves all requests.
type Detector struct {
	classifier *pigo.Pigo
}

// New reads and unpacks the binary cascade at path.
func New(path string) (*Detector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade file: %w", err)
	}

	classifier, err := pigo.NewPigo().Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade: %w", err)
	}
	return &Detector{classifier: classifier}, nil
}

// DetectFaces runs the cascade over the full frame and returns the
// clustered detections that clear the quality threshold, as square
// regions in pixel coordinates.
func (d *Detector) DetectFaces(img image.Image) ([]domain.FaceRegion, error) {
	gray := vision.ToGray(img)
	rows, cols := gray.Bounds().Dy(), gray.Bounds().Dx()
	if rows == 0 || cols == 0 {
		return nil, nil
	}

	maxSize := rows
	if cols > maxSize {
		maxSize = cols
	}

	params := pigo.CascadeParams{
		MinSize:     minFaceSize,
		MaxSize:     maxSize,
		ShiftFactor: shiftFactor,
		ScaleFactor: scaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   rows,
			Cols:   cols,
			Dim:    gray.Stride,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, clusterThreshold)

	regions := make([]domain.FaceRegion, 0, len(dets))
	for _, det := range dets {
		if det.Q < qualityThreshold {
			continue
		}
		half := det.Scale / 2
		region := domain.FaceRegion{
			Top:    det.Row - half,
			Left:   det.Col - half,
			Bottom: det.Row - half + det.Scale,
			Right:  det.Col - half + det.Scale,
		}
		region = region.Clamp(image.Rect(0, 0, cols, rows))
		if region.Empty() {
			continue
		}
		regions = append(regions, region)
	}
	return regions, nil
}

var _ provider.FaceDetector = (*Detector)(nil)
