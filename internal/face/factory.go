// Package face wires the configured encoding strategy.
package face

import (
	"fmt"

	"github.com/adi-0903/FacePass/internal/config"
	"github.com/adi-0903/FacePass/internal/provider"
	"github.com/adi-0903/FacePass/internal/provider/dlib"
	"github.com/adi-0903/FacePass/internal/provider/histogram"
	"github.com/adi-0903/FacePass/internal/vision"
)

// EncoderType defines supported face encoding strategies
type EncoderType string

const (
	// EncoderTypeHistogram is the in-process handcrafted descriptor,
	// the default: no external services, deterministic, CPU-only.
	EncoderTypeHistogram EncoderType = "histogram"
	// EncoderTypeDlib delegates encoding to the dlib sidecar for
	// higher accuracy at the cost of a network hop.
	EncoderTypeDlib EncoderType = "dlib"
)

// NewEncoder creates the FaceEncoder selected by configuration.
//
// Environment variables:
//   - FACE_ENCODER: "histogram" or "dlib" (default: "histogram")
//   - DLIB_URL: dlib sidecar URL (default: "http://localhost:8500")
func NewEncoder(cfg *config.Config) (provider.FaceEncoder, error) {
	switch EncoderType(cfg.FaceEncoder) {
	case EncoderTypeHistogram, "":
		return histogram.New(newNormalizer(cfg)), nil

	case EncoderTypeDlib:
		return dlib.NewEncoder(dlibConfig(cfg)), nil

	default:
		return nil, fmt.Errorf("unknown encoder type: %s (supported: %s, %s)",
			cfg.FaceEncoder, EncoderTypeHistogram, EncoderTypeDlib)
	}
}

// NewLandmarkProvider returns the landmark source for blink detection,
// or nil when the active strategy has none; liveness then falls back
// to blur-based fusion.
func NewLandmarkProvider(cfg *config.Config) provider.LandmarkProvider {
	if EncoderType(cfg.FaceEncoder) == EncoderTypeDlib {
		return dlib.NewLandmarkProvider(dlibConfig(cfg))
	}
	return nil
}

func newNormalizer(cfg *config.Config) *vision.Normalizer {
	return vision.NewNormalizer(cfg.CLAHEClipLimit, cfg.CLAHETileGridSize, cfg.EnableCLAHE, cfg.EnableHistEq)
}

func dlibConfig(cfg *config.Config) dlib.Config {
	dc := dlib.DefaultConfig()
	if cfg.DlibURL != "" {
		dc.BaseURL = cfg.DlibURL
	}
	return dc
}
