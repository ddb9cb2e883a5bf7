package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func patternGray(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetGray(x, y, color.Gray{Y: uint8((x*31 + y*17) % 256)})
		}
	}
	return g
}

func TestToGray_PassthroughAndLuminance(t *testing.T) {
	g := uniformGray(4, 4, 100)
	assert.Same(t, g, ToGray(g))

	red := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i] = 255
		red.Pix[i+3] = 255
	}
	out := ToGray(red)
	// BT.601: 0.299 * 255
	assert.Equal(t, uint8(76), out.Pix[0])
	assert.Equal(t, 2, out.Bounds().Dx())
	assert.Equal(t, 2, out.Bounds().Dy())
}

func TestLBPCodes(t *testing.T) {
	t.Run("too small", func(t *testing.T) {
		assert.Nil(t, LBPCodes(uniformGray(2, 2, 0)))
	})

	t.Run("flat image is all ones", func(t *testing.T) {
		codes := LBPCodes(uniformGray(5, 5, 128))
		require.Len(t, codes, 9)
		for _, c := range codes {
			assert.Equal(t, uint8(0xFF), c)
		}
	})

	t.Run("bright center is zero", func(t *testing.T) {
		g := uniformGray(3, 3, 0)
		g.SetGray(1, 1, color.Gray{Y: 255})
		codes := LBPCodes(g)
		require.Len(t, codes, 1)
		assert.Equal(t, uint8(0), codes[0])
	})
}

func TestLBPHistogram_NormalizedMass(t *testing.T) {
	codes := LBPCodes(patternGray(32, 32))
	hist := LBPHistogram(codes, 64)
	require.Len(t, hist, 64)

	sum := 0.0
	for _, v := range hist {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestGrayHistogram_UniformImage(t *testing.T) {
	hist := GrayHistogram(uniformGray(10, 10, 128), 32)
	require.Len(t, hist, 32)

	// 128 falls in bin 16 with bin width 8
	assert.InDelta(t, 1.0, hist[16], 1e-6)
	for i, v := range hist {
		if i != 16 {
			assert.Zero(t, v)
		}
	}
}

func TestGradientOrientationHistogram(t *testing.T) {
	t.Run("flat image has no mass", func(t *testing.T) {
		hist := GradientOrientationHistogram(uniformGray(10, 10, 77), 18)
		for _, v := range hist {
			assert.Zero(t, v)
		}
	})

	t.Run("vertical edge lands in first bin", func(t *testing.T) {
		g := image.NewGray(image.Rect(0, 0, 10, 10))
		for y := 0; y < 10; y++ {
			for x := 5; x < 10; x++ {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
		hist := GradientOrientationHistogram(g, 18)
		sum := 0.0
		for _, v := range hist {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		assert.Greater(t, hist[0], 0.9)
	})
}

func TestHueHistogram(t *testing.T) {
	makeColor := func(r, g, b uint8) image.Image {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = 255
		}
		return img
	}

	// Pure red has hue 0, pure green 60 on the half-hue scale.
	red := HueHistogram(makeColor(255, 0, 0), 18)
	assert.InDelta(t, 1.0, red[0], 1e-6)

	green := HueHistogram(makeColor(0, 255, 0), 18)
	assert.InDelta(t, 1.0, green[6], 1e-6)
}

func TestLaplacianVariance(t *testing.T) {
	assert.Zero(t, LaplacianVariance(uniformGray(10, 10, 42)))

	checker := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if (x+y)%2 == 0 {
				checker.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	assert.Greater(t, LaplacianVariance(checker), 1000.0)
}

func TestEntropy(t *testing.T) {
	uniform := make([]float64, 256)
	for i := range uniform {
		uniform[i] = 1.0 / 256
	}
	assert.InDelta(t, 8.0, Entropy(uniform), 0.01)

	spike := make([]float64, 256)
	spike[0] = 1
	assert.InDelta(t, 0.0, Entropy(spike), 0.01)
}
