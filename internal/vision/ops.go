package vision

import (
	"image"
	"math"
)

const histEpsilon = 1e-7

// ToGray converts any image to 8-bit grayscale using the BT.601
// luminance weights.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if nrgba, ok := img.(*image.NRGBA); ok {
		i := 0
		for y := 0; y < bounds.Dy(); y++ {
			row := nrgba.Pix[y*nrgba.Stride:]
			for x := 0; x < bounds.Dx(); x++ {
				r := float64(row[x*4])
				g := float64(row[x*4+1])
				b := float64(row[x*4+2])
				out.Pix[i] = uint8(0.299*r + 0.587*g + 0.114*b)
				i++
			}
		}
		return out
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Pix[i] = uint8((0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0)
			i++
		}
	}
	return out
}

// LBPCodes computes the 8-bit local binary pattern code for every
// interior pixel. Neighbors are compared in fixed clockwise order
// starting at the top-left, each contributing one bit (neighbor >=
// center sets the bit).
func LBPCodes(g *image.Gray) []uint8 {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w < 3 || h < 3 {
		return nil
	}

	codes := make([]uint8, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		prev := g.Pix[(y-1)*g.Stride:]
		cur := g.Pix[y*g.Stride:]
		next := g.Pix[(y+1)*g.Stride:]
		for x := 1; x < w-1; x++ {
			c := cur[x]
			var code uint8
			if prev[x-1] >= c {
				code |= 1 << 7
			}
			if prev[x] >= c {
				code |= 1 << 6
			}
			if prev[x+1] >= c {
				code |= 1 << 5
			}
			if cur[x+1] >= c {
				code |= 1 << 4
			}
			if next[x+1] >= c {
				code |= 1 << 3
			}
			if next[x] >= c {
				code |= 1 << 2
			}
			if next[x-1] >= c {
				code |= 1 << 1
			}
			if cur[x-1] >= c {
				code |= 1 << 0
			}
			codes = append(codes, code)
		}
	}
	return codes
}

// LBPHistogram bins the 256 possible LBP codes uniformly into bins
// (256 must be divisible by bins) and L1-normalizes the result.
func LBPHistogram(codes []uint8, bins int) []float64 {
	hist := make([]float64, bins)
	div := 256 / bins
	for _, c := range codes {
		hist[int(c)/div]++
	}
	return L1Normalize(hist)
}

// GrayHistogram is the L1-normalized intensity histogram of g.
func GrayHistogram(g *image.Gray, bins int) []float64 {
	hist := make([]float64, bins)
	div := 256 / bins
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			hist[int(row[x])/div]++
		}
	}
	return L1Normalize(hist)
}

// GradientOrientationHistogram computes 3x3 Sobel gradients over the
// interior, folds each orientation into [0, 180) degrees and builds a
// magnitude-weighted histogram, L1-normalized.
func GradientOrientationHistogram(g *image.Gray, bins int) []float64 {
	hist := make([]float64, bins)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w < 3 || h < 3 {
		return L1Normalize(hist)
	}

	binWidth := 180.0 / float64(bins)
	for y := 1; y < h-1; y++ {
		prev := g.Pix[(y-1)*g.Stride:]
		cur := g.Pix[y*g.Stride:]
		next := g.Pix[(y+1)*g.Stride:]
		for x := 1; x < w-1; x++ {
			gx := -float64(prev[x-1]) + float64(prev[x+1]) +
				-2*float64(cur[x-1]) + 2*float64(cur[x+1]) +
				-float64(next[x-1]) + float64(next[x+1])
			gy := -float64(prev[x-1]) - 2*float64(prev[x]) - float64(prev[x+1]) +
				float64(next[x-1]) + 2*float64(next[x]) + float64(next[x+1])

			mag := math.Sqrt(gx*gx + gy*gy)
			if mag == 0 {
				continue
			}
			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			if angle >= 180 {
				angle -= 180
			}
			hist[int(angle/binWidth)] += mag
		}
	}
	return L1Normalize(hist)
}

// HueHistogram is the L1-normalized histogram of the hue channel,
// using the OpenCV convention of hue in [0, 180).
func HueHistogram(img image.Image, bins int) []float64 {
	hist := make([]float64, bins)
	bounds := img.Bounds()
	binWidth := 180.0 / float64(bins)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			hue := rgbToHalfHue(float64(r16>>8), float64(g16>>8), float64(b16>>8))
			idx := int(hue / binWidth)
			if idx >= bins {
				idx = bins - 1
			}
			hist[idx] += 1
		}
	}
	return L1Normalize(hist)
}

// rgbToHalfHue returns hue/2 in [0, 180), matching 8-bit HSV.
func rgbToHalfHue(r, g, b float64) float64 {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min
	if delta == 0 {
		return 0
	}
	var hue float64
	switch max {
	case r:
		hue = 60 * (g - b) / delta
	case g:
		hue = 60*(b-r)/delta + 120
	default:
		hue = 60*(r-g)/delta + 240
	}
	if hue < 0 {
		hue += 360
	}
	return hue / 2
}

// LaplacianVariance is the variance of the 4-neighbor Laplacian over
// the interior pixels, a standard sharpness measure.
func LaplacianVariance(g *image.Gray) float64 {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w < 3 || h < 3 {
		return 0
	}

	var sum, sumSq float64
	count := 0
	for y := 1; y < h-1; y++ {
		prev := g.Pix[(y-1)*g.Stride:]
		cur := g.Pix[y*g.Stride:]
		next := g.Pix[(y+1)*g.Stride:]
		for x := 1; x < w-1; x++ {
			lap := float64(prev[x]) + float64(next[x]) +
				float64(cur[x-1]) + float64(cur[x+1]) -
				4*float64(cur[x])
			sum += lap
			sumSq += lap * lap
			count++
		}
	}
	if count == 0 {
		return 0
	}
	mean := sum / float64(count)
	return sumSq/float64(count) - mean*mean
}

// L1Normalize divides every bin by the histogram mass plus a small
// epsilon, in place.
func L1Normalize(hist []float64) []float64 {
	sum := 0.0
	for _, v := range hist {
		sum += v
	}
	denom := sum + histEpsilon
	for i := range hist {
		hist[i] /= denom
	}
	return hist
}

// Entropy is the Shannon entropy (bits) of a normalized histogram.
func Entropy(hist []float64) float64 {
	e := 0.0
	for _, p := range hist {
		e -= p * math.Log2(p+histEpsilon)
	}
	return e
}
