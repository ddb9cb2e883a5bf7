// Package vision holds the pixel-level primitives of the recognition
// engine: lighting normalization, texture codes and the histogram
// measurements the feature extractor and liveness analyzer are built on.
// Everything here operates on stdlib image types with plain bounded
// loops in row-major order.
package vision

import (
	"image"
	"image/color"
)

const grayLevels = 256

// Normalizer applies deterministic illumination correction before any
// measurement. For grayscale input it applies CLAHE when enabled, else
// global histogram equalization when enabled, else nothing. For color
// input the same policy runs on the luminance channel only (YCbCr), so
// chrominance is untouched and no color cast is introduced.
type Normalizer struct {
	clipLimit float64
	tileGrid  int
	clahe     bool
	histEq    bool
}

func NewNormalizer(clipLimit float64, tileGrid int, clahe, histEq bool) *Normalizer {
	if tileGrid < 1 {
		tileGrid = 1
	}
	return &Normalizer{
		clipLimit: clipLimit,
		tileGrid:  tileGrid,
		clahe:     clahe,
		histEq:    histEq,
	}
}

// Normalize returns an illumination-corrected copy of img. Output
// dimensions always equal input dimensions.
func (n *Normalizer) Normalize(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return n.NormalizeGray(g)
	}
	return n.normalizeColor(img)
}

// NormalizeGray applies the equalization policy to a grayscale image.
func (n *Normalizer) NormalizeGray(g *image.Gray) *image.Gray {
	switch {
	case n.clahe:
		return n.applyCLAHE(g)
	case n.histEq:
		return equalizeHist(g)
	default:
		out := image.NewGray(g.Bounds())
		copy(out.Pix, g.Pix)
		return out
	}
}

func (n *Normalizer) normalizeColor(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	luma := image.NewGray(image.Rect(0, 0, w, h))
	cb := make([]uint8, w*h)
	cr := make([]uint8, w*h)
	alpha := make([]uint8, w*h)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			yy, cbv, crv := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			luma.Pix[i] = yy
			cb[i] = cbv
			cr[i] = crv
			alpha[i] = uint8(a >> 8)
			i++
		}
	}

	luma = n.NormalizeGray(luma)

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		r, g, b := color.YCbCrToRGB(luma.Pix[i], cb[i], cr[i])
		out.Pix[i*4+0] = r
		out.Pix[i*4+1] = g
		out.Pix[i*4+2] = b
		out.Pix[i*4+3] = alpha[i]
	}
	return out
}

// equalizeHist performs global histogram equalization via the standard
// CDF remapping.
func equalizeHist(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	out := image.NewGray(bounds)
	if total == 0 {
		return out
	}

	var hist [grayLevels]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := g.Pix[(y-bounds.Min.Y)*g.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			hist[row[x]]++
		}
	}

	var lut [grayLevels]uint8
	cdf := 0
	// cdfMin anchors the remap so the darkest occupied level maps to 0.
	cdfMin := 0
	for _, c := range hist {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	denom := total - cdfMin
	for v := 0; v < grayLevels; v++ {
		cdf += hist[v]
		if denom <= 0 {
			lut[v] = uint8(v)
			continue
		}
		scaled := float64(cdf-cdfMin) / float64(denom) * float64(grayLevels-1)
		if scaled < 0 {
			scaled = 0
		}
		lut[v] = uint8(scaled + 0.5)
	}

	for y := 0; y < bounds.Dy(); y++ {
		src := g.Pix[y*g.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			dst[x] = lut[src[x]]
		}
	}
	return out
}

// applyCLAHE implements contrast-limited adaptive histogram equalization
// over a tileGrid x tileGrid partition, with clipped histograms and
// bilinear interpolation between neighbouring tile mappings.
func (n *Normalizer) applyCLAHE(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	tiles := n.tileGrid
	if tiles > w {
		tiles = w
	}
	if tiles > h {
		tiles = h
	}
	if tiles < 1 {
		tiles = 1
	}

	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles

	// One LUT per tile.
	luts := make([][grayLevels]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			luts[ty*tiles+tx] = clippedLUT(g, bounds, x0, y0, x1, y1, n.clipLimit)
		}
	}

	// Bilinear interpolation between the four surrounding tile centers.
	for y := 0; y < h; y++ {
		src := g.Pix[y*g.Stride:]
		dst := out.Pix[y*out.Stride:]
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(fy)
		if fy < 0 {
			ty0 = 0
			fy = 0
		}
		ty1 := ty0 + 1
		if ty1 >= tiles {
			ty1 = tiles - 1
		}
		if ty0 >= tiles {
			ty0 = tiles - 1
		}
		wy := fy - float64(ty0)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(fx)
			if fx < 0 {
				tx0 = 0
				fx = 0
			}
			tx1 := tx0 + 1
			if tx1 >= tiles {
				tx1 = tiles - 1
			}
			if tx0 >= tiles {
				tx0 = tiles - 1
			}
			wx := fx - float64(tx0)

			v := src[x]
			tl := float64(luts[ty0*tiles+tx0][v])
			tr := float64(luts[ty0*tiles+tx1][v])
			bl := float64(luts[ty1*tiles+tx0][v])
			br := float64(luts[ty1*tiles+tx1][v])

			top := tl + (tr-tl)*wx
			bot := bl + (br-bl)*wx
			dst[x] = uint8(top + (bot-top)*wy + 0.5)
		}
	}
	return out
}

// clippedLUT builds the equalization LUT for one tile, clipping the
// histogram at clipLimit times the uniform bin height and spreading the
// excess evenly.
func clippedLUT(g *image.Gray, bounds image.Rectangle, x0, y0, x1, y1 int, clipLimit float64) [grayLevels]uint8 {
	var lut [grayLevels]uint8
	area := (x1 - x0) * (y1 - y0)
	if area == 0 {
		for v := range lut {
			lut[v] = uint8(v)
		}
		return lut
	}

	var hist [grayLevels]float64
	for y := y0; y < y1; y++ {
		row := g.Pix[y*g.Stride:]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}

	if clipLimit > 0 {
		limit := clipLimit * float64(area) / grayLevels
		if limit < 1 {
			limit = 1
		}
		excess := 0.0
		for v := range hist {
			if hist[v] > limit {
				excess += hist[v] - limit
				hist[v] = limit
			}
		}
		redist := excess / grayLevels
		for v := range hist {
			hist[v] += redist
		}
	}

	cdf := 0.0
	for v := 0; v < grayLevels; v++ {
		cdf += hist[v]
		scaled := cdf / float64(area) * float64(grayLevels-1)
		if scaled > grayLevels-1 {
			scaled = grayLevels - 1
		}
		lut[v] = uint8(scaled + 0.5)
	}
	return lut
}
