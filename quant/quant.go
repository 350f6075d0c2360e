// Package quant builds fixed-size color palettes from RGBA pixel buffers
// and maps every pixel to a palette index. Palette construction is driven
// by a named optimizer strategy and pixel mapping by a named ditherer
// strategy; both are small closed sets dispatched by name.
package quant

import (
	"errors"
	"fmt"
	"image"
)

// MaxPaletteSize is the hard index-color ceiling of the target formats.
const MaxPaletteSize = 256

// Color is one RGBA pixel, 8 bits per channel.
type Color struct {
	R, G, B, A uint8
}

// Key packs the four channels into a 32-bit value losslessly. Two colors
// share a key exactly when all four channels are equal.
func (c Color) Key() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// Palette is an ordered list of colors referenced by index.
type Palette []Color

// Nearest returns the index of the palette entry closest to c by squared
// distance over all four channels. Ties go to the first entry reaching
// the minimum.
func (p Palette) Nearest(c Color) int {
	best := 0
	bestD := -1
	for i, pc := range p {
		dr := int(pc.R) - int(c.R)
		dg := int(pc.G) - int(c.G)
		db := int(pc.B) - int(c.B)
		da := int(pc.A) - int(c.A)
		d := dr*dr + dg*dg + db*db + da*da
		if bestD < 0 || d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}

var (
	// ErrUnknownOption reports an unrecognized optimizer or ditherer name.
	ErrUnknownOption = errors.New("unknown option")
	// ErrClustering reports a failure inside the clustering engine.
	ErrClustering = errors.New("clustering failed")
)

// histogram holds the distinct colors of a pixel buffer in first-appearance
// order, with per-color pixel counts and a key → position lookup.
type histogram struct {
	colors []Color
	counts []int
	pos    map[uint32]int
}

func buildHistogram(pixels []Color) *histogram {
	h := &histogram{pos: make(map[uint32]int, 1024)}
	for _, c := range pixels {
		k := c.Key()
		if i, ok := h.pos[k]; ok {
			h.counts[i]++
			continue
		}
		h.pos[k] = len(h.colors)
		h.colors = append(h.colors, c)
		h.counts = append(h.counts, 1)
	}
	return h
}

// Quantize reduces pixels to at most size colors and returns the palette
// together with a per-pixel palette index. size is clamped to
// [1, MaxPaletteSize]. When the image has no more distinct colors than
// size, the palette is exactly those colors and the mapping is lossless;
// the ditherer is skipped since there is no error to diffuse.
func Quantize(pixels []Color, width, size int, opt Optimizer, dit Ditherer) (Palette, []uint8, error) {
	if len(pixels) == 0 {
		return nil, nil, nil
	}
	if width <= 0 || len(pixels)%width != 0 {
		return nil, nil, fmt.Errorf("quantize: %d pixels do not form rows of width %d", len(pixels), width)
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPaletteSize {
		size = MaxPaletteSize
	}

	h := buildHistogram(pixels)
	if len(h.colors) <= size {
		pal := Palette(append([]Color(nil), h.colors...))
		index := make([]uint8, len(pixels))
		for i, c := range pixels {
			index[i] = uint8(h.pos[c.Key()])
		}
		return pal, index, nil
	}

	pal, err := opt.buildPalette(pixels, width, h, size)
	if err != nil {
		return nil, nil, err
	}
	if dit == DithererNone {
		return pal, nearestIndex(pixels, h, pal), nil
	}
	index, err := ditherIndex(pixels, width, pal, dit)
	if err != nil {
		return nil, nil, err
	}
	return pal, index, nil
}

// nearestIndex maps every pixel to its nearest palette entry, resolving
// each distinct color once through a small LUT.
func nearestIndex(pixels []Color, h *histogram, pal Palette) []uint8 {
	lut := make([]uint8, len(h.colors))
	for i, c := range h.colors {
		lut[i] = uint8(pal.Nearest(c))
	}
	index := make([]uint8, len(pixels))
	for i, c := range pixels {
		index[i] = lut[h.pos[c.Key()]]
	}
	return index
}

// Render flattens an indexed image back into a pixel buffer. dst is reused
// when it has enough capacity.
func Render(dst []Color, pal Palette, index []uint8) []Color {
	if cap(dst) < len(index) {
		dst = make([]Color, len(index))
	}
	dst = dst[:len(index)]
	for i, x := range index {
		dst[i] = pal[x]
	}
	return dst
}

// CountUsed returns how many palette entries the index buffer actually
// references.
func CountUsed(pal Palette, index []uint8) int {
	var seen [MaxPaletteSize]bool
	n := 0
	for _, x := range index {
		if !seen[x] {
			seen[x] = true
			n++
		}
	}
	return n
}

func toNRGBA(pixels []Color, width int) *image.NRGBA {
	h := len(pixels) / width
	img := image.NewNRGBA(image.Rect(0, 0, width, h))
	for i, c := range pixels {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}
