// Package utils holds the image I/O and pixel-buffer helpers shared by
// the command line tool and examples: decoding, buffer conversion, PNG
// compression-level mapping and small palette utilities.
package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"slices"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/setanarut/minpal/quant"
)

// ErrCodec reports a decode or encode failure from the raster codec.
var ErrCodec = errors.New("codec failure")

// ReadImage decodes the image at path, honoring EXIF orientation.
func ReadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCodec, path, err)
	}
	return img, nil
}

// ReadPixels decodes the image at path into a row-major RGBA buffer.
func ReadPixels(path string) ([]quant.Color, int, int, error) {
	img, err := ReadImage(path)
	if err != nil {
		return nil, 0, 0, err
	}
	pixels, w, h := ToColors(img)
	return pixels, w, h, nil
}

// ToColors flattens any image into a row-major RGBA buffer with its
// width and height. Colors are non-premultiplied.
func ToColors(img image.Image) ([]quant.Color, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]quant.Color, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			pixels = append(pixels, quant.Color{R: c.R, G: c.G, B: c.B, A: c.A})
		}
	}
	return pixels, w, h
}

// ToImage turns a pixel buffer back into an NRGBA image.
func ToImage(pixels []quant.Color, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range pixels {
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

// ToPaletted turns an indexed image into an image.Paletted, which the PNG
// encoder writes as an indexed-color file.
func ToPaletted(pal quant.Palette, index []uint8, w, h int) *image.Paletted {
	cp := make(color.Palette, len(pal))
	for i, c := range pal {
		cp[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	img := image.NewPaletted(image.Rect(0, 0, w, h), cp)
	copy(img.Pix, index)
	return img
}

// CompressionLevel maps the 0-6 optimization-level knob onto the
// compression levels image/png understands.
func CompressionLevel(level int) (png.CompressionLevel, error) {
	switch level {
	case 0:
		return png.NoCompression, nil
	case 1, 2:
		return png.BestSpeed, nil
	case 3, 4:
		return png.DefaultCompression, nil
	case 5, 6:
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("compression level must be 0-6, got %d", level)
	}
}

// WritePNG encodes img at the given 0-6 level. The encoder writes no
// ancillary chunks, so output is already metadata-free.
func WritePNG(w io.Writer, img image.Image, level int) error {
	cl, err := CompressionLevel(level)
	if err != nil {
		return err
	}
	if err := (&png.Encoder{CompressionLevel: cl}).Encode(w, img); err != nil {
		return fmt.Errorf("%w: encode: %v", ErrCodec, err)
	}
	return nil
}

// SavePNG writes img to path at the given 0-6 level.
func SavePNG(path string, img image.Image, level int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	defer f.Close()
	return WritePNG(f, img, level)
}

// OptimizeAlpha zeroes the color channels of fully transparent pixels in
// place. Invisible either way, but uniform values compress better.
func OptimizeAlpha(pixels []quant.Color) {
	for i, c := range pixels {
		if c.A == 0 {
			pixels[i] = quant.Color{}
		}
	}
}

// SortPalette orders palette entries from darkest to brightest by linear
// luminance and rewrites the index buffer to match, so the rendered image
// is unchanged.
func SortPalette(pal quant.Palette, index []uint8) {
	type entry struct {
		c   quant.Color
		old int
	}
	entries := make([]entry, len(pal))
	for i, c := range pal {
		entries[i] = entry{c: c, old: i}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		ya := luminance(a.c)
		yb := luminance(b.c)
		if ya < yb {
			return -1
		}
		if ya > yb {
			return 1
		}
		return 0
	})
	remap := make([]uint8, len(pal))
	for newPos, e := range entries {
		pal[newPos] = e.c
		remap[e.old] = uint8(newPos)
	}
	for i, x := range index {
		index[i] = remap[x]
	}
}

func luminance(c quant.Color) float64 {
	col := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	r, g, b := col.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
