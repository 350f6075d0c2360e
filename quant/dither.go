package quant

import (
	"fmt"
	"image/color"

	"github.com/makeworld-the-better-one/dither/v2"
)

// ditherIndex maps pixels to palette indices through the configured
// dithering strategy.
func ditherIndex(pixels []Color, width int, pal Palette, dit Ditherer) ([]uint8, error) {
	cp := make([]color.Color, len(pal))
	for i, c := range pal {
		cp[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	d := dither.NewDitherer(cp)

	switch dit {
	case DithererOrdered:
		d.Mapper = dither.Bayer(8, 8, 1.0)
	case DithererFloydSteinberg:
		d.Matrix = dither.FloydSteinberg
		d.Serpentine = true
	case DithererFloydSteinbergVanilla:
		d.Matrix = dither.FloydSteinberg
	case DithererFloydSteinbergCheckered:
		d.Matrix = dither.ErrorDiffusionStrength(dither.FloydSteinberg, 0.5)
		d.Serpentine = true
	default:
		return nil, fmt.Errorf("%w: ditherer %d", ErrUnknownOption, int(dit))
	}

	pi := d.DitherPaletted(toNRGBA(pixels, width))
	index := make([]uint8, len(pi.Pix))
	copy(index, pi.Pix)
	return index, nil
}
