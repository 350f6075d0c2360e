// Package minpal shrinks the palette of an RGBA image to the smallest
// size whose perceptual error stays inside a caller-supplied CIE76
// Delta-E budget. It is a lossy preprocessing stage for a lossless PNG
// pass: fewer distinct colors compress better, and the budget bounds how
// far the image may drift visually.
//
// Three reduction modes are available. ModeBisect re-clusters the image
// at every candidate palette size and bisects to the minimal acceptable
// one. ModeCoverage and ModePrune cluster once at 256 colors and then
// truncate that palette, by pixel-frequency coverage or by worst-case
// remap distance.
package minpal

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/setanarut/minpal/quant"
)

// ErrValidation reports a malformed or out-of-range parameter. Parameter
// validation runs before any pixel processing; no partial work is done.
var ErrValidation = errors.New("invalid parameter")

// Mode selects the palette-reduction policy.
type Mode int

const (
	// ModeBisect searches for the minimal palette size by re-clustering
	// at every candidate size.
	ModeBisect Mode = iota
	// ModeCoverage clusters once at 256 colors and keeps the most
	// frequent entries covering 1-LossyFraction of all pixels.
	ModeCoverage
	// ModePrune clusters once at 256 colors and binary-searches the
	// retained entry count against the worst-case remap distance.
	ModePrune
)

var modeNames = map[string]Mode{
	"bisect":   ModeBisect,
	"search":   ModeBisect,
	"coverage": ModeCoverage,
	"prune":    ModePrune,
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	m, ok := modeNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: mode %q", ErrValidation, name)
	}
	return m, nil
}

func (m Mode) String() string {
	switch m {
	case ModeCoverage:
		return "coverage"
	case ModePrune:
		return "prune"
	default:
		return "bisect"
	}
}

// Options configures one palette reduction.
type Options struct {
	// Mode selects the reduction policy.
	Mode Mode
	// MaxDeltaE is the perceptual error budget in CIE76 Delta-E units,
	// used by ModeBisect and ModePrune. 0 means lossless: ModeBisect
	// returns the input unchanged.
	MaxDeltaE float64
	// LossyFraction in [0,1] is the pixel share ModeCoverage may hand to
	// remapped palette entries.
	LossyFraction float64
	// Optimizer picks the clustering strategy.
	Optimizer quant.Optimizer
	// Ditherer picks the mapping strategy for the delivered output. The
	// bisection itself always measures without dithering.
	Ditherer quant.Ditherer
}

// DefaultOptions returns the settings the command line tool starts from.
func DefaultOptions() Options {
	return Options{
		Mode:      ModeBisect,
		Optimizer: quant.OptimizerKMeans,
		Ditherer:  quant.DithererFloydSteinberg,
	}
}

// Validate checks every parameter before any pixel work.
func (o Options) Validate() error {
	if err := validateBudget(o.MaxDeltaE); err != nil {
		return err
	}
	if math.IsNaN(o.LossyFraction) || o.LossyFraction < 0 || o.LossyFraction > 1 {
		return fmt.Errorf("%w: lossy fraction %v outside [0,1]", ErrValidation, o.LossyFraction)
	}
	switch o.Mode {
	case ModeBisect, ModeCoverage, ModePrune:
	default:
		return fmt.Errorf("%w: mode %d", ErrValidation, int(o.Mode))
	}
	return nil
}

func validateBudget(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: budget must be finite, got %v", ErrValidation, v)
	}
	if v < 0 {
		return fmt.Errorf("%w: budget must be non-negative, got %v", ErrValidation, v)
	}
	return nil
}

// Preprocess reduces the palette of a row-major RGBA pixel buffer
// according to opts and returns the reduced image. With ModeBisect and a
// zero budget the input is passed through untouched, Pixels aliasing the
// input buffer.
func Preprocess(pixels []quant.Color, width int, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(pixels) == 0 {
		return &Result{}, nil
	}

	switch opts.Mode {
	case ModeCoverage:
		pal, index, err := quant.Quantize(pixels, width, quant.MaxPaletteSize, opts.Optimizer, opts.Ditherer)
		if err != nil {
			return nil, err
		}
		pal, index, err = ReduceByCoverage(pal, index, opts.LossyFraction)
		if err != nil {
			return nil, err
		}
		return &Result{
			Palette: pal,
			Index:   index,
			Pixels:  quant.Render(nil, pal, index),
			Size:    len(pal),
			Steps:   1,
		}, nil

	case ModePrune:
		// The prune policy scores exact palette-to-palette distances, so
		// the base quantization must stay dither-free.
		pal, index, err := quant.Quantize(pixels, width, quant.MaxPaletteSize, opts.Optimizer, quant.DithererNone)
		if err != nil {
			return nil, err
		}
		pal, index, worst, err := ReduceByThreshold(pal, index, opts.MaxDeltaE)
		if err != nil {
			return nil, err
		}
		return &Result{
			Palette: pal,
			Index:   index,
			Pixels:  quant.Render(nil, pal, index),
			Size:    len(pal),
			DeltaE:  worst,
			Steps:   1,
		}, nil

	default:
		if opts.MaxDeltaE == 0 {
			// Lossless: the palette search is disabled.
			return &Result{Pixels: pixels}, nil
		}
		s := &Searcher{Budget: opts.MaxDeltaE, Optimizer: opts.Optimizer, Ditherer: opts.Ditherer}
		return s.Run(pixels, width)
	}
}
