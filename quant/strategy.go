package quant

import (
	"fmt"
	"strings"
)

// Optimizer selects how representative palette colors are chosen from the
// pixel population.
type Optimizer int

const (
	// OptimizerNone keeps the most frequent distinct colors without any
	// iterative refinement.
	OptimizerNone Optimizer = iota
	// OptimizerKMeans clusters a strided pixel sample with k-means.
	OptimizerKMeans
	// OptimizerWeightedKMeans clusters distinct colors replicated in
	// proportion to their pixel share.
	OptimizerWeightedKMeans
	// OptimizerDominant picks diverse dominant colors from a fast
	// downsampled scan.
	OptimizerDominant
)

var optimizerNames = map[string]Optimizer{
	"none":             OptimizerNone,
	"kmeans":           OptimizerKMeans,
	"k-means":          OptimizerKMeans,
	"weighted-kmeans":  OptimizerWeightedKMeans,
	"weighted-k-means": OptimizerWeightedKMeans,
	"dominant":         OptimizerDominant,
}

// ParseOptimizer resolves an optimizer name. Unknown names fail with
// ErrUnknownOption before any quantization work.
func ParseOptimizer(name string) (Optimizer, error) {
	o, ok := optimizerNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: optimizer %q", ErrUnknownOption, name)
	}
	return o, nil
}

func (o Optimizer) String() string {
	switch o {
	case OptimizerKMeans:
		return "k-means"
	case OptimizerWeightedKMeans:
		return "weighted-k-means"
	case OptimizerDominant:
		return "dominant"
	default:
		return "none"
	}
}

func (o Optimizer) buildPalette(pixels []Color, width int, h *histogram, size int) (Palette, error) {
	switch o {
	case OptimizerNone:
		return popularPalette(h, size), nil
	case OptimizerKMeans:
		return kmeansPalette(pixels, size)
	case OptimizerWeightedKMeans:
		return weightedKMeansPalette(h, len(pixels), size)
	case OptimizerDominant:
		return dominantPalette(pixels, width, size)
	default:
		return nil, fmt.Errorf("%w: optimizer %d", ErrUnknownOption, int(o))
	}
}

// Ditherer selects how quantization error is distributed when pixels are
// mapped to the palette.
type Ditherer int

const (
	// DithererNone maps every pixel to its nearest palette entry.
	DithererNone Ditherer = iota
	// DithererOrdered applies an 8x8 Bayer matrix.
	DithererOrdered
	// DithererFloydSteinberg diffuses error with a serpentine scan.
	DithererFloydSteinberg
	// DithererFloydSteinbergVanilla diffuses error in plain scan order.
	DithererFloydSteinbergVanilla
	// DithererFloydSteinbergCheckered diffuses at half strength with a
	// serpentine scan, trading banding for fewer worm artifacts.
	DithererFloydSteinbergCheckered
)

var dithererNames = map[string]Ditherer{
	"none":                      DithererNone,
	"ordered":                   DithererOrdered,
	"floyd-steinberg":           DithererFloydSteinberg,
	"floyd-steinberg-vanilla":   DithererFloydSteinbergVanilla,
	"floyd-steinberg-checkered": DithererFloydSteinbergCheckered,
}

// ParseDitherer resolves a ditherer name. Unknown names fail with
// ErrUnknownOption before any quantization work.
func ParseDitherer(name string) (Ditherer, error) {
	d, ok := dithererNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: ditherer %q", ErrUnknownOption, name)
	}
	return d, nil
}

func (d Ditherer) String() string {
	switch d {
	case DithererOrdered:
		return "ordered"
	case DithererFloydSteinberg:
		return "floyd-steinberg"
	case DithererFloydSteinbergVanilla:
		return "floyd-steinberg-vanilla"
	case DithererFloydSteinbergCheckered:
		return "floyd-steinberg-checkered"
	default:
		return "none"
	}
}
