package minpal

import (
	"fmt"

	"github.com/setanarut/minpal/quant"
)

// Searcher finds the smallest palette size whose grouped-percentile error
// stays within Budget, bisecting over candidate sizes. Every step
// quantizes without dithering: dithering injects pixel-to-pixel noise that
// breaks the one-source-color-to-one-quantized-color assumption the
// grouping metric relies on. The found size is then re-quantized with the
// configured Ditherer for the delivered output.
//
// The search assumes the metric is non-increasing in palette size. The
// underlying clustering is heuristic and not guaranteed monotonic, so this
// is an approximation; see DESIGN.md.
//
// A Searcher holds reusable scratch state and is not safe for concurrent
// use. Independent images in a batch should each run their own Searcher.
type Searcher struct {
	Budget    float64
	Optimizer quant.Optimizer
	Ditherer  quant.Ditherer

	samples []int
	srcLab  []Lab
	keys    []uint32
	flat    []quant.Color
	metric  *Metric
}

// Result is the outcome of one palette search or remap.
type Result struct {
	// Palette and Index form the delivered indexed image.
	Palette quant.Palette
	Index   []uint8
	// Pixels is the flattened output buffer, parallel to the input.
	Pixels []quant.Color
	// Size is the palette size the search settled on.
	Size int
	// DeltaE is the grouped-percentile score of the last accepted
	// no-dither candidate; the dithered finalization is not re-measured.
	DeltaE float64
	// Steps counts quantize-and-measure evaluations performed.
	Steps int
}

// NewSearcher validates the budget and returns a ready Searcher.
func NewSearcher(budget float64, opt quant.Optimizer, dit quant.Ditherer) (*Searcher, error) {
	if err := validateBudget(budget); err != nil {
		return nil, err
	}
	return &Searcher{Budget: budget, Optimizer: opt, Ditherer: dit}, nil
}

// Run quantizes pixels down to the minimal acceptable palette size.
// It degrades gracefully: if even 256 colors exceed the budget, the most
// permissive size tried (256) is delivered.
func (s *Searcher) Run(pixels []quant.Color, width int) (*Result, error) {
	if err := validateBudget(s.Budget); err != nil {
		return nil, err
	}
	if len(pixels) == 0 {
		return &Result{}, nil
	}
	s.prepare(pixels)

	// Probe at the ceiling first. If even 256 colors miss the budget
	// there is nothing to search; otherwise the number of colors the
	// probe actually used is a tighter upper bound, since searching
	// above it cannot improve the metric.
	pal, index, err := quant.Quantize(pixels, width, quant.MaxPaletteSize, s.Optimizer, quant.DithererNone)
	if err != nil {
		return nil, fmt.Errorf("probe quantization: %w", err)
	}
	s.flat = quant.Render(s.flat, pal, index)
	accepted := s.metric.GroupedPercentile(s.srcLab, s.keys, s.flat, s.samples)
	steps := 1

	var n int
	if accepted > s.Budget {
		n = quant.MaxPaletteSize
	} else {
		lo, hi := 1, quant.CountUsed(pal, index)
		for lo < hi {
			mid := (lo + hi) / 2
			pal, index, err = quant.Quantize(pixels, width, mid, s.Optimizer, quant.DithererNone)
			if err != nil {
				return nil, fmt.Errorf("quantization at %d colors: %w", mid, err)
			}
			s.flat = quant.Render(s.flat, pal, index)
			de := s.metric.GroupedPercentile(s.srcLab, s.keys, s.flat, s.samples)
			steps++
			if de <= s.Budget {
				hi = mid
				accepted = de
			} else {
				lo = mid + 1
			}
		}
		n = lo
	}

	// Deliver the found size with full quality settings.
	pal, index, err = quant.Quantize(pixels, width, n, s.Optimizer, s.Ditherer)
	if err != nil {
		return nil, fmt.Errorf("final quantization at %d colors: %w", n, err)
	}
	return &Result{
		Palette: pal,
		Index:   index,
		Pixels:  quant.Render(nil, pal, index),
		Size:    n,
		DeltaE:  accepted,
		Steps:   steps,
	}, nil
}

// prepare computes the sample set and the per-sample source Lab values and
// color keys once; every bisection step reuses them.
func (s *Searcher) prepare(pixels []quant.Color) {
	s.samples = SampleIndices(len(pixels), MaxSampleCount)
	if cap(s.srcLab) < len(s.samples) {
		s.srcLab = make([]Lab, len(s.samples))
		s.keys = make([]uint32, len(s.samples))
	}
	s.srcLab = s.srcLab[:len(s.samples)]
	s.keys = s.keys[:len(s.samples)]
	for j, i := range s.samples {
		s.srcLab[j] = LabFromColor(pixels[i])
		s.keys[j] = pixels[i].Key()
	}
	if s.metric == nil {
		s.metric = NewMetric(len(s.samples) / 8)
	}
}
