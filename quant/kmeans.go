package quant

import (
	"fmt"
	"math"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// maxObservations bounds the dataset handed to the clusterer so large
// images stay tractable.
const maxObservations = 12000

// popularPalette keeps the size most frequent distinct colors. Ties break
// toward the color seen first.
func popularPalette(h *histogram, size int) Palette {
	order := frequencyOrder(h.counts)
	pal := make(Palette, 0, size)
	for _, i := range order[:size] {
		pal = append(pal, h.colors[i])
	}
	return pal
}

// frequencyOrder returns color positions sorted by count descending,
// ties by position ascending so the ordering is deterministic.
func frequencyOrder(counts []int) []int {
	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	return order
}

func kmeansPalette(pixels []Color, size int) (Palette, error) {
	step := 1
	if len(pixels) > maxObservations {
		step = len(pixels)/maxObservations + 1
	}
	dataset := make(clusters.Observations, 0, maxObservations)
	for i := 0; i < len(pixels); i += step {
		dataset = append(dataset, observation(pixels[i]))
	}
	return partition(dataset, size)
}

// weightedKMeansPalette clusters distinct colors rather than raw pixels,
// replicating each one in proportion to its pixel share so populous colors
// pull centers harder without feeding every pixel into the solver.
func weightedKMeansPalette(h *histogram, total, size int) (Palette, error) {
	dataset := make(clusters.Observations, 0, maxObservations)
	for i, c := range h.colors {
		rep := h.counts[i] * maxObservations / total
		if rep < 1 {
			rep = 1
		}
		if rep > 64 {
			rep = 64
		}
		obs := observation(c)
		for j := 0; j < rep; j++ {
			dataset = append(dataset, obs)
		}
	}
	return partition(dataset, size)
}

func observation(c Color) clusters.Coordinates {
	return clusters.Coordinates{
		float64(c.R) / 255.0,
		float64(c.G) / 255.0,
		float64(c.B) / 255.0,
		float64(c.A) / 255.0,
	}
}

func partition(dataset clusters.Observations, size int) (Palette, error) {
	if size > len(dataset) {
		size = len(dataset)
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, size)
	if err != nil {
		return nil, fmt.Errorf("%w: k-means: %v", ErrClustering, err)
	}
	pal := make(Palette, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 4 {
			continue
		}
		pal = append(pal, Color{
			R: clamp8(c.Center[0]),
			G: clamp8(c.Center[1]),
			B: clamp8(c.Center[2]),
			A: clamp8(c.Center[3]),
		})
	}
	if len(pal) == 0 {
		return nil, fmt.Errorf("%w: empty partition", ErrClustering)
	}
	return pal, nil
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v*255))))
}
