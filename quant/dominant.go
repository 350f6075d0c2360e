package quant

import (
	"image/color"
	"math"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
)

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// dominantPalette builds a palette from a fast downsampled dominant-color
// scan, then thins the candidates down to size diverse entries. The scan
// ignores alpha, so the resulting palette is opaque.
func dominantPalette(pixels []Color, width, size int) (Palette, error) {
	nCandidates := max(24, size*8)
	candidates := dominantcolor.FindWeight(toNRGBA(pixels, width), nCandidates)
	if len(candidates) == 0 {
		// Last resort: avoid an empty palette that would break mapping.
		candidates = append(candidates, dominantcolor.Color{
			RGBA:   color.RGBA{R: 128, G: 128, B: 128, A: 255},
			Weight: 1.0,
		})
	}

	weighted := make([]weightedColor, 0, len(candidates))
	for _, c := range candidates {
		col, _ := colorful.MakeColor(c.RGBA)
		w := c.Weight
		if w <= 0 {
			w = 1e-6
		}
		weighted = append(weighted, weightedColor{col: col.Clamped(), weight: w})
	}
	return selectDiverseWeighted(weighted, size), nil
}

// selectDiverseWeighted greedily picks k colors, seeding with the heaviest
// candidate and then maximizing Lab distance to the picked set, scaled by
// candidate weight so dominant tones stay favored.
func selectDiverseWeighted(cands []weightedColor, k int) Palette {
	if k <= 0 || len(cands) == 0 {
		return nil
	}
	type item struct {
		col colorful.Color
		lab [3]float64
		w   float64
	}
	items := make([]item, 0, len(cands))
	maxW := 0.0
	for _, c := range cands {
		l, a, b := c.col.Lab()
		if c.weight > maxW {
			maxW = c.weight
		}
		items = append(items, item{col: c.col, lab: [3]float64{l, a, b}, w: c.weight})
	}
	if k > len(items) {
		k = len(items)
	}
	if maxW <= 0 {
		maxW = 1.0
	}

	selectedIdx := make([]int, 0, k)
	selected := make([]bool, len(items))

	bestSeed := 0
	for i := 1; i < len(items); i++ {
		if items[i].w > items[bestSeed].w {
			bestSeed = i
		}
	}
	selectedIdx = append(selectedIdx, bestSeed)
	selected[bestSeed] = true

	for len(selectedIdx) < k {
		bestIdx := -1
		bestScore := -1.0
		for i := range items {
			if selected[i] {
				continue
			}
			minD2 := math.MaxFloat64
			for _, s := range selectedIdx {
				d0 := items[i].lab[0] - items[s].lab[0]
				d1 := items[i].lab[1] - items[s].lab[1]
				d2 := items[i].lab[2] - items[s].lab[2]
				d2v := d0*d0 + d1*d1 + d2*d2
				if d2v < minD2 {
					minD2 = d2v
				}
			}
			normW := items[i].w / maxW
			score := math.Sqrt(minD2) * (0.55 + 0.45*math.Sqrt(normW))
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected[bestIdx] = true
		selectedIdx = append(selectedIdx, bestIdx)
	}

	pal := make(Palette, 0, len(selectedIdx))
	for _, idx := range selectedIdx {
		r, g, b := items[idx].col.RGB255()
		pal = append(pal, Color{R: r, G: g, B: b, A: 255})
	}
	return pal
}
