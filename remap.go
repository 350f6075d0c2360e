package minpal

import (
	"fmt"
	"math"
	"sort"

	"github.com/setanarut/minpal/quant"
)

// ReduceByCoverage truncates a palette by pixel-frequency coverage: the
// most frequent entries whose cumulative pixel count reaches
// (1-lossyFraction) of the image are kept (at least one), and every
// dropped entry is remapped to the kept entry nearest by squared distance
// over all four channels, ties to the first kept entry in iteration order.
// It returns the pruned palette and the remapped index buffer.
//
// Compared to the bisection search this costs a single clustering call
// plus one nearest-neighbor pass, at the price of coarser control over
// the achieved error.
func ReduceByCoverage(pal quant.Palette, index []uint8, lossyFraction float64) (quant.Palette, []uint8, error) {
	if math.IsNaN(lossyFraction) || lossyFraction < 0 || lossyFraction > 1 {
		return nil, nil, fmt.Errorf("%w: lossy fraction %v outside [0,1]", ErrValidation, lossyFraction)
	}
	if len(pal) == 0 {
		return nil, nil, nil
	}

	freq := entryFrequencies(index, len(pal))
	order := frequencyOrder(freq)
	target := (1.0 - lossyFraction) * float64(len(index))

	selected := make([]bool, len(pal))
	covered := 0
	for _, e := range order {
		selected[e] = true
		covered += freq[e]
		if float64(covered) >= target {
			break
		}
	}

	return rebuildPruned(pal, index, selected, func(dropped int) int {
		best, bestD := -1, -1
		for e := range pal {
			if !selected[e] {
				continue
			}
			d := rgbaDist2(pal[dropped], pal[e])
			if bestD < 0 || d < bestD {
				bestD = d
				best = e
			}
		}
		return best
	})
}

// ReduceByThreshold truncates a palette down to the minimal retained count
// whose worst-case remap distance stays within the Delta-E budget. Entries
// are ordered by frequency descending; a candidate count N retains the N
// most frequent entries and scores as the maximum Lab distance from any
// dropped entry to its nearest retained one — an exact reconstruction
// bound over the fixed ordering, with no percentile smoothing. Returns the
// pruned palette, the remapped index buffer, and the achieved worst-case
// distance.
//
// Quality is bounded by the initial fixed-size clustering: the palette is
// never re-clustered, only truncated.
func ReduceByThreshold(pal quant.Palette, index []uint8, budget float64) (quant.Palette, []uint8, float64, error) {
	if err := validateBudget(budget); err != nil {
		return nil, nil, 0, err
	}
	if len(pal) == 0 {
		return nil, nil, 0, nil
	}

	freq := entryFrequencies(index, len(pal))
	order := frequencyOrder(freq)
	labs := make([]Lab, len(pal))
	for i, c := range pal {
		labs[i] = LabFromColor(c)
	}

	lo, hi := 1, len(pal)
	for lo < hi {
		mid := (lo + hi) / 2
		if worstPruneDistance(labs, order, mid) <= budget {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	n := lo
	worst := worstPruneDistance(labs, order, n)

	selected := make([]bool, len(pal))
	for _, e := range order[:n] {
		selected[e] = true
	}
	outPal, outIdx, err := rebuildPruned(pal, index, selected, func(dropped int) int {
		best, bestD := -1, math.Inf(1)
		for _, e := range order[:n] {
			if d := DeltaE(labs[dropped], labs[e]); d < bestD {
				bestD = d
				best = e
			}
		}
		return best
	})
	return outPal, outIdx, worst, err
}

// worstPruneDistance is the worst-case-over-retained-palette policy: the
// largest Delta-E any entry outside the n most frequent ones must travel
// to reach its nearest retained entry.
func worstPruneDistance(labs []Lab, order []int, n int) float64 {
	worst := 0.0
	for _, e := range order[n:] {
		best := math.Inf(1)
		for _, r := range order[:n] {
			if d := DeltaE(labs[e], labs[r]); d < best {
				best = d
			}
		}
		if best > worst {
			worst = best
		}
	}
	return worst
}

// rebuildPruned filters the palette down to the selected entries, keeping
// their original relative order, and rewrites the index buffer. nearest
// resolves a dropped entry to the selected entry it should collapse into.
func rebuildPruned(pal quant.Palette, index []uint8, selected []bool, nearest func(dropped int) int) (quant.Palette, []uint8, error) {
	newIdx := make([]uint8, len(pal))
	newPal := make(quant.Palette, 0, len(pal))
	for e := range pal {
		if selected[e] {
			newIdx[e] = uint8(len(newPal))
			newPal = append(newPal, pal[e])
		}
	}
	for e := range pal {
		if !selected[e] {
			newIdx[e] = newIdx[nearest(e)]
		}
	}
	out := make([]uint8, len(index))
	for i, x := range index {
		out[i] = newIdx[x]
	}
	return newPal, out, nil
}

// entryFrequencies counts how many pixels reference each palette entry.
func entryFrequencies(index []uint8, n int) []int {
	freq := make([]int, n)
	for _, x := range index {
		freq[x]++
	}
	return freq
}

// frequencyOrder returns entry positions sorted by frequency descending,
// ties by position ascending.
func frequencyOrder(freq []int) []int {
	order := make([]int, len(freq))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return freq[order[a]] > freq[order[b]]
	})
	return order
}

func rgbaDist2(a, b quant.Color) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	da := int(a.A) - int(b.A)
	return dr*dr + dg*dg + db*db + da*da
}
