package minpal

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/setanarut/minpal/quant"
)

// Metric scores a candidate quantization against the source image. Its
// scratch storage is cleared and reused between evaluations, so a Metric
// is not safe for concurrent use; independent searches each own one.
type Metric struct {
	maxByColor map[uint32]float64
	groupMax   []float64
}

// NewMetric returns a metric with scratch storage pre-sized for about
// hint distinct colors.
func NewMetric(hint int) *Metric {
	if hint < 16 {
		hint = 16
	}
	return &Metric{
		maxByColor: make(map[uint32]float64, hint),
		groupMax:   make([]float64, 0, hint),
	}
}

// GroupedPercentile computes the 95th percentile of per-unique-color
// maximum Delta-E. Sampled positions are grouped by the source pixel's
// color key, so a dominant flat region casts exactly one vote no matter
// how many pixels it covers; within a group the worst difference is kept,
// and the percentile over group maxima tolerates a few outlier colors
// without letting them force the palette to grow.
//
// srcLab and keys are precomputed from the source pixels, one entry per
// sampled position in the same order as samples. candidate is the full
// quantized pixel buffer. Returns 0 when the sample set is empty.
func (m *Metric) GroupedPercentile(srcLab []Lab, keys []uint32, candidate []quant.Color, samples []int) float64 {
	clear(m.maxByColor)
	for j, i := range samples {
		de := DeltaE(srcLab[j], LabFromColor(candidate[i]))
		if de > m.maxByColor[keys[j]] {
			m.maxByColor[keys[j]] = de
		}
	}
	if len(m.maxByColor) == 0 {
		return 0
	}
	m.groupMax = m.groupMax[:0]
	for _, de := range m.maxByColor {
		m.groupMax = append(m.groupMax, de)
	}
	sort.Float64s(m.groupMax)
	// Empirical quantile of the sorted group maxima: the value at rank
	// ceil(0.95*n)-1.
	return stat.Quantile(0.95, stat.Empirical, m.groupMax, nil)
}
