package minpal

// MaxSampleCount caps how many pixel positions are scored per bisection
// step, keeping evaluation cost bounded on large images.
const MaxSampleCount = 50000

// SampleIndices returns strictly increasing pixel positions covering
// [0, total) at a uniform stride of max(1, total/maxSamples), starting at
// position 0. The result depends only on the inputs, so every bisection
// step evaluates the identical sample.
func SampleIndices(total, maxSamples int) []int {
	if total <= 0 || maxSamples <= 0 {
		return nil
	}
	step := total / maxSamples
	if step < 1 {
		step = 1
	}
	idx := make([]int, 0, (total+step-1)/step)
	for i := 0; i < total; i += step {
		idx = append(idx, i)
	}
	return idx
}
