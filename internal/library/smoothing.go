package library

const smoothWindow = 3

// MajoritySmooth flattens single-bar flickers by replacing each value with
// the majority vote of a centered window. Edges keep their rounded value.
func MajoritySmooth(series []float64) ([]int, error) {
	out := make([]int, len(series))
	for i, v := range series {
		if v > 0.5 {
			out[i] = 1
		}
	}
	if len(series) < smoothWindow {
		return out, nil
	}

	half := smoothWindow / 2
	smoothed := make([]int, len(series))
	copy(smoothed, out)
	for i := half; i < len(out)-half; i++ {
		sum := 0
		for j := i - half; j <= i+half; j++ {
			sum += out[j]
		}
		if 2*sum >= smoothWindow {
			smoothed[i] = 1
		} else {
			smoothed[i] = 0
		}
	}
	return smoothed, nil
}
