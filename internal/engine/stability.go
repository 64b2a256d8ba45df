package engine

import (
	"context"
	"math"
)

// LoopState is the stability controller state machine.
type LoopState string

const (
	StateRunning       LoopState = "RUNNING"
	StateConverged     LoopState = "CONVERGED"
	StateHaltedBreaker LoopState = "HALTED_BREAKER"
)

// cycleHistory is how many recent vectors the loop keeps for oscillation
// detection. Two previous states suffice to catch a 2-cycle.
const cycleHistory = 3

// StabilityConfig bounds the recursive loop.
type StabilityConfig struct {
	MaxIterations     int
	ThresholdFraction float64
}

// IterationState is the loop's mutable state, surfaced to observers between
// iterations and discarded after the loop ends.
type IterationState struct {
	Iteration int       `json:"iteration"`
	Hamming   int       `json:"hamming_distance"`
	State     LoopState `json:"state"`
}

// LoopResult is what survives of the loop after it terminates.
type LoopResult struct {
	Final      []int
	Iterations int
	Hamming    int
	Converged  bool
	State      LoopState
}

// StepFunc re-applies a signal function to the loop's current vector. The
// binary vector is reinterpreted as the function's input series.
type StepFunc func(ctx context.Context, series []float64) ([]int, error)

// HammingDistance counts positions at which two equal-length binary vectors
// differ.
func HammingDistance(a, b []int) (int, error) {
	if len(a) != len(b) {
		return 0, Errf(CodeLengthMismatch, "vectors of length %d and %d", len(a), len(b))
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// converged reports material stability: an exact fixed point, or a change
// below the fractional threshold of the vector length.
func (c StabilityConfig) converged(dh, length int) bool {
	if dh == 0 {
		return true
	}
	return dh < int(math.Ceil(c.ThresholdFraction*float64(length)))
}

// RunStabilityLoop drives the recursive self-application of step to initial
// until the vector stabilizes or the circuit breaker trips.
//
// The breaker trips on the iteration cap, and immediately on a detected
// 2-cycle oscillation (next equals the vector from two iterations prior): an
// oscillation will never converge, so waiting out max iterations only wastes
// work. A HALTED_BREAKER outcome is a valid terminal state, reported with
// Converged=false and never upgraded to a converged-looking result.
func RunStabilityLoop(ctx context.Context, initial []int, step StepFunc, cfg StabilityConfig, observers ...func(IterationState)) (LoopResult, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.ThresholdFraction <= 0 {
		cfg.ThresholdFraction = 0.01
	}

	current := initial
	history := [][]int{initial}
	res := LoopResult{Final: initial, State: StateRunning}

	for res.Iterations < cfg.MaxIterations {
		// Cancellation point between iterations: no partial receipt is ever
		// emitted for a cancelled run.
		if err := ctx.Err(); err != nil {
			return LoopResult{}, err
		}

		next, err := step(ctx, toFloats(current))
		if err != nil {
			return LoopResult{}, err
		}

		dh, err := HammingDistance(next, current)
		if err != nil {
			return LoopResult{}, err
		}

		res.Iterations++
		res.Hamming = dh
		res.Final = next

		if cfg.converged(dh, len(next)) {
			res.State = StateConverged
			res.Converged = true
			notify(observers, IterationState{Iteration: res.Iterations, Hamming: dh, State: res.State})
			return res, nil
		}

		if oscillating(next, history) {
			res.State = StateHaltedBreaker
			notify(observers, IterationState{Iteration: res.Iterations, Hamming: dh, State: res.State})
			return res, nil
		}

		notify(observers, IterationState{Iteration: res.Iterations, Hamming: dh, State: StateRunning})

		history = append(history, next)
		if len(history) > cycleHistory {
			history = history[1:]
		}
		current = next
	}

	res.State = StateHaltedBreaker
	return res, nil
}

// oscillating detects a 2-cycle: next equals the vector from two iterations
// prior rather than drifting toward convergence.
func oscillating(next []int, history [][]int) bool {
	if len(history) < 2 {
		return false
	}
	prev2 := history[len(history)-2]
	if len(prev2) != len(next) {
		return false
	}
	for i := range next {
		if next[i] != prev2[i] {
			return false
		}
	}
	return true
}

func notify(observers []func(IterationState), st IterationState) {
	for _, o := range observers {
		o(st)
	}
}

func toFloats(v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
