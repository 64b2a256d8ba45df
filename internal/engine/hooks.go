package engine

import (
	"fmt"
	"math"
)

// PreHook validates a series before it reaches a signal function.
type PreHook func(function string, series []float64) error

// PostHook validates a function's output against the uniform contract. A
// failing post hook routes the dispatch into the bounded retry path, never a
// silent pass-through.
type PostHook func(function string, series []float64, out []int) error

// Hooks are the deterministic lifecycle validators invoked around each
// dispatch.
type Hooks struct {
	Pre  []PreHook
	Post []PostHook
}

// DefaultHooks returns the standard pre/post validator set.
func DefaultHooks() Hooks {
	return Hooks{
		Pre:  []PreHook{validateInputHook},
		Post: []PostHook{validateOutputHook},
	}
}

func (h Hooks) runPre(function string, series []float64) error {
	for _, hook := range h.Pre {
		if err := hook(function, series); err != nil {
			return err
		}
	}
	return nil
}

func (h Hooks) runPost(function string, series []float64, out []int) error {
	for _, hook := range h.Post {
		if err := hook(function, series, out); err != nil {
			return err
		}
	}
	return nil
}

func validateInputHook(function string, series []float64) error {
	if err := ValidateInput(series); err != nil {
		return Wrap(CodeInvalidPlanSchema, err, "pre-call hook failed for "+function)
	}
	return nil
}

func validateOutputHook(function string, series []float64, out []int) error {
	if err := ValidateBinaryContract(out, len(series)); err != nil {
		return Wrap(CodeContractViolation, err, "post-call hook failed for "+function)
	}
	return nil
}

// ValidateInput checks that a series is usable as signal function input:
// at least 2 finite values.
func ValidateInput(series []float64) error {
	if len(series) < 2 {
		return fmt.Errorf("input must have at least 2 data points, got %d", len(series))
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("input contains NaN or Inf at index %d", i)
		}
	}
	return nil
}

// ValidateBinaryContract checks that out is a binary vector of length n.
func ValidateBinaryContract(out []int, n int) error {
	if len(out) != n {
		return fmt.Errorf("output length (%d) does not match input length (%d)", len(out), n)
	}
	for i, v := range out {
		if v != 0 && v != 1 {
			return fmt.Errorf("output must contain only binary values, got %d at index %d", v, i)
		}
	}
	return nil
}
