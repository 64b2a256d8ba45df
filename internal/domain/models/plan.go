package models

import "time"

// Operator names a composition rule. XOR is deliberately absent from this set:
// it discards directional information and amplifies noise when inputs disagree
// by chance. Disagreement-style requests map to directional_difference or
// divergence instead.
type Operator string

const (
	OpMeanRound             Operator = "mean_round"
	OpConsensus             Operator = "consensus"
	OpDirectionalDifference Operator = "directional_difference"
	OpDivergence            Operator = "divergence"
	OpNone                  Operator = "none"
)

// KnownOperator reports whether op is in the closed operator set.
func KnownOperator(op Operator) bool {
	switch op {
	case OpMeanRound, OpConsensus, OpDirectionalDifference, OpDivergence, OpNone:
		return true
	default:
		return false
	}
}

// Operation is one dispatch of a registered signal function over a named data
// source reference. References name a source; they never carry inline data.
type Operation struct {
	Function string `json:"function"`
	Input    string `json:"input"`
}

// CompositionSpec names the operator applied across operation outputs.
// Operand order follows operation order; it matters for
// directional_difference (first operand is the "long" leg).
type CompositionSpec struct {
	Operator Operator `json:"operator"`
}

// StabilityRequest asks the engine to re-apply a stabilizer function to the
// composed vector until it reaches a fixed point or the breaker trips.
type StabilityRequest struct {
	MaxIterations     int     `json:"max_iterations"`
	ThresholdFraction float64 `json:"threshold_fraction"`
	Stabilizer        string  `json:"stabilizer"`
}

// ExecutionPlan is the structured document handed over by the semantic router.
// Immutable once handed to the engine.
type ExecutionPlan struct {
	Operations  []Operation       `json:"operations"`
	Composition CompositionSpec   `json:"composition"`
	Stability   *StabilityRequest `json:"stability,omitempty"`
	AsOf        time.Time         `json:"as_of"`
}
