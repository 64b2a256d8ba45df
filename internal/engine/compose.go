package engine

import (
	"math"

	"RegimeCast/internal/domain/models"
)

// Operand is one composition input: the binary output vector of an operation
// plus the aligned source series it was computed from. The source is only
// consulted by the divergence operator.
type Operand struct {
	Vector []int
	Source []float64
}

// ResultKind distinguishes the two output shapes of composition operators.
type ResultKind string

const (
	KindVector ResultKind = "vector"
	KindScalar ResultKind = "scalar"
)

// Result is the outcome of a composition. Callers branch on Kind: mean_round,
// consensus, and none produce binary vectors; directional_difference produces
// a signed vector in {-1,0,1}; divergence produces a single scalar.
type Result struct {
	Kind   ResultKind
	Vector []int
	Scalar float64
}

// Compose combines equal-length operand vectors under the named operator.
//
// Operand lengths are an internal invariant: alignment runs before
// composition, so a LengthMismatch here is fatal, not user-recoverable.
func Compose(op models.Operator, operands []Operand) (Result, error) {
	if err := checkOperandCount(op, len(operands)); err != nil {
		return Result{}, err
	}
	if err := checkOperandLengths(operands); err != nil {
		return Result{}, err
	}

	switch op {
	case models.OpNone:
		return Result{Kind: KindVector, Vector: operands[0].Vector}, nil
	case models.OpMeanRound:
		return Result{Kind: KindVector, Vector: meanRound(operands)}, nil
	case models.OpConsensus:
		return Result{Kind: KindVector, Vector: consensus(operands)}, nil
	case models.OpDirectionalDifference:
		return Result{Kind: KindVector, Vector: directionalDifference(operands[0], operands[1])}, nil
	case models.OpDivergence:
		return Result{Kind: KindScalar, Scalar: divergence(operands[0].Source, operands[1].Source)}, nil
	default:
		return Result{}, Errf(CodeInvalidPlanSchema, "unknown composition operator %q", op)
	}
}

func checkOperandCount(op models.Operator, n int) error {
	switch op {
	case models.OpNone:
		if n != 1 {
			return Errf(CodeOperandCountMismatch, "operator %q requires exactly 1 operand, got %d", op, n)
		}
	case models.OpDirectionalDifference, models.OpDivergence:
		if n != 2 {
			return Errf(CodeOperandCountMismatch, "operator %q requires exactly 2 operands, got %d", op, n)
		}
	default:
		if n < 2 {
			return Errf(CodeOperandCountMismatch, "operator %q requires at least 2 operands, got %d", op, n)
		}
	}
	return nil
}

func checkOperandLengths(operands []Operand) error {
	n := len(operands[0].Vector)
	for i, o := range operands[1:] {
		if len(o.Vector) != n {
			return Errf(CodeLengthMismatch,
				"operand %d length %d differs from operand 0 length %d", i+1, len(o.Vector), n)
		}
	}
	return nil
}

// meanRound takes the elementwise mean across operands, rounded to nearest
// integer with ties rounding to 1. All inputs are binary so the result is
// binary by construction.
func meanRound(operands []Operand) []int {
	n := len(operands[0].Vector)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		sum := 0
		for _, o := range operands {
			sum += o.Vector[i]
		}
		// 2*sum >= count is mean >= 0.5, which rounds the exact-half tie up.
		if 2*sum >= len(operands) {
			out[i] = 1
		}
	}
	return out
}

// consensus is the strict agreement gate: 1 only where every operand is 1.
func consensus(operands []Operand) []int {
	n := len(operands[0].Vector)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		all := 1
		for _, o := range operands {
			if o.Vector[i] == 0 {
				all = 0
				break
			}
		}
		out[i] = all
	}
	return out
}

// directionalDifference subtracts the short leg from the long leg, producing
// {-1,0,1}. The signed output is a documented exception to the binary
// invariant.
func directionalDifference(long, short Operand) []int {
	out := make([]int, len(long.Vector))
	for i := range out {
		out[i] = long.Vector[i] - short.Vector[i]
	}
	return out
}

const ordinalPatternOrder = 3

// divergence measures the dissimilarity between the ordinal-pattern
// distributions of the two operands' source series: the Jensen-Shannon
// distance over order-3 permutation pattern histograms. Scalar in [0,1];
// 0 means identical pattern statistics.
func divergence(a, b []float64) float64 {
	pa := ordinalPatternDistribution(a)
	pb := ordinalPatternDistribution(b)
	return math.Sqrt(jensenShannon(pa, pb))
}

// ordinalPatternDistribution builds the empirical distribution of order-3
// permutation patterns over short sliding windows.
func ordinalPatternDistribution(series []float64) []float64 {
	// 3! possible patterns
	counts := make([]float64, 6)
	total := 0.0
	for i := 0; i+ordinalPatternOrder <= len(series); i++ {
		w := series[i : i+ordinalPatternOrder]
		counts[permutationIndex(w)]++
		total++
	}
	if total == 0 {
		return counts
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

// permutationIndex maps a length-3 window to its rank-pattern index in [0,6).
// Equal values rank by position, keeping the encoding total.
func permutationIndex(w []float64) int {
	r0, r1, r2 := 0, 0, 0
	if w[1] < w[0] {
		r0++
	} else {
		r1++
	}
	if w[2] < w[0] {
		r0++
	} else {
		r2++
	}
	if w[2] < w[1] {
		r1++
	} else {
		r2++
	}
	// Lehmer-style code of the rank triple
	return r0*2 + map3(r1, r2)
}

func map3(r1, r2 int) int {
	if r1 < r2 {
		return 0
	}
	return 1
}

// jensenShannon computes the Jensen-Shannon divergence (base-2 logs, bounded
// [0,1]) between two distributions of equal support.
func jensenShannon(p, q []float64) float64 {
	js := 0.0
	for i := range p {
		m := (p[i] + q[i]) / 2
		if p[i] > 0 && m > 0 {
			js += p[i] / 2 * math.Log2(p[i]/m)
		}
		if q[i] > 0 && m > 0 {
			js += q[i] / 2 * math.Log2(q[i]/m)
		}
	}
	if js < 0 {
		return 0
	}
	return js
}
