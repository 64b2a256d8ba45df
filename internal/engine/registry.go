package engine

import (
	"sort"
)

// SignalFunc is the uniform contract of a frozen signal function: a pure,
// parameter-less transformation from a real-valued series to a same-length
// binary vector.
type SignalFunc func(series []float64) ([]int, error)

// Registry maps function identifiers to validated handles. Registration
// happens once at process start; the registry is read-only during request
// handling, so concurrent reads need no locking.
type Registry struct {
	funcs map[string]SignalFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]SignalFunc)}
}

// probeSeries is the smoke-test input used to verify the binary contract at
// registration time. A short deterministic random-walk-like vector.
var probeSeries = []float64{
	100.0, 100.8, 101.4, 100.9, 101.7, 102.3, 101.8, 102.6,
	103.1, 102.4, 101.9, 102.8, 103.5, 103.0, 103.9, 104.2,
}

// Register adds a function under id. Fails with DuplicateIdentifier if the id
// is taken, and with InvalidContract if the smoke probe does not return a
// same-length binary vector.
func (r *Registry) Register(id string, fn SignalFunc) error {
	if id == "" {
		return Errf(CodeInvalidContract, "empty function identifier")
	}
	if fn == nil {
		return Errf(CodeInvalidContract, "nil function for %q", id)
	}
	if _, exists := r.funcs[id]; exists {
		return Errf(CodeDuplicateIdentifier, "function %q already registered", id)
	}

	out, err := fn(probeSeries)
	if err != nil {
		return Wrap(CodeInvalidContract, err, "smoke probe failed for "+id)
	}
	if err := ValidateBinaryContract(out, len(probeSeries)); err != nil {
		return Wrap(CodeInvalidContract, err, "smoke probe output invalid for "+id)
	}

	r.funcs[id] = fn
	return nil
}

// Resolve returns the function registered under id, failing with
// UnknownFunction if absent.
func (r *Registry) Resolve(id string) (SignalFunc, error) {
	fn, ok := r.funcs[id]
	if !ok {
		return nil, Errf(CodeUnknownFunction, "function %q not found in registry", id)
	}
	return fn, nil
}

// Identifiers returns all registered ids in sorted order.
func (r *Registry) Identifiers() []string {
	ids := make([]string, 0, len(r.funcs))
	for id := range r.funcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
