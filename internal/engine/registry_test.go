package engine

import (
	"fmt"
	"testing"
)

func constantOne(series []float64) ([]int, error) {
	out := make([]int, len(series))
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("always_on", constantOne); err != nil {
		t.Fatalf("register: %v", err)
	}

	fn, err := r.Resolve("always_on")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	out, err := fn([]float64{1, 2, 3})
	if err != nil || len(out) != 3 {
		t.Fatalf("unexpected dispatch result %v %v", out, err)
	}
}

func TestRegistryUnknownFunction(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("nope")
	if !IsCode(err, CodeUnknownFunction) {
		t.Fatalf("expected UnknownFunction, got %v", err)
	}
}

func TestRegistryDuplicateIdentifier(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("always_on", constantOne); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register("always_on", constantOne)
	if !IsCode(err, CodeDuplicateIdentifier) {
		t.Fatalf("expected DuplicateIdentifier, got %v", err)
	}
}

func TestRegistrySmokeProbeRejectsBadContract(t *testing.T) {
	r := NewRegistry()

	wrongValues := func(series []float64) ([]int, error) {
		out := make([]int, len(series))
		for i := range out {
			out[i] = 2
		}
		return out, nil
	}
	if err := r.Register("bad_values", wrongValues); !IsCode(err, CodeInvalidContract) {
		t.Fatalf("expected InvalidContract for non-binary output, got %v", err)
	}

	wrongLength := func(series []float64) ([]int, error) {
		return []int{1}, nil
	}
	if err := r.Register("bad_length", wrongLength); !IsCode(err, CodeInvalidContract) {
		t.Fatalf("expected InvalidContract for short output, got %v", err)
	}

	failing := func(series []float64) ([]int, error) {
		return nil, fmt.Errorf("broken")
	}
	if err := r.Register("failing", failing); !IsCode(err, CodeInvalidContract) {
		t.Fatalf("expected InvalidContract for erroring function, got %v", err)
	}
}

func TestRegistryIdentifiersSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(id, constantOne); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	ids := r.Identifiers()
	want := []string{"alpha", "mid", "zeta"}
	for i, id := range ids {
		if id != want[i] {
			t.Fatalf("identifiers[%d] = %s, want %s", i, id, want[i])
		}
	}
}
