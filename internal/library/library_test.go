package library

import (
	"math/rand"
	"testing"
)

func walk(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 100.0
	for i := range out {
		price *= 1 + rng.NormFloat64()*0.02
		out[i] = price
	}
	return out
}

func TestEveryFunctionHonorsBinaryContract(t *testing.T) {
	lengths := []int{2, 5, 30, 120, 500}
	for id, fn := range Functions() {
		for _, n := range lengths {
			for seed := int64(1); seed <= 3; seed++ {
				series := walk(seed, n)
				out, err := fn(series)
				if err != nil {
					t.Fatalf("%s(len=%d, seed=%d): %v", id, n, seed, err)
				}
				if len(out) != n {
					t.Fatalf("%s(len=%d): output length %d", id, n, len(out))
				}
				for i, v := range out {
					if v != 0 && v != 1 {
						t.Fatalf("%s: non-binary value %d at index %d", id, v, i)
					}
				}
			}
		}
	}
}

func TestEveryFunctionDeterministic(t *testing.T) {
	series := walk(7, 200)
	for id, fn := range Functions() {
		a, err := fn(series)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		b, err := fn(series)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: differs between identical calls at index %d", id, i)
			}
		}
	}
}

func TestPriceAboveSMARisingSeries(t *testing.T) {
	series := make([]float64, 120)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	out, err := PriceAboveSMA(series)
	if err != nil {
		t.Fatalf("price_above_sma: %v", err)
	}
	// Once the window fills, a steadily rising price sits above its own mean.
	for i := 60; i < len(out); i++ {
		if out[i] != 1 {
			t.Fatalf("rising series should be above its SMA at index %d", i)
		}
	}
}

func TestSMACrossoverFlatSeries(t *testing.T) {
	series := make([]float64, 120)
	for i := range series {
		series[i] = 100
	}
	out, err := SMACrossover(series)
	if err != nil {
		t.Fatalf("sma_crossover: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("flat series has no crossover regime, got 1 at index %d", i)
		}
	}
}

func TestRSIRegimesAreExclusive(t *testing.T) {
	series := walk(11, 300)
	over, err := RSIOverbought(series)
	if err != nil {
		t.Fatalf("rsi_overbought: %v", err)
	}
	under, err := RSIOversold(series)
	if err != nil {
		t.Fatalf("rsi_oversold: %v", err)
	}
	for i := range over {
		if over[i] == 1 && under[i] == 1 {
			t.Fatalf("overbought and oversold set together at index %d", i)
		}
	}
}

func TestBollingerSqueezeFlatVsVolatile(t *testing.T) {
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 100 + 0.001*float64(i%2)
	}
	out, err := BollingerSqueeze(flat)
	if err != nil {
		t.Fatalf("bollinger_squeeze: %v", err)
	}
	squeezed := 0
	for i := 30; i < len(out); i++ {
		squeezed += out[i]
	}
	if squeezed == 0 {
		t.Fatalf("a near-flat series should show squeeze after warmup")
	}

	wild := walk(3, 100)
	for i := range wild {
		if i%2 == 1 {
			wild[i] *= 1.5
		}
	}
	out, err = BollingerSqueeze(wild)
	if err != nil {
		t.Fatalf("bollinger_squeeze: %v", err)
	}
	for i := 30; i < len(out); i++ {
		if out[i] == 1 {
			t.Fatalf("huge swings should not read as a squeeze at index %d", i)
		}
	}
}

func TestMajoritySmoothRemovesFlicker(t *testing.T) {
	in := []float64{1, 1, 0, 1, 1, 1, 1, 0, 1, 1}
	out, err := MajoritySmooth(in)
	if err != nil {
		t.Fatalf("majority_smooth: %v", err)
	}
	want := []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	for i, v := range out {
		if v != want[i] {
			t.Fatalf("smoothed[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestMajoritySmoothShortInput(t *testing.T) {
	out, err := MajoritySmooth([]float64{0.9, 0.1})
	if err != nil {
		t.Fatalf("majority_smooth: %v", err)
	}
	if out[0] != 1 || out[1] != 0 {
		t.Fatalf("short input should round elementwise, got %v", out)
	}
}

func TestMajoritySmoothIdempotent(t *testing.T) {
	in := []float64{1, 1, 0, 0, 0, 1, 1, 1, 0, 0}
	first, err := MajoritySmooth(in)
	if err != nil {
		t.Fatalf("majority_smooth: %v", err)
	}
	asFloats := make([]float64, len(first))
	for i, v := range first {
		asFloats[i] = float64(v)
	}
	second, err := MajoritySmooth(asFloats)
	if err != nil {
		t.Fatalf("majority_smooth: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("not idempotent at index %d: %d then %d", i, first[i], second[i])
		}
	}
}
