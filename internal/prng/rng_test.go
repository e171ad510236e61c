package prng

import "testing"

func TestDeterminism(t *testing.T) {
	r1 := New(42)
	r2 := New(42)
	for i := 0; i < 1000; i++ {
		if r1.Uint32() != r2.Uint32() {
			t.Fatalf("determinism broken at iteration %d", i)
		}
	}
}

func TestSeedZeroIsValid(t *testing.T) {
	r1 := New(0)
	r2 := New(0)
	for i := 0; i < 100; i++ {
		if r1.Uint32() != r2.Uint32() {
			t.Fatalf("seed 0 should be deterministic like any other seed")
		}
	}
	// Must differ from a "random" sequence, not just rubber-stamp the test —
	// compare against a different seed to ensure 0 wasn't silently swapped.
	r3 := New(1)
	same := 0
	for i := 0; i < 100; i++ {
		if r1.Uint32() == r3.Uint32() {
			same++
		}
	}
	if same > 10 {
		t.Fatalf("seed 0 produced a suspiciously similar sequence to seed 1 (%d/100 matches)", same)
	}
}

func TestFloat64Bounds(t *testing.T) {
	r := New(42)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %f, out of [0, 1)", v)
		}
	}
}

func TestBipolarBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 10000; i++ {
		v := r.Bipolar()
		if v < -1 || v >= 1 {
			t.Fatalf("Bipolar() = %f, out of [-1, 1)", v)
		}
	}
}

func TestReseed(t *testing.T) {
	r := New(1)
	r.Uint32()
	r.Uint32()
	r.Reseed(42)

	fresh := New(42)
	for i := 0; i < 100; i++ {
		if r.Uint32() != fresh.Uint32() {
			t.Fatalf("Reseed did not reset generator to a fresh-seed-42 sequence")
		}
	}
}

func TestWeightedSampleWithoutReplacementDistinct(t *testing.T) {
	r := New(5)
	weights := []float64{1, 2, 3, 4, 5, 6, 7}
	for trial := 0; trial < 50; trial++ {
		picks := r.WeightedSampleWithoutReplacement(weights, 3)
		if len(picks) != 3 {
			t.Fatalf("expected 3 picks, got %d", len(picks))
		}
		seen := map[int]bool{}
		for _, p := range picks {
			if seen[p] {
				t.Fatalf("duplicate pick %d in %v", p, picks)
			}
			seen[p] = true
		}
	}
}

func TestGaussianRoughlyNormal(t *testing.T) {
	r := New(99)
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += r.Gaussian()
	}
	mean := sum / n
	if mean < -0.05 || mean > 0.05 {
		t.Fatalf("Gaussian mean = %f, expected close to 0", mean)
	}
}
