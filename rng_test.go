package reina

import "testing"

func TestRand_Determinism(t *testing.T) {
	a := NewRand(1234)
	b := NewRand(1234)
	for i := 0; i < 1000; i++ {
		x, y := a.Get(), b.Get()
		if x != y {
			t.Fatalf(UnequalFloatParameterError, "draw from identically seeded generators", x, y)
		}
	}
}

func TestRand_GetRange(t *testing.T) {
	rnd := NewRand(1)
	for i := 0; i < 1000; i++ {
		v := rnd.Get()
		if v < 0 || v >= 1 {
			t.Fatalf(InvalidFloatParameterError, "uniform draw", v, "must be in [0, 1)")
		}
	}
}

func TestRand_ChanceShortCircuit(t *testing.T) {
	rnd := NewRand(1)
	before := NewRand(1)
	for i := 0; i < 100; i++ {
		if rnd.Chance(0) {
			t.Errorf("Chance(0) returned true")
		}
		if !rnd.Chance(1) {
			t.Errorf("Chance(1) returned false")
		}
	}
	// Certain outcomes must not consume draws.
	if rnd.Get() != before.Get() {
		t.Errorf("Chance with certain outcome consumed a random draw")
	}
}

func TestRand_Lognormal(t *testing.T) {
	rnd := NewRand(42)
	var sum float64
	n := 20000
	for i := 0; i < n; i++ {
		v := rnd.Lognormal(contactsMu, contactsSigma)
		if v <= 0 {
			t.Fatalf(InvalidFloatParameterError, "lognormal draw", v, "must be positive")
		}
		sum += v
	}
	mean := sum / float64(n)
	// The contact multiplier distribution has unit mean.
	if mean < 0.9 || mean > 1.1 {
		t.Errorf(UnequalFloatParameterError, "lognormal multiplier mean (approximately)", 1.0, mean)
	}
}

func TestRand_Poisson(t *testing.T) {
	rnd := NewRand(42)
	if v := rnd.Poisson(0); v != 0 {
		t.Errorf(UnequalIntParameterError, "Poisson(0)", 0, v)
	}
	var sum int
	n := 20000
	for i := 0; i < n; i++ {
		sum += rnd.Poisson(5)
	}
	mean := float64(sum) / float64(n)
	if mean < 4.8 || mean > 5.2 {
		t.Errorf(UnequalFloatParameterError, "Poisson mean (approximately)", 5.0, mean)
	}
}

func TestRand_WeightedChoice(t *testing.T) {
	rnd := NewRand(7)
	weights := []float64{0, 1, 0}
	for i := 0; i < 100; i++ {
		if idx := rnd.WeightedChoice(weights); idx != 1 {
			t.Fatalf(UnequalIntParameterError, "weighted choice with single positive weight", 1, idx)
		}
	}
	counts := make([]int, 3)
	for i := 0; i < 10000; i++ {
		counts[rnd.WeightedChoice([]float64{1, 1, 2})]++
	}
	if counts[2] < counts[0] || counts[2] < counts[1] {
		t.Errorf("weighted choice did not favor the heaviest weight: %v", counts)
	}
}
