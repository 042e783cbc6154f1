package engine

import (
	"math"
	"testing"
)

func TestProbabilityCorrect(t *testing.T) {
	var model ThreePLIRT

	testCases := []struct {
		name     string
		theta    float64
		b        float64
		a        float64
		c        float64
		expected float64
	}{
		{"at difficulty, no guessing", 0.0, 0.0, 1.0, 0.0, 0.5},
		{"at difficulty, guessing floor", 0.0, 0.0, 1.0, 0.25, 0.625}, // c + (1-c)/2
		{"far above difficulty", 10.0, 0.0, 1.0, 0.25, 1.0},
		{"far below difficulty hits floor", -10.0, 0.0, 1.0, 0.25, 0.25},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := model.ProbabilityCorrect(tc.theta, tc.b, tc.a, tc.c)
			if math.Abs(p-tc.expected) > 0.001 {
				t.Errorf("Expected probability %.4f, got %.4f", tc.expected, p)
			}
		})
	}
}

func TestProbabilityCorrectMonotonicInTheta(t *testing.T) {
	var model ThreePLIRT

	prev := -1.0
	for theta := -4.0; theta <= 4.0; theta += 0.5 {
		p := model.ProbabilityCorrect(theta, 0.5, 1.2, 0.25)
		if p <= prev {
			t.Fatalf("Probability not increasing at theta=%.1f: %.6f <= %.6f", theta, p, prev)
		}
		if p < 0 || p > 1 {
			t.Fatalf("Probability out of range at theta=%.1f: %.6f", theta, p)
		}
		prev = p
	}
}

func TestEstimateAbilityEmptyHistory(t *testing.T) {
	var model ThreePLIRT

	for _, initial := range []float64{-2.0, 0.0, 0.5, 3.0} {
		if got := model.EstimateAbility(nil, initial); got != initial {
			t.Errorf("Empty history should return initial theta %.2f, got %.2f", initial, got)
		}
	}
}

func TestEstimateAbilityTracksPerformance(t *testing.T) {
	var model ThreePLIRT

	allCorrect := []IRTItem{
		{Correct: true, Difficulty: 0.0, Discrimination: 1.0, Guessing: 0.25},
		{Correct: true, Difficulty: 0.5, Discrimination: 1.0, Guessing: 0.25},
		{Correct: true, Difficulty: 1.0, Discrimination: 1.0, Guessing: 0.25},
	}
	allWrong := []IRTItem{
		{Correct: false, Difficulty: 0.0, Discrimination: 1.0, Guessing: 0.25},
		{Correct: false, Difficulty: 0.5, Discrimination: 1.0, Guessing: 0.25},
		{Correct: false, Difficulty: 1.0, Discrimination: 1.0, Guessing: 0.25},
	}

	high := model.EstimateAbility(allCorrect, 0.0)
	low := model.EstimateAbility(allWrong, 0.0)

	if high <= low {
		t.Errorf("All-correct theta %.4f should exceed all-wrong theta %.4f", high, low)
	}
	if high < thetaMin || high > thetaMax || low < thetaMin || low > thetaMax {
		t.Errorf("Estimates outside bounds: high=%.4f low=%.4f", high, low)
	}
}

func TestEstimateAbilityMixedHistory(t *testing.T) {
	var model ThreePLIRT

	// Correct on easy items, wrong on hard ones: theta should land between.
	mixed := []IRTItem{
		{Correct: true, Difficulty: -1.5, Discrimination: 1.0, Guessing: 0.0},
		{Correct: true, Difficulty: -1.0, Discrimination: 1.0, Guessing: 0.0},
		{Correct: false, Difficulty: 1.0, Discrimination: 1.0, Guessing: 0.0},
		{Correct: false, Difficulty: 1.5, Discrimination: 1.0, Guessing: 0.0},
	}

	theta := model.EstimateAbility(mixed, 0.0)
	if theta < -1.5 || theta > 1.5 {
		t.Errorf("Mixed-history theta %.4f should lie between the easy and hard difficulties", theta)
	}
}

func TestGoldenSectionMin(t *testing.T) {
	testCases := []struct {
		name     string
		f        func(float64) float64
		lo, hi   float64
		expected float64
	}{
		{"parabola vertex inside", func(x float64) float64 { return (x - 1.3) * (x - 1.3) }, -4, 4, 1.3},
		{"minimum at left edge", func(x float64) float64 { return x }, -4, 4, -4},
		{"minimum at right edge", func(x float64) float64 { return -x }, -4, 4, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := goldenSectionMin(tc.f, tc.lo, tc.hi, 1e-6)
			if math.Abs(got-tc.expected) > 0.001 {
				t.Errorf("Expected minimum near %.4f, got %.4f", tc.expected, got)
			}
		})
	}
}
