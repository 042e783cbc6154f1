package engine

import (
	"log"
	"math"
)

// Theta search bounds for ability estimation.
const (
	thetaMin = -4.0
	thetaMax = 4.0
)

// ThreePLIRT is the 3-parameter logistic Item Response Theory model:
// P(correct | theta) = c + (1-c) / (1 + exp(-a*(theta-b))).
type ThreePLIRT struct{}

// ProbabilityCorrect returns P(correct) under the 3PL model for ability theta,
// difficulty b, discrimination a and guessing floor c.
func (ThreePLIRT) ProbabilityCorrect(theta, b, a, c float64) float64 {
	z := a * (theta - b)
	return c + (1-c)/(1+math.Exp(-z))
}

// EstimateAbility finds the theta in [-4,4] maximizing the Bernoulli
// log-likelihood of the observed responses. An empty history returns
// initialTheta unchanged. Estimation never fails the caller: a non-finite
// result degrades to initialTheta.
func (m ThreePLIRT) EstimateAbility(items []IRTItem, initialTheta float64) float64 {
	if len(items) == 0 {
		return initialTheta
	}

	negLogLikelihood := func(theta float64) float64 {
		ll := 0.0
		for _, it := range items {
			p := m.ProbabilityCorrect(theta, it.Difficulty, it.Discrimination, it.Guessing)
			// Avoid log(0)
			p = math.Max(math.Min(p, 1-1e-10), 1e-10)
			if it.Correct {
				ll += math.Log(p)
			} else {
				ll += math.Log(1 - p)
			}
		}
		return -ll
	}

	theta := goldenSectionMin(negLogLikelihood, thetaMin, thetaMax, 1e-6)
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		log.Printf("IRT estimation failed: non-finite theta, keeping %.4f", initialTheta)
		return initialTheta
	}
	return theta
}

// goldenSectionMin minimizes f over [lo,hi] to within tol. The likelihood
// surface of the 3PL model is smooth on the bounded interval, which is all a
// derivative-free bracketing search needs.
func goldenSectionMin(f func(float64) float64, lo, hi, tol float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for i := 0; i < 200 && b-a > tol; i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}
