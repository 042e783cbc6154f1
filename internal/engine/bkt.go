package engine

import (
	"fmt"
	"log"
)

// Prerequisite mastery nudges applied when a dependent concept is answered.
// A heuristic bleed toward foundational concepts, not a Bayesian update.
const (
	prereqBoost   = 0.02
	prereqPenalty = -0.05
)

// KnowledgeTracer is a stateless Bayesian Knowledge Tracing updater. Mastery
// is fetched from and persisted to storage by the caller; the tracer only
// holds the four BKT parameters.
type KnowledgeTracer struct {
	pInit  float64
	pLearn float64
	pGuess float64
	pSlip  float64
}

// NewKnowledgeTracer validates that every parameter lies in [0,1].
func NewKnowledgeTracer(pInit, pLearn, pGuess, pSlip float64) (*KnowledgeTracer, error) {
	for _, p := range []float64{pInit, pLearn, pGuess, pSlip} {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("BKT parameters must be between 0 and 1, got %v", p)
		}
	}
	return &KnowledgeTracer{pInit: pInit, pLearn: pLearn, pGuess: pGuess, pSlip: pSlip}, nil
}

// DefaultKnowledgeTracer returns a tracer with the standard priors
// (init 0.3, learn 0.2, guess 0.1, slip 0.1).
func DefaultKnowledgeTracer() *KnowledgeTracer {
	t, _ := NewKnowledgeTracer(0.3, 0.2, 0.1, 0.1)
	return t
}

// UpdateMastery applies one observation to a mastery probability and returns
// the posterior after the learning transition, clamped to [0,1].
func (t *KnowledgeTracer) UpdateMastery(mastery float64, correct bool) float64 {
	mastery = clamp01(mastery)

	pCorrect := mastery*(1-t.pSlip) + (1-mastery)*t.pGuess
	pIncorrect := 1 - pCorrect

	var posterior float64
	if correct {
		if pCorrect == 0 {
			log.Println("BKT: p_correct is zero, keeping prior mastery")
			posterior = mastery
		} else {
			posterior = mastery * (1 - t.pSlip) / pCorrect
		}
	} else {
		if pIncorrect == 0 {
			log.Println("BKT: p_incorrect is zero, keeping prior mastery")
			posterior = mastery
		} else {
			posterior = mastery * t.pSlip / pIncorrect
		}
	}

	return clamp01(posterior + (1-posterior)*t.pLearn)
}

// PropagateToPrerequisites nudges every prerequisite mastery up on a correct
// dependent-concept answer and down on an incorrect one.
func (t *KnowledgeTracer) PropagateToPrerequisites(prereqMasteries map[string]float64, correct bool) map[string]float64 {
	adjustment := prereqPenalty
	if correct {
		adjustment = prereqBoost
	}

	updated := make(map[string]float64, len(prereqMasteries))
	for id, mastery := range prereqMasteries {
		updated[id] = clamp01(mastery + adjustment)
	}
	return updated
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
