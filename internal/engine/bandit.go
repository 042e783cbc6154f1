package engine

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"adaptive-service/internal/models"
)

// Shape-parameter safety bounds applied after every bandit update.
const (
	banditParamMin = 1.0
	banditParamMax = 100.0
)

// TemplateBandit selects question templates by contextual Thompson sampling.
// Alpha/beta live in storage per (user, template); the bandit itself is
// stateless apart from its priors and random source.
type TemplateBandit struct {
	contextWeight float64
	alphaPrior    float64
	betaPrior     float64
	src           rand.Source
}

// NewTemplateBandit builds a bandit with the given context weight and
// Beta priors. A nil src uses the process-global random source; tests inject
// a seeded one.
func NewTemplateBandit(contextWeight, alphaPrior, betaPrior float64, src rand.Source) *TemplateBandit {
	return &TemplateBandit{
		contextWeight: contextWeight,
		alphaPrior:    alphaPrior,
		betaPrior:     betaPrior,
		src:           src,
	}
}

// DefaultTemplateBandit returns a bandit with context weight 0.25 and
// uninformative Beta(1,1) priors.
func DefaultTemplateBandit(src rand.Source) *TemplateBandit {
	return NewTemplateBandit(0.25, 1.0, 1.0, src)
}

// SelectTemplate scores every candidate as sampled Beta reward plus weighted
// context alignment and returns the maximum. Ties keep the first-seen
// candidate. Errors only on an empty candidate list.
func (b *TemplateBandit) SelectTemplate(templates []models.Template, state *UserState, stats map[string]BetaParams) (*models.Template, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates available for selection")
	}

	var selected *models.Template
	bestScore := 0.0

	for i := range templates {
		t := &templates[i]

		params, ok := stats[t.ID]
		if !ok {
			params = BetaParams{Alpha: b.alphaPrior, Beta: b.betaPrior}
		}

		sampled := distuv.Beta{Alpha: params.Alpha, Beta: params.Beta, Src: b.src}.Rand()
		score := sampled + b.contextWeight*b.contextScore(t, state)

		if selected == nil || score > bestScore {
			selected = t
			bestScore = score
		}
	}

	return selected, nil
}

// contextScore rates how well a template fits the learner's current state,
// in [0,1]. Weights are renormalized by the terms actually applied.
func (b *TemplateBandit) contextScore(t *models.Template, state *UserState) float64 {
	score := 0.0
	weightSum := 0.0

	// Difficulty vs ability: map theta from roughly [-3,3] onto the 0-1
	// difficulty scale and reward closeness.
	normalizedTheta := clamp01((state.GlobalAbility + 3) / 6)
	diffAlignment := 1.0 - abs(t.TargetDifficulty-normalizedTheta)
	score += 0.4 * diffAlignment
	weightSum += 0.4

	// Concept mastery: zone of proximal development, peaking at 70%.
	mastery, ok := state.ConceptMastery[t.ConceptID]
	if !ok {
		mastery = 0.5
	}
	masteryAlignment := 1.0 - abs(mastery-0.7)
	if masteryAlignment < 0 {
		masteryAlignment = 0
	}
	score += 0.4 * masteryAlignment
	weightSum += 0.4

	// Recent-accuracy stabilization: easy material for a struggling learner,
	// hard material for a cruising one. Contributes neither score nor weight
	// otherwise.
	if state.RecentAccuracy < 0.3 && t.TargetDifficulty <= 0.4 {
		score += 0.2
		weightSum += 0.2
	} else if state.RecentAccuracy > 0.9 && t.TargetDifficulty >= 0.7 {
		score += 0.2
		weightSum += 0.2
	}

	if weightSum == 0 {
		return 0
	}
	return clamp01(score / weightSum)
}

// Update folds an observed reward into the template's shape parameters and
// returns the new pair for the caller to persist. Reward is clamped to [0,1]
// and the parameters to [1,100].
func (b *TemplateBandit) Update(templateID string, reward float64, stats map[string]BetaParams) BetaParams {
	reward = clamp01(reward)

	params, ok := stats[templateID]
	if !ok {
		params = BetaParams{Alpha: b.alphaPrior, Beta: b.betaPrior}
	}

	params.Alpha = clampRange(params.Alpha+reward, banditParamMin, banditParamMax)
	params.Beta = clampRange(params.Beta+(1-reward), banditParamMin, banditParamMax)
	return params
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
