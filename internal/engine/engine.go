package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"adaptive-service/internal/models"
)

// UserState construction window and absent-history defaults.
const (
	recentWindow           = 20
	defaultRecentAccuracy  = 0.5
	defaultResponseTimeAvg = 30.0
)

const masteryReviewThreshold = 0.7

// Engine orchestrates one learner's adaptive loop: template selection,
// question resolution and model updates. It holds no request state, so a
// single instance is safe under concurrent callers; all cross-call state
// lives in the injected stores.
type Engine struct {
	irt    ThreePLIRT
	tracer *KnowledgeTracer
	bandit *TemplateBandit
	source *QuestionSource

	learners  LearnerStore
	templates TemplateStore
	concepts  ConceptStore
	questions QuestionStore
	responses ResponseStore
	sessions  SessionStore

	// Serializes the read-modify-write model updates per user. The stores
	// are additionally atomic where the math allows (session counters,
	// bandit rows).
	userLocks sync.Map
}

func NewEngine(
	tracer *KnowledgeTracer,
	bandit *TemplateBandit,
	source *QuestionSource,
	learners LearnerStore,
	templates TemplateStore,
	concepts ConceptStore,
	questions QuestionStore,
	responses ResponseStore,
	sessions SessionStore,
) *Engine {
	return &Engine{
		tracer:    tracer,
		bandit:    bandit,
		source:    source,
		learners:  learners,
		templates: templates,
		concepts:  concepts,
		questions: questions,
		responses: responses,
		sessions:  sessions,
	}
}

// StartSession opens a learning session with zeroed counters.
func (e *Engine) StartSession(ctx context.Context, userID, subjectID, topicID string) (*models.LearningSession, error) {
	return e.sessions.CreateSession(ctx, userID, subjectID, topicID)
}

// NextQuestion runs one selection decision: snapshot the learner, let the
// bandit pick a template among the topic's candidates, resolve a question.
// Session counters are untouched until the answer comes back.
func (e *Engine) NextQuestion(ctx context.Context, userID, topicID string) (*NextQuestion, error) {
	state, err := e.buildUserState(ctx, userID, topicID)
	if err != nil {
		return nil, err
	}

	templates, err := e.templates.CandidateTemplates(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates found for topic %s", topicID)
	}

	stats, err := e.responses.BanditStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	selected, err := e.bandit.SelectTemplate(templates, state, stats)
	if err != nil {
		return nil, err
	}

	question, generated, err := e.source.GetOrGenerate(ctx, selected)
	if err != nil {
		return nil, err
	}

	sessionID := ""
	if active, err := e.sessions.ActiveSession(ctx, userID, topicID); err != nil {
		return nil, err
	} else if active != nil {
		sessionID = active.ID
	}

	return &NextQuestion{
		QuestionID:        question.ID,
		TemplateID:        selected.ID,
		ConceptID:         selected.ConceptID,
		QuestionText:      question.QuestionText,
		Options:           question.Options,
		Difficulty:        selected.TargetDifficulty,
		LearningObjective: selected.LearningObjective,
		SessionID:         sessionID,
		Generated:         generated,
		Timestamp:         time.Now().UTC(),
	}, nil
}

// ProcessResponse scores an answer and updates every model that learns from
// it: the response log, session counters, IRT ability, BKT mastery with
// prerequisite propagation, and the bandit arm that served the template.
func (e *Engine) ProcessResponse(ctx context.Context, in ResponseInput) (*Feedback, error) {
	question, err := e.questions.QuestionByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("question %s not found", in.QuestionID)
	}

	correct := in.SelectedOptionIndex == question.CorrectOption

	misconception := ""
	if !correct {
		concept, err := e.concepts.Concept(ctx, in.ConceptID)
		if err != nil {
			return nil, err
		}
		misconception = concept.MisconceptionFor(in.SelectedOptionIndex)
	}

	if err := e.responses.StoreResponse(ctx, &models.UserResponse{
		UserID:                in.UserID,
		SessionID:             in.SessionID,
		QuestionID:            in.QuestionID,
		TemplateID:            in.TemplateID,
		ConceptID:             in.ConceptID,
		SelectedOption:        in.SelectedOptionIndex,
		Correct:               correct,
		MisconceptionDetected: misconception,
		ResponseTime:          in.ResponseTime,
		Timestamp:             time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	if in.SessionID != "" {
		if err := e.sessions.RecordAttempt(ctx, in.SessionID, correct); err != nil {
			return nil, err
		}
	}

	unlock := e.lockUser(in.UserID)
	defer unlock()

	newTheta, err := e.updateAbility(ctx, in.UserID, question, correct)
	if err != nil {
		return nil, err
	}

	newMastery, err := e.updateMastery(ctx, in.UserID, in.ConceptID, correct)
	if err != nil {
		return nil, err
	}

	reward := CalculateReward(correct, in.ResponseTime, question.Difficulty)
	stats, err := e.responses.BanditStats(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	params := e.bandit.Update(in.TemplateID, reward, stats)
	if err := e.responses.UpdateBanditStats(ctx, in.UserID, in.TemplateID, params.Alpha, params.Beta); err != nil {
		return nil, err
	}

	return &Feedback{
		Correct:            correct,
		CorrectOptionIndex: question.CorrectOption,
		Explanation:        question.Explanation,
		UpdatedMastery:     newMastery,
		GlobalAbility:      newTheta,
		Misconception:      misconception,
		SuggestedReview:    newMastery < masteryReviewThreshold,
	}, nil
}

// EndSession closes a session and returns its final counters.
func (e *Engine) EndSession(ctx context.Context, sessionID string) (*models.LearningSession, error) {
	session, err := e.sessions.EndSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return session, nil
}

func (e *Engine) buildUserState(ctx context.Context, userID, topicID string) (*UserState, error) {
	ability, err := e.learners.GlobalAbility(ctx, userID)
	if err != nil {
		return nil, err
	}

	mastery, err := e.learners.ConceptMastery(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := e.responses.RecentResponses(ctx, userID, recentWindow)
	if err != nil {
		return nil, err
	}

	accuracy := defaultRecentAccuracy
	avgTime := defaultResponseTimeAvg
	if len(recent) > 0 {
		correctCount := 0
		totalTime := 0.0
		for _, r := range recent {
			if r.Correct {
				correctCount++
			}
			totalTime += r.ResponseTime
		}
		accuracy = float64(correctCount) / float64(len(recent))
		avgTime = totalTime / float64(len(recent))
	}

	return &UserState{
		GlobalAbility:   ability,
		RecentAccuracy:  accuracy,
		ResponseTimeAvg: avgTime,
		ConceptMastery:  mastery,
		TopicID:         topicID,
	}, nil
}

func (e *Engine) updateAbility(ctx context.Context, userID string, question *models.Question, correct bool) (float64, error) {
	history, err := e.responses.IRTHistory(ctx, userID)
	if err != nil {
		return 0, err
	}

	current, err := e.learners.GlobalAbility(ctx, userID)
	if err != nil {
		return 0, err
	}

	history = append(history, IRTItem{
		Correct:        correct,
		Difficulty:     question.Difficulty,
		Discrimination: question.Discrimination,
		Guessing:       question.Guessing,
	})

	newTheta := e.irt.EstimateAbility(history, current)
	if err := e.learners.UpdateGlobalAbility(ctx, userID, newTheta); err != nil {
		return 0, err
	}
	return newTheta, nil
}

func (e *Engine) updateMastery(ctx context.Context, userID, conceptID string, correct bool) (float64, error) {
	masteries, err := e.learners.ConceptMastery(ctx, userID)
	if err != nil {
		return 0, err
	}

	current, ok := masteries[conceptID]
	if !ok {
		current = models.DefaultMasteryPrior
	}

	updated := e.tracer.UpdateMastery(current, correct)
	if err := e.learners.UpdateConceptMastery(ctx, userID, conceptID, updated); err != nil {
		return 0, err
	}

	prereqs, err := e.concepts.Prerequisites(ctx, conceptID)
	if err != nil {
		return 0, err
	}
	if len(prereqs) > 0 {
		prereqMasteries := make(map[string]float64, len(prereqs))
		for _, pid := range prereqs {
			m, ok := masteries[pid]
			if !ok {
				m = 0.5
			}
			prereqMasteries[pid] = m
		}
		for pid, m := range e.tracer.PropagateToPrerequisites(prereqMasteries, correct) {
			if err := e.learners.UpdateConceptMastery(ctx, userID, pid, m); err != nil {
				return 0, err
			}
		}
	}

	return updated, nil
}

// CalculateReward combines correctness with pacing: full time credit at the
// difficulty-scaled optimal duration, decaying linearly with distance from it.
func CalculateReward(correct bool, responseTime, difficulty float64) float64 {
	base := 0.0
	if correct {
		base = 1.0
	}

	optimalTime := difficulty*60 + 15
	timeEfficiency := 1.0 - abs(responseTime-optimalTime)/optimalTime
	if timeEfficiency < 0 {
		timeEfficiency = 0
	}

	return clamp01(0.7*base + 0.3*timeEfficiency)
}

func (e *Engine) lockUser(userID string) func() {
	v, _ := e.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
