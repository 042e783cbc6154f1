package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"adaptive-service/internal/models"
)

// memStores is an in-memory implementation of every storage interface the
// engine depends on.
type memStores struct {
	abilities   map[string]float64
	masteries   map[string]map[string]float64
	concepts    map[string]*models.Concept
	templates   map[string][]models.Template
	questions   map[string]*models.Question
	byTemplate  map[string]*models.Question
	responses   []models.UserResponse
	banditStats map[string]map[string]BetaParams
	sessions    map[string]*models.LearningSession
	savedCount  int
	nextID      int
}

func newMemStores() *memStores {
	return &memStores{
		abilities:   map[string]float64{},
		masteries:   map[string]map[string]float64{},
		concepts:    map[string]*models.Concept{},
		templates:   map[string][]models.Template{},
		questions:   map[string]*models.Question{},
		byTemplate:  map[string]*models.Question{},
		banditStats: map[string]map[string]BetaParams{},
		sessions:    map[string]*models.LearningSession{},
	}
}

func (m *memStores) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStores) GlobalAbility(_ context.Context, userID string) (float64, error) {
	if theta, ok := m.abilities[userID]; ok {
		return theta, nil
	}
	return models.NeutralAbility, nil
}

func (m *memStores) UpdateGlobalAbility(_ context.Context, userID string, theta float64) error {
	m.abilities[userID] = theta
	return nil
}

func (m *memStores) ConceptMastery(_ context.Context, userID string) (map[string]float64, error) {
	out := map[string]float64{}
	for id, v := range m.masteries[userID] {
		out[id] = v
	}
	return out, nil
}

func (m *memStores) UpdateConceptMastery(_ context.Context, userID, conceptID string, mastery float64) error {
	if m.masteries[userID] == nil {
		m.masteries[userID] = map[string]float64{}
	}
	m.masteries[userID][conceptID] = mastery
	return nil
}

func (m *memStores) CandidateTemplates(_ context.Context, topicID string) ([]models.Template, error) {
	return m.templates[topicID], nil
}

func (m *memStores) Concept(_ context.Context, conceptID string) (*models.Concept, error) {
	return m.concepts[conceptID], nil
}

func (m *memStores) Prerequisites(_ context.Context, conceptID string) ([]string, error) {
	if c := m.concepts[conceptID]; c != nil {
		return c.Prerequisites, nil
	}
	return nil, nil
}

func (m *memStores) CachedQuestion(_ context.Context, templateID string) (*models.Question, error) {
	return m.byTemplate[templateID], nil
}

func (m *memStores) QuestionByID(_ context.Context, questionID string) (*models.Question, error) {
	return m.questions[questionID], nil
}

func (m *memStores) SaveQuestion(_ context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = m.id("q")
	}
	m.questions[q.ID] = q
	m.byTemplate[q.TemplateID] = q
	m.savedCount++
	return nil
}

func (m *memStores) StoreResponse(_ context.Context, r *models.UserResponse) error {
	r.ID = m.id("r")
	m.responses = append(m.responses, *r)
	return nil
}

func (m *memStores) RecentResponses(_ context.Context, userID string, limit int) ([]models.UserResponse, error) {
	var out []models.UserResponse
	for i := len(m.responses) - 1; i >= 0 && len(out) < limit; i-- {
		if m.responses[i].UserID == userID {
			out = append(out, m.responses[i])
		}
	}
	return out, nil
}

func (m *memStores) IRTHistory(_ context.Context, userID string) ([]IRTItem, error) {
	var out []IRTItem
	for _, r := range m.responses {
		if r.UserID != userID {
			continue
		}
		item := IRTItem{
			Correct:        r.Correct,
			Difficulty:     models.DefaultDifficulty,
			Discrimination: models.DefaultDiscrimination,
			Guessing:       models.DefaultGuessing,
		}
		if q := m.questions[r.QuestionID]; q != nil {
			item.Difficulty = q.Difficulty
			item.Discrimination = q.Discrimination
			item.Guessing = q.Guessing
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memStores) BanditStats(_ context.Context, userID string) (map[string]BetaParams, error) {
	out := map[string]BetaParams{}
	for id, p := range m.banditStats[userID] {
		out[id] = p
	}
	return out, nil
}

func (m *memStores) UpdateBanditStats(_ context.Context, userID, templateID string, alpha, beta float64) error {
	if m.banditStats[userID] == nil {
		m.banditStats[userID] = map[string]BetaParams{}
	}
	m.banditStats[userID][templateID] = BetaParams{Alpha: alpha, Beta: beta}
	return nil
}

func (m *memStores) CreateSession(_ context.Context, userID, subjectID, topicID string) (*models.LearningSession, error) {
	s := &models.LearningSession{
		ID:        m.id("s"),
		UserID:    userID,
		SubjectID: subjectID,
		TopicID:   topicID,
		StartTime: time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memStores) ActiveSession(_ context.Context, userID, topicID string) (*models.LearningSession, error) {
	for _, s := range m.sessions {
		if s.UserID == userID && s.TopicID == topicID && s.EndTime == nil {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memStores) SessionByID(_ context.Context, sessionID string) (*models.LearningSession, error) {
	return m.sessions[sessionID], nil
}

func (m *memStores) RecordAttempt(_ context.Context, sessionID string, correct bool) error {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	s.QuestionsAttempted++
	if correct {
		s.QuestionsCorrect++
	}
	return nil
}

func (m *memStores) EndSession(_ context.Context, sessionID string) (*models.LearningSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	now := time.Now().UTC()
	s.EndTime = &now
	return s, nil
}

func newTestEngine(stores *memStores, client Client) *Engine {
	retry := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	source := NewQuestionSource(stores, stores, client, retry)
	return NewEngine(
		DefaultKnowledgeTracer(),
		DefaultTemplateBandit(rand.NewPCG(1, 2)),
		source,
		stores, stores, stores, stores, stores, stores,
	)
}

func seedCatalog(stores *memStores) (conceptID, templateID, questionID string) {
	concept := &models.Concept{
		ID:            "c-frac",
		TopicID:       "topic-math",
		Name:          "Fraction addition",
		Prerequisites: []string{"c-count"},
		CommonMisconceptions: []string{
			"Adding numerators and denominators separately",
			"Ignoring the denominator entirely",
		},
	}
	stores.concepts[concept.ID] = concept
	stores.concepts["c-count"] = &models.Concept{ID: "c-count", TopicID: "topic-math", Name: "Counting"}

	template := models.Template{
		ID:                "t-frac-1",
		ConceptID:         concept.ID,
		TopicID:           "topic-math",
		LearningObjective: "Add fractions with unlike denominators",
		TargetDifficulty:  0.5,
		QuestionStyle:     "numerical",
	}
	stores.templates[template.TopicID] = []models.Template{template}

	question := &models.Question{
		ID:             "q-frac-1",
		TemplateID:     template.ID,
		QuestionText:   "What is 1/2 + 1/3?",
		Options:        []string{"A. 5/6", "B. 2/5", "C. 1/6", "D. 2/6"},
		CorrectOption:  0,
		Explanation:    "Use the common denominator 6.",
		Difficulty:     0.5,
		Discrimination: 1.0,
		Guessing:       0.25,
	}
	stores.questions[question.ID] = question
	stores.byTemplate[template.ID] = question

	return concept.ID, template.ID, question.ID
}

func TestFullLearningLoop(t *testing.T) {
	stores := newMemStores()
	conceptID, templateID, questionID := seedCatalog(stores)
	eng := newTestEngine(stores, nil)
	ctx := context.Background()

	session, err := eng.StartSession(ctx, "user-1", "subject-math", "topic-math")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	next, err := eng.NextQuestion(ctx, "user-1", "topic-math")
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if next.QuestionID != questionID || next.TemplateID != templateID {
		t.Errorf("Expected cached question %s via %s, got %s via %s",
			questionID, templateID, next.QuestionID, next.TemplateID)
	}
	if next.Generated {
		t.Error("Cache hit must not report generated")
	}
	if next.SessionID != session.ID {
		t.Errorf("Expected active session %s, got %q", session.ID, next.SessionID)
	}
	if len(next.Options) != 4 {
		t.Fatalf("Expected 4 options, got %d", len(next.Options))
	}

	feedback, err := eng.ProcessResponse(ctx, ResponseInput{
		UserID:              "user-1",
		QuestionID:          questionID,
		TemplateID:          templateID,
		ConceptID:           conceptID,
		SelectedOptionIndex: 0,
		ResponseTime:        45.0,
		SessionID:           session.ID,
	})
	if err != nil {
		t.Fatalf("ProcessResponse failed: %v", err)
	}
	if !feedback.Correct {
		t.Error("Option 0 should be scored correct")
	}
	if feedback.Misconception != "" {
		t.Errorf("Correct answer must not carry a misconception, got %q", feedback.Misconception)
	}
	if feedback.UpdatedMastery <= models.DefaultMasteryPrior {
		t.Errorf("Correct answer should raise mastery above the %.2f prior, got %.4f",
			models.DefaultMasteryPrior, feedback.UpdatedMastery)
	}
	if feedback.SuggestedReview {
		t.Errorf("Mastery %.4f should not suggest review", feedback.UpdatedMastery)
	}
	if feedback.GlobalAbility <= models.NeutralAbility {
		t.Errorf("All-correct history should raise ability above %.2f, got %.4f",
			models.NeutralAbility, feedback.GlobalAbility)
	}

	// Prerequisite nudged up from the unknown-prereq baseline.
	if got := stores.masteries["user-1"]["c-count"]; math.Abs(got-0.52) > 1e-9 {
		t.Errorf("Expected prerequisite mastery 0.52, got %.4f", got)
	}

	// Bandit arm credited with the full reward: 45s is optimal for 0.5.
	params := stores.banditStats["user-1"][templateID]
	if math.Abs(params.Alpha-2.0) > 1e-9 || math.Abs(params.Beta-1.0) > 1e-9 {
		t.Errorf("Expected arm (2.0, 1.0), got (%.4f, %.4f)", params.Alpha, params.Beta)
	}

	ended, err := eng.EndSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}
	if ended.EndTime == nil {
		t.Error("Ended session must carry an end time")
	}
	if ended.QuestionsAttempted != 1 || ended.QuestionsCorrect != 1 {
		t.Errorf("Expected counters 1/1, got %d/%d", ended.QuestionsAttempted, ended.QuestionsCorrect)
	}
}

func TestFallbackQuestionIsAnswerable(t *testing.T) {
	stores := newMemStores()
	conceptID, templateID, _ := seedCatalog(stores)
	// No cache for this template and a generator that is down for good.
	delete(stores.byTemplate, templateID)
	failure := fmt.Errorf("backend down")
	client := &scriptedClient{
		replies: []string{"", "", ""},
		errs:    []error{failure, failure, failure},
	}
	eng := newTestEngine(stores, client)
	ctx := context.Background()

	next, err := eng.NextQuestion(ctx, "user-3", "topic-math")
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if !next.Generated {
		t.Error("Fallback must report generated")
	}
	if next.QuestionID == "" {
		t.Fatal("Fallback must be served with a question id")
	}

	feedback, err := eng.ProcessResponse(ctx, ResponseInput{
		UserID:              "user-3",
		QuestionID:          next.QuestionID,
		TemplateID:          next.TemplateID,
		ConceptID:           conceptID,
		SelectedOptionIndex: 0,
		ResponseTime:        30.0,
	})
	if err != nil {
		t.Fatalf("Answer to a fallback question must be scorable: %v", err)
	}
	if !feedback.Correct {
		t.Error("Option 0 is the fallback's correct option")
	}
}

func TestProcessResponseIncorrect(t *testing.T) {
	stores := newMemStores()
	conceptID, templateID, questionID := seedCatalog(stores)
	eng := newTestEngine(stores, nil)

	feedback, err := eng.ProcessResponse(context.Background(), ResponseInput{
		UserID:              "user-2",
		QuestionID:          questionID,
		TemplateID:          templateID,
		ConceptID:           conceptID,
		SelectedOptionIndex: 1,
		ResponseTime:        10.0,
	})
	if err != nil {
		t.Fatalf("ProcessResponse failed: %v", err)
	}
	if feedback.Correct {
		t.Error("Option 1 should be scored incorrect")
	}
	if feedback.CorrectOptionIndex != 0 {
		t.Errorf("Expected correct option 0, got %d", feedback.CorrectOptionIndex)
	}
	if feedback.Misconception != "Ignoring the denominator entirely" {
		t.Errorf("Expected index-aligned misconception, got %q", feedback.Misconception)
	}
	if !feedback.SuggestedReview {
		t.Errorf("Mastery %.4f should suggest review", feedback.UpdatedMastery)
	}
	if feedback.UpdatedMastery >= models.DefaultMasteryPrior {
		t.Errorf("Incorrect answer should lower mastery below the prior, got %.4f", feedback.UpdatedMastery)
	}

	// Prerequisite penalized from the unknown-prereq baseline.
	if got := stores.masteries["user-2"]["c-count"]; math.Abs(got-0.45) > 1e-9 {
		t.Errorf("Expected prerequisite mastery 0.45, got %.4f", got)
	}
}

func TestProcessResponseQuestionNotFound(t *testing.T) {
	stores := newMemStores()
	seedCatalog(stores)
	eng := newTestEngine(stores, nil)

	_, err := eng.ProcessResponse(context.Background(), ResponseInput{
		UserID:     "user-1",
		QuestionID: "missing",
	})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Expected not-found error, got %v", err)
	}
}

func TestNextQuestionNoTemplates(t *testing.T) {
	stores := newMemStores()
	eng := newTestEngine(stores, nil)

	_, err := eng.NextQuestion(context.Background(), "user-1", "empty-topic")
	if err == nil || !strings.Contains(err.Error(), "no templates found") {
		t.Fatalf("Expected no-templates error, got %v", err)
	}
}

func TestEndSessionNotFound(t *testing.T) {
	stores := newMemStores()
	eng := newTestEngine(stores, nil)

	_, err := eng.EndSession(context.Background(), "missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Expected not-found error, got %v", err)
	}
}

func TestCalculateReward(t *testing.T) {
	testCases := []struct {
		name         string
		correct      bool
		responseTime float64
		difficulty   float64
		expected     float64
	}{
		{"correct at optimal pace", true, 45.0, 0.5, 1.0},
		{"correct far off pace", true, 90.0, 0.5, 0.7},
		{"incorrect instant answer", false, 0.0, 0.5, 0.0},
		{"incorrect at optimal pace", false, 45.0, 0.5, 0.3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateReward(tc.correct, tc.responseTime, tc.difficulty)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("Expected reward %.4f, got %.4f", tc.expected, got)
			}
			if got < 0 || got > 1 {
				t.Errorf("Reward out of range: %.4f", got)
			}
		})
	}
}

func TestBuildUserStateDefaults(t *testing.T) {
	stores := newMemStores()
	eng := newTestEngine(stores, nil)

	state, err := eng.buildUserState(context.Background(), "fresh-user", "topic-math")
	if err != nil {
		t.Fatalf("buildUserState failed: %v", err)
	}
	if state.GlobalAbility != models.NeutralAbility {
		t.Errorf("Expected stored-layer ability default %.2f, got %.4f", models.NeutralAbility, state.GlobalAbility)
	}
	if state.RecentAccuracy != defaultRecentAccuracy {
		t.Errorf("Expected accuracy default %.2f, got %.4f", defaultRecentAccuracy, state.RecentAccuracy)
	}
	if state.ResponseTimeAvg != defaultResponseTimeAvg {
		t.Errorf("Expected response-time default %.1f, got %.4f", defaultResponseTimeAvg, state.ResponseTimeAvg)
	}
}
