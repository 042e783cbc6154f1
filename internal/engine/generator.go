package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"adaptive-service/internal/models"
)

const generatorSystemPrompt = "You are an expert educational content creator."

// Client is any completion backend able to turn a prompt pair into text.
// Swapped for a stub in tests.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// RetryPolicy bounds generation attempts with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy retries three times, waiting 2s then 4s, never more
// than 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// QuestionSource resolves a concrete question for a template: cache first,
// then LLM generation with retries, then a deterministic fallback. A caller
// always gets a well-formed question unless neither cache nor generator
// exists.
type QuestionSource struct {
	questions QuestionStore
	concepts  ConceptStore
	client    Client
	retry     RetryPolicy
}

// NewQuestionSource builds a source. client may be nil, in which case only
// cached questions can be served.
func NewQuestionSource(questions QuestionStore, concepts ConceptStore, client Client, retry RetryPolicy) *QuestionSource {
	return &QuestionSource{questions: questions, concepts: concepts, client: client, retry: retry}
}

// GetOrGenerate returns the question for a template and whether it was
// produced in this call rather than served from cache.
func (s *QuestionSource) GetOrGenerate(ctx context.Context, template *models.Template) (*models.Question, bool, error) {
	cached, err := s.questions.CachedQuestion(ctx, template.ID)
	if err != nil {
		return nil, false, err
	}
	if cached != nil {
		return cached, false, nil
	}

	if s.client == nil {
		return nil, false, fmt.Errorf("no question generator available and no cached questions")
	}

	concept, err := s.concepts.Concept(ctx, template.ConceptID)
	if err != nil {
		return nil, false, err
	}

	generated, err := s.generateWithRetry(ctx, template, concept)
	if err != nil {
		log.Printf("question generation exhausted for template %s: %v", template.ID, err)
		generated = fallbackQuestion(template, concept)
	}

	// Persist before returning so the question carries an id the learner's
	// answer can be scored against, and the next request hits cache.
	if err := s.questions.SaveQuestion(ctx, generated); err != nil {
		return nil, false, err
	}
	return generated, true, nil
}

func (s *QuestionSource) generateWithRetry(ctx context.Context, template *models.Template, concept *models.Concept) (*models.Question, error) {
	prompt := buildQuestionPrompt(template, concept)

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		raw, err := s.client.Generate(ctx, generatorSystemPrompt, prompt)
		if err == nil {
			q, perr := parseGeneratedQuestion(raw, template)
			if perr == nil {
				return q, nil
			}
			// A structurally invalid payload counts as a failed attempt.
			log.Printf("invalid LLM question payload (attempt %d): %v", attempt, perr)
			err = perr
		}
		lastErr = err

		if attempt < s.retry.MaxAttempts {
			select {
			case <-time.After(s.retry.delay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

func buildQuestionPrompt(template *models.Template, concept *models.Concept) string {
	name, description := "", ""
	var misconceptions []string
	if concept != nil {
		name = concept.Name
		description = concept.Description
		misconceptions = concept.CommonMisconceptions
	}

	misconceptionsText := "None"
	if len(misconceptions) > 0 {
		lines := make([]string, len(misconceptions))
		for i, m := range misconceptions {
			lines[i] = "- " + m
		}
		misconceptionsText = strings.Join(lines, "\n")
	}

	return strings.TrimSpace(fmt.Sprintf(`
Generate a multiple-choice question.

Learning Objective: %s
Concept: %s
Description: %s
Difficulty (0-1): %.2f
Question Style: %s

Common Misconceptions:
%s

Requirements:
1. Clear question stem
2. Exactly 4 options
3. One correct option
4. Detailed explanation
5. Distractors should reflect misconceptions

Respond ONLY in valid JSON:
{
  "question_text": "string",
  "options": ["A. ...", "B. ...", "C. ...", "D. ..."],
  "correct_option": 0,
  "explanation": "string"
}`,
		template.LearningObjective,
		name,
		description,
		template.TargetDifficulty,
		template.QuestionStyle,
		misconceptionsText,
	))
}

type generatedPayload struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption *int     `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

func parseGeneratedQuestion(raw string, template *models.Template) (*models.Question, error) {
	var payload generatedPayload
	if err := json.Unmarshal([]byte(extractJSON(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode generated question: %w", err)
	}

	if payload.QuestionText == "" || payload.Explanation == "" || payload.Options == nil || payload.CorrectOption == nil {
		return nil, fmt.Errorf("missing required keys in generated question")
	}
	if len(payload.Options) != 4 {
		return nil, fmt.Errorf("exactly 4 options required, got %d", len(payload.Options))
	}
	if *payload.CorrectOption < 0 || *payload.CorrectOption > 3 {
		return nil, fmt.Errorf("correct_option must be between 0 and 3, got %d", *payload.CorrectOption)
	}

	return &models.Question{
		TemplateID:     template.ID,
		QuestionText:   payload.QuestionText,
		Options:        payload.Options,
		CorrectOption:  *payload.CorrectOption,
		Explanation:    payload.Explanation,
		Difficulty:     template.TargetDifficulty,
		Discrimination: models.DefaultDiscrimination,
		Guessing:       models.DefaultGuessing,
	}, nil
}

// extractJSON strips a markdown code fence when the model wraps its answer in
// one.
func extractJSON(text string) string {
	if strings.Contains(text, "```") {
		parts := strings.Split(text, "```")
		if len(parts) > 1 {
			return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[1]), "json"))
		}
	}
	return strings.TrimSpace(text)
}

// fallbackQuestion keeps the practice loop alive when generation is down.
// Persisted like any other question so answers to it can be scored.
func fallbackQuestion(template *models.Template, concept *models.Concept) *models.Question {
	name := "this concept"
	if concept != nil && concept.Name != "" {
		name = concept.Name
	}

	return &models.Question{
		TemplateID:   template.ID,
		QuestionText: fmt.Sprintf("What best describes %s?", name),
		Options: []string{
			"A. A core concept related to the current topic",
			"B. An unrelated concept",
			fmt.Sprintf("C. The opposite of %s", name),
			"D. A deprecated idea",
		},
		CorrectOption:  0,
		Explanation:    "Fallback question due to generation failure.",
		Difficulty:     template.TargetDifficulty,
		Discrimination: models.DefaultDiscrimination,
		Guessing:       models.DefaultGuessing,
	}
}
