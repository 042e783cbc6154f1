package service

import (
	"context"
	"fmt"

	"adaptive-service/internal/models"
	"adaptive-service/internal/repository"
)

// CatalogService covers the seeding surface: concepts and templates in,
// questions out. The full catalog CRUD lives outside this service.
type CatalogService struct {
	Concepts  *repository.ConceptRepository
	Templates *repository.TemplateRepository
	Questions *repository.QuestionRepository
}

func NewCatalogService(
	concepts *repository.ConceptRepository,
	templates *repository.TemplateRepository,
	questions *repository.QuestionRepository,
) *CatalogService {
	return &CatalogService{Concepts: concepts, Templates: templates, Questions: questions}
}

func (s *CatalogService) CreateConcept(ctx context.Context, concept *models.Concept) error {
	if concept.Name == "" {
		return fmt.Errorf("concept name is required")
	}
	if concept.TopicID == "" {
		return fmt.Errorf("concept topic_id is required")
	}
	return s.Concepts.Create(ctx, concept)
}

func (s *CatalogService) CreateTemplate(ctx context.Context, template *models.Template) error {
	if template.ConceptID == "" || template.TopicID == "" {
		return fmt.Errorf("template concept_id and topic_id are required")
	}
	if template.TargetDifficulty < 0 || template.TargetDifficulty > 1 {
		return fmt.Errorf("target_difficulty must be between 0 and 1")
	}

	concept, err := s.Concepts.Concept(ctx, template.ConceptID)
	if err != nil {
		return err
	}
	if concept == nil {
		return fmt.Errorf("concept %s not found", template.ConceptID)
	}

	return s.Templates.Create(ctx, template)
}

func (s *CatalogService) ListTemplates(ctx context.Context, topicID string) ([]models.Template, error) {
	return s.Templates.CandidateTemplates(ctx, topicID)
}

func (s *CatalogService) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	return s.Questions.QuestionByID(ctx, questionID)
}
