package handlers

import (
	"context"
	"net/http"

	"adaptive-service/internal/models"
	"adaptive-service/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler covers catalog seeding and read access for authoring tools.
type CatalogHandler struct {
	Service *service.CatalogService
}

func NewCatalogHandler(s *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Service: s}
}

// CreateConcept registers a concept with its prerequisite edges and known
// misconceptions.
func (h *CatalogHandler) CreateConcept(c *gin.Context) {
	var concept models.Concept
	if err := c.ShouldBindJSON(&concept); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.Service.CreateConcept(context.Background(), &concept); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, concept)
}

// CreateTemplate registers a question template under an existing concept.
func (h *CatalogHandler) CreateTemplate(c *gin.Context) {
	var template models.Template
	if err := c.ShouldBindJSON(&template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.Service.CreateTemplate(context.Background(), &template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListTemplates lists the templates registered under a topic.
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	topicID := c.Query("topic_id")
	if topicID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic_id is required"})
		return
	}

	templates, err := h.Service.ListTemplates(context.Background(), topicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "count": len(templates)})
}

// GetQuestion returns one stored question, including its answer key. Meant
// for authoring review, not learner delivery.
func (h *CatalogHandler) GetQuestion(c *gin.Context) {
	question, err := h.Service.GetQuestion(context.Background(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if question == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	c.JSON(http.StatusOK, question)
}
