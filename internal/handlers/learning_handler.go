package handlers

import (
	"context"
	"net/http"
	"strings"

	"adaptive-service/internal/auth"
	"adaptive-service/internal/engine"
	"adaptive-service/internal/event"

	"github.com/gin-gonic/gin"
)

// LearningHandler exposes the adaptive loop over HTTP. Publisher may be nil
// when the service runs without a broker.
type LearningHandler struct {
	Engine    *engine.Engine
	Publisher *event.EventPublisher
}

func NewLearningHandler(e *engine.Engine, p *event.EventPublisher) *LearningHandler {
	return &LearningHandler{Engine: e, Publisher: p}
}

// StartSession opens a learning session for the caller.
func (h *LearningHandler) StartSession(c *gin.Context) {
	var req struct {
		SubjectID string `json:"subject_id" binding:"required"`
		TopicID   string `json:"topic_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	session, err := h.Engine.StartSession(context.Background(), userID, req.SubjectID, req.TopicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start session",
			"details": err.Error(),
		})
		return
	}

	h.publish(event.SessionStarted, gin.H{
		"session_id": session.ID,
		"user_id":    userID,
		"topic_id":   req.TopicID,
	})

	c.JSON(http.StatusCreated, session)
}

// NextQuestion serves the next adaptively selected question.
func (h *LearningHandler) NextQuestion(c *gin.Context) {
	var req struct {
		TopicID string `json:"topic_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	question, err := h.Engine.NextQuestion(context.Background(), userID, req.TopicID)
	if err != nil {
		if strings.Contains(err.Error(), "no templates found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to select next question",
			"details": err.Error(),
		})
		return
	}

	h.publish(event.QuestionServed, gin.H{
		"user_id":     userID,
		"question_id": question.QuestionID,
		"template_id": question.TemplateID,
		"generated":   question.Generated,
	})

	c.JSON(http.StatusOK, question)
}

// ProcessResponse scores a submitted answer and returns feedback.
func (h *LearningHandler) ProcessResponse(c *gin.Context) {
	var req struct {
		QuestionID          string  `json:"question_id" binding:"required"`
		TemplateID          string  `json:"template_id" binding:"required"`
		ConceptID           string  `json:"concept_id" binding:"required"`
		SelectedOptionIndex *int    `json:"selected_option_index" binding:"required"`
		ResponseTime        float64 `json:"response_time"`
		SessionID           string  `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	feedback, err := h.Engine.ProcessResponse(context.Background(), engine.ResponseInput{
		UserID:              userID,
		QuestionID:          req.QuestionID,
		TemplateID:          req.TemplateID,
		ConceptID:           req.ConceptID,
		SelectedOptionIndex: *req.SelectedOptionIndex,
		ResponseTime:        req.ResponseTime,
		SessionID:           req.SessionID,
	})
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process response",
			"details": err.Error(),
		})
		return
	}

	h.publish(event.ResponseProcessed, gin.H{
		"user_id":     userID,
		"question_id": req.QuestionID,
		"correct":     feedback.Correct,
		"mastery":     feedback.UpdatedMastery,
	})

	c.JSON(http.StatusOK, feedback)
}

// EndSession closes a session and returns its summary counters.
func (h *LearningHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("id")

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	session, err := h.Engine.EndSession(context.Background(), sessionID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to end session",
			"details": err.Error(),
		})
		return
	}

	h.publish(event.SessionEnded, gin.H{
		"session_id":          session.ID,
		"user_id":             userID,
		"questions_attempted": session.QuestionsAttempted,
		"questions_correct":   session.QuestionsCorrect,
	})

	c.JSON(http.StatusOK, session)
}

func (h *LearningHandler) requireUser(c *gin.Context) (string, bool) {
	userID, err := auth.UserIDFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
		return "", false
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID is required"})
		return "", false
	}
	return userID, true
}

func (h *LearningHandler) publish(eventType string, payload interface{}) {
	if h.Publisher == nil {
		return
	}
	if err := h.Publisher.Publish(eventType, payload); err != nil {
		// Events are best-effort; the learning loop must not fail on them.
		return
	}
}
