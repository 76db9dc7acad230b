package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/conduitedeprojet/testrunner/internal/api/middleware"
	"github.com/conduitedeprojet/testrunner/internal/domain/snippets"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

// ListSnippets lists the saved tests of an issue
func (h *Handlers) ListSnippets(c *gin.Context) {
	list, err := h.snippets.List(c.Request.Context(), c.Param("projectId"), c.Param("issueId"))
	if err != nil {
		h.snippetError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateSnippet saves a program/tests pair under an issue
func (h *Handlers) CreateSnippet(c *gin.Context) {
	var in types.SnippetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	snippet, err := h.snippets.Create(c.Request.Context(), c.Param("projectId"), c.Param("issueId"), in)
	if err != nil {
		h.snippetError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snippet)
}

// GetSnippet returns one saved test
func (h *Handlers) GetSnippet(c *gin.Context) {
	snippet, err := h.snippets.Get(c.Request.Context(), c.Param("projectId"), c.Param("issueId"), c.Param("testId"))
	if err != nil {
		h.snippetError(c, err)
		return
	}
	c.JSON(http.StatusOK, snippet)
}

// UpdateSnippet replaces the code of a saved test
func (h *Handlers) UpdateSnippet(c *gin.Context) {
	var in types.SnippetInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	snippet, err := h.snippets.Update(c.Request.Context(), c.Param("projectId"), c.Param("issueId"), c.Param("testId"), in)
	if err != nil {
		h.snippetError(c, err)
		return
	}
	c.JSON(http.StatusOK, snippet)
}

// DeleteSnippet removes a saved test
func (h *Handlers) DeleteSnippet(c *gin.Context) {
	if err := h.snippets.Delete(c.Request.Context(), c.Param("projectId"), c.Param("issueId"), c.Param("testId")); err != nil {
		h.snippetError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunSnippet executes a saved test
func (h *Handlers) RunSnippet(c *gin.Context) {
	record, err := h.snippets.Run(c.Request.Context(), c.Param("projectId"), c.Param("issueId"), c.Param("testId"))
	if err != nil {
		if errors.Is(err, snippets.ErrNotFound) {
			h.snippetError(c, err)
			return
		}
		msg := err.Error()
		c.JSON(schedulingStatus(err), types.RunResponse{Success: false, Error: &msg})
		return
	}

	c.Header(middleware.RunIDHeader, record.ID)
	c.JSON(http.StatusOK, record.Response)
}

func (h *Handlers) snippetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, snippets.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, snippets.ErrInvalidSnippet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Snippet operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
