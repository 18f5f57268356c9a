// Package handler contains the gin handlers of the HTTP API.
package handler

import (
	"errors"
	"net/http"

	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// QueryHandler answers single queries over HTTP.
type QueryHandler struct {
	queries service.Submitter
}

func NewQueryHandler(queries service.Submitter) *QueryHandler {
	return &QueryHandler{queries: queries}
}

type queryRequest struct {
	Query string `json:"query"`
}

// Query handles POST /api/v1/query.
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	answer, err := h.queries.Submit(c.Request.Context(), req.Query)
	if errors.Is(err, service.ErrEmptyQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error(), "data": nil})
		return
	}
	if err != nil {
		log.Errorf("[QueryHandler] submit failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "failed to answer query", "data": nil})
		return
	}

	c.Header("X-Request-ID", answer.RequestID)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": answer})
}
