package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// HistoryReader lists recorded queries.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]model.QueryRecord, error)
}

// HistoryHandler serves the query audit log.
type HistoryHandler struct {
	history HistoryReader
}

func NewHistoryHandler(history HistoryReader) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// List handles GET /api/v1/queries?limit=n.
func (h *HistoryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, err := h.history.Recent(c.Request.Context(), limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": err.Error(), "data": nil})
		return
	}
	if err != nil {
		log.Errorf("[HistoryHandler] failed to list queries: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "failed to retrieve query history", "data": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": records})
}
