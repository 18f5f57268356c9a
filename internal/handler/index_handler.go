package handler

import (
	"context"
	"net/http"

	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// IndexManager is the part of the index service the handlers need.
type IndexManager interface {
	Status() service.IndexStatus
	TriggerRebuild(ctx context.Context, reason string) (string, error)
}

// IndexHandler reports on and rebuilds the document index.
type IndexHandler struct {
	index IndexManager
}

func NewIndexHandler(index IndexManager) *IndexHandler {
	return &IndexHandler{index: index}
}

// Status handles GET /api/v1/index/status.
func (h *IndexHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": h.index.Status()})
}

// Rebuild handles POST /api/v1/index/rebuild. The rebuild runs asynchronously.
func (h *IndexHandler) Rebuild(c *gin.Context) {
	taskID, err := h.index.TriggerRebuild(c.Request.Context(), "api")
	if err != nil {
		log.Errorf("[IndexHandler] failed to trigger rebuild: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"code": http.StatusServiceUnavailable, "message": "failed to schedule rebuild", "data": nil})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "rebuild scheduled", "data": gin.H{"taskId": taskID}})
}
