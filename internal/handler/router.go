package handler

import (
	"net/http"

	"agentic-rag-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers mounted by NewRouter.
type Handlers struct {
	Query   *QueryHandler
	Index   *IndexHandler
	History *HistoryHandler
	Chat    *ChatHandler
}

// NewRouter builds the gin engine with every API route.
func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "ok", "data": nil})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/query", h.Query.Query)
		api.GET("/chat", h.Chat.Handle)
		api.GET("/queries", h.History.List)

		index := api.Group("/index")
		index.GET("/status", h.Index.Status)
		index.POST("/rebuild", h.Index.Rebuild)
	}
	return r
}
