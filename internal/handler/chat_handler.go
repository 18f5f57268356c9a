package handler

import (
	"fmt"
	"net/http"

	"agentic-rag-go/internal/service"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/requestid"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatHandler answers queries over a WebSocket, one text frame per query.
type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Handle upgrades GET /api/v1/chat and serves frames until the client goes away.
func (h *ChatHandler) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", err)
		return
	}
	defer conn.Close()
	connID, ok := requestid.FromContext(c.Request.Context())
	if !ok {
		connID = uuid.NewString()
	}
	log.Infow("websocket connected", "requestId", connID, "clientIP", c.ClientIP())

	// each frame is its own query, numbered under the connection's id
	for frame := 1; ; frame++ {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("[ChatHandler] read failed: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ctx := requestid.NewContext(c.Request.Context(), fmt.Sprintf("%s/%d", connID, frame))
		if err := h.chatService.Answer(ctx, string(message), conn); err != nil {
			log.Warnf("[ChatHandler] write failed, closing: %v", err)
			return
		}
	}
}
