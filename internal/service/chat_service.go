package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/llm"
	"agentic-rag-go/pkg/log"

	"github.com/gorilla/websocket"
)

// Submitter answers one query.
type Submitter interface {
	Submit(ctx context.Context, query string) (*model.Answer, error)
}

// ChatService answers chat frames over a message stream such as a WebSocket.
type ChatService interface {
	Answer(ctx context.Context, query string, w llm.MessageWriter) error
}

type chatService struct {
	queries Submitter
}

func NewChatService(queries Submitter) ChatService {
	return &chatService{queries: queries}
}

// Answer writes the answer frame followed by a completion frame. An empty query gets an error
// frame instead; write failures are returned.
func (s *chatService) Answer(ctx context.Context, query string, w llm.MessageWriter) error {
	answer, err := s.queries.Submit(ctx, query)
	if errors.Is(err, ErrEmptyQuery) {
		return writeJSON(w, map[string]any{"type": "error", "error": err.Error()})
	}
	if err != nil {
		return err
	}
	if err := writeJSON(w, map[string]any{
		"type":         "answer",
		"requestId":    answer.RequestID,
		"route":        answer.Route,
		"answer":       answer.Text,
		"branchFailed": answer.BranchFailed,
	}); err != nil {
		return err
	}
	return sendCompletion(w, answer.RequestID)
}

func sendCompletion(w llm.MessageWriter, requestID string) error {
	return writeJSON(w, map[string]any{
		"type":      "completion",
		"status":    "finished",
		"requestId": requestID,
		"timestamp": time.Now().UnixMilli(),
	})
}

func writeJSON(w llm.MessageWriter, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("[ChatService] marshal frame: %v", err)
		return err
	}
	return w.WriteMessage(websocket.TextMessage, b)
}
