package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"agentic-rag-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRecorder struct {
	frames []map[string]any
	err    error
}

func (f *frameRecorder) WriteMessage(_ int, data []byte) error {
	if f.err != nil {
		return f.err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	f.frames = append(f.frames, m)
	return nil
}

func TestChatService_AnswerThenCompletion(t *testing.T) {
	svc, _ := newStubService(model.RouteDirect, nil)
	w := &frameRecorder{}

	require.NoError(t, NewChatService(svc).Answer(context.Background(), "hello", w))
	require.Len(t, w.frames, 2)
	assert.Equal(t, "answer", w.frames[0]["type"])
	assert.Equal(t, "direct", w.frames[0]["route"])
	assert.Equal(t, "summary: direct content", w.frames[0]["answer"])
	assert.Equal(t, "completion", w.frames[1]["type"])
	assert.Equal(t, w.frames[0]["requestId"], w.frames[1]["requestId"])
}

func TestChatService_EmptyQueryFrame(t *testing.T) {
	svc, st := newStubService(model.RouteDirect, nil)
	w := &frameRecorder{}

	require.NoError(t, NewChatService(svc).Answer(context.Background(), " ", w))
	require.Len(t, w.frames, 1)
	assert.Equal(t, "error", w.frames[0]["type"])
	assert.Equal(t, ErrEmptyQuery.Error(), w.frames[0]["error"])
	assert.Zero(t, st.router.calls)
}

func TestChatService_WriteFailure(t *testing.T) {
	svc, _ := newStubService(model.RouteDirect, nil)
	boom := errors.New("connection reset")
	err := NewChatService(svc).Answer(context.Background(), "hello", &frameRecorder{err: boom})
	assert.ErrorIs(t, err, boom)
}
