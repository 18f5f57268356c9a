package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/internal/pipeline"
	"agentic-rag-go/pkg/requestid"
	"agentic-rag-go/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSet struct {
	router    *fixedRouter
	web       *countingResponder
	retrieval *countingResponder
	direct    *countingResponder
	summary   *echoSummarizer
	recorder  *memoryRecorder
}

func newStubService(route model.Route, idx index.VectorIndex) (*QueryService, *stubSet) {
	st := &stubSet{
		router:    &fixedRouter{route: route},
		web:       &countingResponder{result: Succeeded(model.RouteWeb, "web content")},
		retrieval: &countingResponder{result: Succeeded(model.RouteRetrieval, "doc content")},
		direct:    &countingResponder{result: Succeeded(model.RouteDirect, "direct content")},
		summary:   &echoSummarizer{},
		recorder:  &memoryRecorder{},
	}
	svc := NewQueryService(st.router, st.web, st.retrieval, st.direct, st.summary, index.NewHolder(idx), st.recorder)
	return svc, st
}

func TestSubmit_RejectsEmptyQueryBeforeRouting(t *testing.T) {
	svc, st := newStubService(model.RouteDirect, nil)
	for _, q := range []string{"", "   ", "\n\t"} {
		answer, err := svc.Submit(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.Nil(t, answer)
	}
	assert.Zero(t, st.router.calls)
	assert.Empty(t, st.recorder.records)
}

func TestSubmit_RunsExactlyOneBranch(t *testing.T) {
	idx := buildIndex(t, model.Chunk{ID: "a#0", DocumentID: "a.txt", Text: "a"})
	tests := []struct {
		route model.Route
		want  string
	}{
		{model.RouteWeb, "web content"},
		{model.RouteRetrieval, "doc content"},
		{model.RouteDirect, "direct content"},
	}
	for _, tt := range tests {
		t.Run(tt.route.String(), func(t *testing.T) {
			svc, st := newStubService(tt.route, idx)
			answer, err := svc.Submit(context.Background(), "  a question  ")
			require.NoError(t, err)

			assert.Equal(t, tt.route, answer.Route)
			assert.Equal(t, "summary: "+tt.want, answer.Text)
			assert.Equal(t, "a question", answer.Query)
			assert.NotEmpty(t, answer.RequestID)
			assert.False(t, answer.BranchFailed)
			assert.Equal(t, 1, st.router.calls)
			assert.Equal(t, 1, st.web.calls+st.retrieval.calls+st.direct.calls)
			assert.Equal(t, []string{tt.want}, st.summary.inputs)
		})
	}
}

func TestSubmit_RetrievalWithoutIndexRunsDirect(t *testing.T) {
	svc, st := newStubService(model.RouteRetrieval, nil)
	answer, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, model.RouteDirect, answer.Route)
	assert.Zero(t, st.retrieval.calls)
	assert.Equal(t, 1, st.direct.calls)
}

func TestSubmit_UnknownRouteRunsDirect(t *testing.T) {
	svc, st := newStubService(model.Route("bogus"), nil)
	answer, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, model.RouteDirect, answer.Route)
	assert.Equal(t, 1, st.direct.calls)
}

func TestSubmit_EmptyBranchAndSummaryStillAnswer(t *testing.T) {
	svc, st := newStubService(model.RouteDirect, nil)
	st.direct.result = Succeeded(model.RouteDirect, "")
	st.summary.out = " "

	answer, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, emptyBranchContent, answer.Text)
}

func TestSubmit_RecordsAnswer(t *testing.T) {
	svc, st := newStubService(model.RouteWeb, nil)
	st.web.result = Failed(model.RouteWeb, errors.New("offline"))

	answer, err := svc.Submit(context.Background(), "news today")
	require.NoError(t, err)
	assert.True(t, answer.BranchFailed)

	require.Len(t, st.recorder.records, 1)
	rec := st.recorder.records[0]
	assert.Equal(t, answer.RequestID, rec.RequestID)
	assert.Equal(t, "news today", rec.Query)
	assert.Equal(t, "web", rec.Route)
	assert.Equal(t, "summary: Web search failed: offline", rec.Answer)
	assert.True(t, rec.BranchFailed)
}

func TestSubmit_RecorderFailureDoesNotFailQuery(t *testing.T) {
	svc, st := newStubService(model.RouteDirect, nil)
	st.recorder.err = errors.New("db down")
	answer, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Text)
}

func TestSubmit_SnapshotsIndexOncePerQuery(t *testing.T) {
	first := buildIndex(t, model.Chunk{ID: "a#0", DocumentID: "a.txt", Text: "a"})
	svc, st := newStubService(model.RouteRetrieval, first)

	second := buildIndex(t, model.Chunk{ID: "b#0", DocumentID: "b.txt", Text: "b"})
	_, err := svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Same(t, first, st.retrieval.gotIdx)

	svc.holder.Swap(second)
	_, err = svc.Submit(context.Background(), "q")
	require.NoError(t, err)
	assert.Same(t, second, st.retrieval.gotIdx)
}

func TestSubmit_UsesRequestIDFromContext(t *testing.T) {
	svc, st := newStubService(model.RouteDirect, nil)
	answer, err := svc.Submit(requestid.NewContext(context.Background(), "abc-123"), "q")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", answer.RequestID)
	require.Len(t, st.recorder.records, 1)
	assert.Equal(t, "abc-123", st.recorder.records[0].RequestID)
}

// gatedEmbedder blocks on the first embedding of query until resume is closed.
type gatedEmbedder struct {
	letterEmbedder
	query   string
	once    sync.Once
	entered chan struct{}
	resume  chan struct{}
}

func (g *gatedEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == g.query {
		g.once.Do(func() {
			close(g.entered)
			<-g.resume
		})
	}
	return g.letterEmbedder.CreateEmbedding(ctx, text)
}

func TestSubmit_InFlightQueryFinishesAgainstReplacedIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(strings.Repeat("a", 120)), 0o644))

	policy := retry.Policy{}
	prompts := NewPrompts(configPrompts())
	splitter, err := pipeline.NewSplitter(500, 50)
	require.NoError(t, err)
	factory := &trackingFactory{}
	holder := index.NewHolder(nil)
	builder := pipeline.NewBuilder(splitter, letterEmbedder{}, factory.build, policy, 2)
	indexSvc := NewIndexService(dir, pipeline.NewIngestor(nil), builder, holder, nil, nil)
	_, err = indexSvc.Rebuild(context.Background())
	require.NoError(t, err)

	client := &scriptedLLM{replies: map[string]string{
		routerPrefix:    "rag",
		retrievalPrefix: "All a's.",
		summarizePrefix: "A's.",
	}}
	query := "what is in my notes?"
	embedder := &gatedEmbedder{query: query, entered: make(chan struct{}), resume: make(chan struct{})}
	svc := NewQueryService(
		NewRouter(client, prompts, nil, policy),
		NewWebResponder(&fakeSearch{}, policy),
		NewRetrievalResponder(embedder, client, prompts, 4, policy),
		NewDirectResponder(client, prompts, policy),
		NewSynthesizer(client, prompts, policy),
		holder,
		nil,
	)

	done := make(chan *model.Answer, 1)
	go func() {
		answer, err := svc.Submit(context.Background(), query)
		assert.NoError(t, err)
		done <- answer
	}()
	<-embedder.entered

	_, err = indexSvc.Rebuild(context.Background())
	require.NoError(t, err)
	first := factory.get(0)
	assert.NotSame(t, first, holder.Load())
	assert.False(t, first.closed.Load(), "a leased index stays open across a rebuild")

	close(embedder.resume)
	answer := <-done
	require.NotNil(t, answer)
	assert.Equal(t, model.RouteRetrieval, answer.Route)
	assert.False(t, answer.BranchFailed)
	assert.Equal(t, "A's.", answer.Text)

	assert.Eventually(t, first.closed.Load, time.Second, 5*time.Millisecond)
	require.NoError(t, indexSvc.Close(context.Background()))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "INIT", StateInit.String())
	assert.Equal(t, "BRANCH_EXECUTED", StateBranchExecuted.String())
	assert.Equal(t, "DONE", StateDone.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// pipelineService wires the real router, responders, synthesizer and index service around
// scripted external clients.
func pipelineService(t *testing.T, dir string, client *scriptedLLM, search *fakeSearch) (*QueryService, *IndexService) {
	t.Helper()
	policy := retry.Policy{MaxRetries: 1}
	prompts := NewPrompts(configPrompts())
	splitter, err := pipeline.NewSplitter(500, 50)
	require.NoError(t, err)

	holder := index.NewHolder(nil)
	builder := pipeline.NewBuilder(splitter, letterEmbedder{}, index.NewMemory, policy, 2)
	indexSvc := NewIndexService(dir, pipeline.NewIngestor(nil), builder, holder, nil, nil)
	_, err = indexSvc.Rebuild(context.Background())
	require.NoError(t, err)

	svc := NewQueryService(
		NewRouter(client, prompts, nil, policy),
		NewWebResponder(search, policy),
		NewRetrievalResponder(letterEmbedder{}, client, prompts, 4, policy),
		NewDirectResponder(client, prompts, policy),
		NewSynthesizer(client, prompts, policy),
		holder,
		nil,
	)
	return svc, indexSvc
}

func TestScenario_EmptyFolderAnswersDirectly(t *testing.T) {
	client := &scriptedLLM{replies: map[string]string{
		routerPrefix:    "llm",
		"What is 2+2?":  "2+2 equals 4.",
		summarizePrefix: "4.",
	}}
	svc, indexSvc := pipelineService(t, t.TempDir(), client, &fakeSearch{})
	assert.False(t, indexSvc.Status().Present)

	answer, err := svc.Submit(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, model.RouteDirect, answer.Route)
	assert.Equal(t, "4.", answer.Text)
	summaries := client.promptsWithPrefix(summarizePrefix)
	require.Len(t, summaries, 1)
	assert.Contains(t, summaries[0], "2+2 equals 4.")
}

func TestScenario_SingleFileRetrieval(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("a", 450) + strings.Repeat("o", 150)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(text), 0o644))

	client := &scriptedLLM{replies: map[string]string{
		routerPrefix:    "rag",
		retrievalPrefix: "The notes are mostly a's.",
		summarizePrefix: "Mostly a's.",
	}}
	svc, indexSvc := pipelineService(t, dir, client, &fakeSearch{})

	status := indexSvc.Status()
	assert.True(t, status.Present)
	assert.Equal(t, 2, status.Chunks)
	assert.Equal(t, 1, status.LastStats.Documents)

	answer, err := svc.Submit(context.Background(), "what do my notes contain?")
	require.NoError(t, err)
	assert.Equal(t, model.RouteRetrieval, answer.Route)
	assert.Equal(t, "Mostly a's.", answer.Text)

	grounded := client.promptsWithPrefix(retrievalPrefix)
	require.Len(t, grounded, 1)
	assert.Contains(t, grounded[0], "(notes.txt) "+strings.Repeat("a", 100))
}

func TestScenario_WebTimeoutStillAnswers(t *testing.T) {
	client := &scriptedLLM{
		replies: map[string]string{routerPrefix: "web"},
		errs:    map[string]error{summarizePrefix: errors.New("model overloaded")},
	}
	search := &fakeSearch{err: context.DeadlineExceeded}
	svc, _ := pipelineService(t, t.TempDir(), client, search)

	answer, err := svc.Submit(context.Background(), "latest headlines")
	require.NoError(t, err)
	assert.Equal(t, model.RouteWeb, answer.Route)
	assert.True(t, answer.BranchFailed)
	assert.Equal(t, "Web search failed: context deadline exceeded", answer.Text)
}
