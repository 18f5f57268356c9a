package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentic-rag-go/internal/index"
	"agentic-rag-go/internal/model"
	"agentic-rag-go/pkg/log"
	"agentic-rag-go/pkg/requestid"

	"github.com/google/uuid"
)

// State is a step of a query traversal.
type State int

const (
	StateInit State = iota
	StateRouted
	StateBranchExecuted
	StateSummarized
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRouted:
		return "ROUTED"
	case StateBranchExecuted:
		return "BRANCH_EXECUTED"
	case StateSummarized:
		return "SUMMARIZED"
	case StateDone:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// emptyBranchContent stands in for a branch that succeeded with nothing to say.
const emptyBranchContent = "No content was produced for this question."

// QueryRecorder persists finished queries.
type QueryRecorder interface {
	Create(ctx context.Context, record *model.QueryRecord) error
}

// traversal is the per-query state. Nothing in it outlives the request.
type traversal struct {
	requestID string
	query     string
	idx       index.VectorIndex
	state     State
	route     model.Route
	branch    BranchResult
	final     string
}

type stateHandler func(ctx context.Context, t *traversal) State

// QueryService runs a query through router, one responder and the synthesizer.
type QueryService struct {
	router     RouteClassifier
	responders map[model.Route]Responder
	summarizer Summarizer
	holder     *index.Holder
	recorder   QueryRecorder
	handlers   map[State]stateHandler
}

// NewQueryService wires the executor. recorder may be nil.
func NewQueryService(router RouteClassifier, web, retrieval, direct Responder, summarizer Summarizer, holder *index.Holder, recorder QueryRecorder) *QueryService {
	s := &QueryService{
		router: router,
		responders: map[model.Route]Responder{
			model.RouteWeb:       web,
			model.RouteRetrieval: retrieval,
			model.RouteDirect:    direct,
		},
		summarizer: summarizer,
		holder:     holder,
		recorder:   recorder,
	}
	s.handlers = map[State]stateHandler{
		StateInit:           s.route,
		StateRouted:         s.executeBranch,
		StateBranchExecuted: s.summarize,
		StateSummarized:     s.finish,
	}
	return s
}

// Submit answers query. The only error is ErrEmptyQuery; every other failure is folded into
// the answer text. The request id is taken from ctx when the caller set one.
func (s *QueryService) Submit(ctx context.Context, query string) (*model.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	idx, release := s.holder.Acquire()
	defer release()
	requestID, ok := requestid.FromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	t := &traversal{
		requestID: requestID,
		query:     query,
		idx:       idx,
		state:     StateInit,
	}
	log.Infow("query received", "requestId", t.requestID, "indexPresent", t.idx != nil)

	for t.state != StateDone {
		handler, ok := s.handlers[t.state]
		if !ok {
			panic(fmt.Sprintf("no handler for state %s", t.state))
		}
		next := handler(ctx, t)
		log.Debugf("[Workflow] %s: %s -> %s", t.requestID, t.state, next)
		t.state = next
	}

	answer := &model.Answer{
		RequestID:    t.requestID,
		Query:        t.query,
		Route:        t.route,
		Text:         t.final,
		BranchFailed: !t.branch.Ok(),
		Duration:     time.Since(start),
	}
	log.Infow("query answered", "requestId", answer.RequestID, "route", answer.Route,
		"branchFailed", answer.BranchFailed, "latency", answer.Duration)
	s.record(answer)
	return answer, nil
}

func (s *QueryService) route(ctx context.Context, t *traversal) State {
	t.route = s.router.Route(ctx, t.query, t.idx != nil)
	if !t.route.Valid() || (t.route == model.RouteRetrieval && t.idx == nil) {
		t.route = model.RouteDirect
	}
	return StateRouted
}

func (s *QueryService) executeBranch(ctx context.Context, t *traversal) State {
	t.branch = s.responders[t.route].Respond(ctx, t.query, t.idx)
	if strings.TrimSpace(t.branch.Content) == "" {
		t.branch.Content = emptyBranchContent
	}
	return StateBranchExecuted
}

func (s *QueryService) summarize(ctx context.Context, t *traversal) State {
	t.final = s.summarizer.Synthesize(ctx, t.branch.Content)
	if strings.TrimSpace(t.final) == "" {
		t.final = t.branch.Content
	}
	return StateSummarized
}

func (s *QueryService) finish(_ context.Context, _ *traversal) State {
	return StateDone
}

// record writes the audit row detached from the request so a cancelled caller still leaves a trace.
func (s *QueryService) record(a *model.Answer) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.recorder.Create(ctx, &model.QueryRecord{
		RequestID:    a.RequestID,
		Query:        a.Query,
		Route:        a.Route.String(),
		Answer:       a.Text,
		BranchFailed: a.BranchFailed,
		LatencyMS:    a.Duration.Milliseconds(),
	})
	if err != nil {
		log.Errorf("[Workflow] failed to record query %s: %v", a.RequestID, err)
	}
}
