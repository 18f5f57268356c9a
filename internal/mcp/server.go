// Package mcp exposes the query pipeline as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"

	"agentic-rag-go/internal/model"
	"agentic-rag-go/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingQueryService is returned by NewServer without a query service.
var ErrMissingQueryService = errors.New("mcp server requires a query service")

// Submitter answers one query.
type Submitter interface {
	Submit(ctx context.Context, query string) (*model.Answer, error)
}

// StatusReporter describes the served index. Optional.
type StatusReporter interface {
	Status() service.IndexStatus
}

// Server is the MCP server.
type Server struct {
	queries Submitter
	index   StatusReporter
	server  *mcp.Server
}

// NewServer registers the ask tool, plus index_status when index is non-nil.
func NewServer(queries Submitter, index StatusReporter) (*Server, error) {
	if queries == nil {
		return nil, ErrMissingQueryService
	}
	s := &Server{
		queries: queries,
		index:   index,
		server:  mcp.NewServer(&mcp.Implementation{Name: "agentic-rag-go", Version: Version}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// AskInput is the input schema of the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer"`
}

// AskOutput is the output schema of the ask tool.
type AskOutput struct {
	Answer       string `json:"answer"`
	Route        string `json:"route"`
	RequestID    string `json:"request_id"`
	BranchFailed bool   `json:"branch_failed"`
}

// StatusInput is the (empty) input schema of the index_status tool.
type StatusInput struct{}

// StatusOutput is the output schema of the index_status tool.
type StatusOutput struct {
	Present   bool   `json:"present"`
	Backend   string `json:"backend,omitempty"`
	Chunks    int    `json:"chunks"`
	Documents int    `json:"documents"`
	Building  bool   `json:"building"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using web search, the local document index or the model itself",
	}, s.handleAsk)

	if s.index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_status",
			Description: "Report whether a document index is loaded and how many chunks it holds",
		}, s.handleStatus)
	}
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.queries.Submit(ctx, input.Query)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:       answer.Text,
		Route:        answer.Route.String(),
		RequestID:    answer.RequestID,
		BranchFailed: answer.BranchFailed,
	}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	st := s.index.Status()
	return nil, StatusOutput{
		Present:   st.Present,
		Backend:   st.Backend,
		Chunks:    st.Chunks,
		Documents: st.LastStats.Documents,
		Building:  st.Building,
		LastError: st.LastError,
	}, nil
}
