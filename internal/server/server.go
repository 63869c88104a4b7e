// Package server exposes the Salesforce tool surface over the Model
// Context Protocol. The default transport is stdio (one client, the
// spawning agent); an optional HTTP mode serves the streamable MCP
// endpoint behind a chi router for shared deployments.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/sfmcp/internal/domain/audit"
	"github.com/matiasleandrokruk/sfmcp/internal/domain/org"
	"github.com/matiasleandrokruk/sfmcp/internal/version"
)

// HTTPConfig holds timeouts for the optional HTTP transport.
type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultHTTPConfig returns the HTTP transport defaults.
// WriteTimeout is generous: SOQL queries against a slow org can take a
// while and the MCP response streams over the same connection.
func DefaultHTTPConfig(addr string) HTTPConfig {
	return HTTPConfig{
		Addr:         addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server owns the MCP server and its four registered tools.
type Server struct {
	org   *org.Service
	audit *audit.Service
	mcp   *mcp.Server
}

// New creates the MCP server and registers the tool set. auditSvc may be
// nil, in which case invocations are not recorded.
func New(orgSvc *org.Service, auditSvc *audit.Service) *Server {
	s := &Server{org: orgSvc, audit: auditSvc}

	m := mcp.NewServer(&mcp.Implementation{
		Name:    "sfmcp",
		Version: version.Version,
	}, nil)

	mcp.AddTool(m, &mcp.Tool{
		Name:        "list_objects",
		Description: "List all Salesforce objects (standard and custom) available in the connected org, with their capability flags.",
	}, s.handleListObjects)

	mcp.AddTool(m, &mcp.Tool{
		Name:        "describe_object",
		Description: "Describe one Salesforce object: its fields with type, length, required flag, picklist values, and reference targets.",
	}, s.handleDescribeObject)

	mcp.AddTool(m, &mcp.Tool{
		Name:        "execute_soql_query",
		Description: "Execute a read-only SOQL query against the connected org and return the rows in a tabular envelope.",
	}, s.handleExecuteQuery)

	mcp.AddTool(m, &mcp.Tool{
		Name:        "get_soql_help",
		Description: "Return a SOQL syntax reference: operators, date literals, aggregate functions, escaping rules, and common errors.",
	}, s.handleSOQLHelp)

	s.mcp = m
	return s
}

// Run serves MCP over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable MCP endpoint at /mcp plus a /health probe.
// Blocks until ctx is cancelled, then drains in-flight requests.
func (s *Server) RunHTTP(ctx context.Context, cfg HTTPConfig) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
	r.Handle("/mcp", handler)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen on %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// ─── tool handlers ───────────────────────────────────────────────────────────

type listObjectsInput struct{}

type describeObjectInput struct {
	ObjectName string `json:"object_name" jsonschema:"API name of the object to describe (custom objects end in __c)"`
}

type executeQueryInput struct {
	Query string `json:"query" jsonschema:"the SOQL query to execute, passed to Salesforce verbatim"`
}

type soqlHelpInput struct{}

func (s *Server) handleListObjects(ctx context.Context, _ *mcp.CallToolRequest, _ listObjectsInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	out, err := s.org.ListObjects(ctx)
	s.record(ctx, "list_objects", start, err)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out)
}

func (s *Server) handleDescribeObject(ctx context.Context, _ *mcp.CallToolRequest, in describeObjectInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	out, err := s.org.DescribeObject(ctx, in.ObjectName)
	s.record(ctx, "describe_object", start, err)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out)
}

func (s *Server) handleExecuteQuery(ctx context.Context, _ *mcp.CallToolRequest, in executeQueryInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	out, err := s.org.ExecuteQuery(ctx, in.Query)
	s.record(ctx, "execute_soql_query", start, err)
	if err != nil {
		return nil, nil, err
	}
	return textResult(out)
}

func (s *Server) handleSOQLHelp(ctx context.Context, _ *mcp.CallToolRequest, _ soqlHelpInput) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	doc := org.SOQLHelp()
	s.record(ctx, "get_soql_help", start, nil)
	// The help document is returned byte-for-byte; marshaling a RawMessage
	// would compact it.
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(doc)}},
	}, nil, nil
}

// textResult serializes v and wraps it as a single text content block.
// Serialization happens here, not in the SDK, so Record's ordered keys
// survive (rows marshal through their own MarshalJSON).
func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("server: marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// record appends to the audit trail; a failure to audit never fails the
// tool call itself.
func (s *Server) record(ctx context.Context, tool string, start time.Time, err error) {
	outcome := audit.OutcomeSuccess
	detail := ""
	if err != nil {
		outcome = audit.OutcomeError
		detail = err.Error()
	}
	if recErr := s.audit.Record(ctx, tool, outcome, detail, time.Since(start)); recErr != nil {
		log.Printf("audit record failed: %v", recErr)
	}
}
