// Package mcp exposes the second brain over the Model Context Protocol
// so external agents can ingest documents, ask questions, and run web
// research through standard MCP tool calls.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aryal0/secondbrain/internal/brain"
	"github.com/aryal0/secondbrain/internal/log"
	"github.com/aryal0/secondbrain/internal/research"
)

// Server wraps the MCP SDK server around the brain engine.
type Server struct {
	mcpServer  *mcp.Server
	engine     *brain.Engine
	researcher *research.Researcher
	logger     log.Logger
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// NewServer creates an MCP server exposing the engine's tools. The
// researcher is optional; when nil the research tool is not registered.
func NewServer(cfg Config, engine *brain.Engine, researcher *research.Researcher, logger log.Logger) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		engine:     engine,
		researcher: researcher,
		logger:     logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}
	return s, nil
}

// Run starts the server on the given transport. Blocking.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

func (s *Server) registerTools() error {
	if err := s.registerIngest(); err != nil {
		return err
	}
	if err := s.registerAsk(); err != nil {
		return err
	}
	if s.researcher != nil {
		if err := s.registerResearch(); err != nil {
			return err
		}
	}
	return nil
}

// IngestInput defines the input schema for the ingest tool.
type IngestInput struct {
	User    string `json:"user" jsonschema:"The identity whose knowledge base receives the text"`
	Text    string `json:"text" jsonschema:"The raw text to summarize, chunk and embed"`
	Rebuild bool   `json:"rebuild,omitempty" jsonschema:"Replace the entire knowledge base with this text instead of appending"`
	Source  string `json:"source,omitempty" jsonschema:"Optional source file name recorded in chunk metadata"`
}

func (s *Server) registerIngest() error {
	inputSchema, err := jsonschema.For[IngestInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create ingest schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "second_brain_ingest",
		Description: "Store text in a user's knowledge base. The text is summarized, split into chunks and embedded for later retrieval. Appends by default; set rebuild to replace everything.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in IngestInput) (*mcp.CallToolResult, any, error) {
		var opts []brain.IngestOption
		if in.Rebuild {
			opts = append(opts, brain.WithRebuild())
		}
		if in.Source != "" {
			opts = append(opts, brain.WithSourceFile(in.Source))
		}

		result, err := s.engine.Ingest(ctx, in.User, in.Text, opts...)
		if err != nil {
			if errors.Is(err, brain.ErrInvalidInput) {
				return toolError(fmt.Sprintf("Error: %v", err)), nil, nil
			}
			return nil, nil, fmt.Errorf("ingest failed: %w", err)
		}

		text := fmt.Sprintf("Status: %s. Total chunks stored: %d.", result.Status, result.TotalChunks)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	})
	return nil
}

// AskInput defines the input schema for the ask tool.
type AskInput struct {
	User     string `json:"user" jsonschema:"The identity whose knowledge base is queried"`
	Question string `json:"question" jsonschema:"The question to answer from stored knowledge"`
}

func (s *Server) registerAsk() error {
	inputSchema, err := jsonschema.For[AskInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create ask schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "second_brain_ask",
		Description: "Answer a question from a user's knowledge base using retrieval-augmented generation. Says so explicitly when the stored documents cannot answer the question.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, any, error) {
		answer, err := s.engine.Ask(ctx, in.User, in.Question)
		if err != nil {
			if errors.Is(err, brain.ErrInvalidInput) {
				return toolError(fmt.Sprintf("Error: %v", err)), nil, nil
			}
			return nil, nil, fmt.Errorf("ask failed: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: answer}},
		}, nil, nil
	})
	return nil
}

// ResearchInput defines the input schema for the research tool.
type ResearchInput struct {
	User   string   `json:"user,omitempty" jsonschema:"Identity whose knowledge base receives the summary when ingest is true"`
	URLs   []string `json:"urls" jsonschema:"Article URLs to fetch and summarize"`
	Ingest bool     `json:"ingest,omitempty" jsonschema:"Also store the combined summary in the user's knowledge base"`
}

func (s *Server) registerResearch() error {
	inputSchema, err := jsonschema.For[ResearchInput](nil)
	if err != nil {
		return fmt.Errorf("failed to create research schema: %w", err)
	}

	tool := &mcp.Tool{
		Name:        "second_brain_research",
		Description: "Fetch and summarize a list of article URLs into one combined summary, optionally storing it in a user's knowledge base.",
		InputSchema: inputSchema,
	}

	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, in ResearchInput) (*mcp.CallToolResult, any, error) {
		result, err := s.handleResearch(ctx, in)
		return result, nil, err
	})
	return nil
}

func (s *Server) handleResearch(ctx context.Context, in ResearchInput) (*mcp.CallToolResult, error) {
	// Without a user the summary would land in the shared anonymous
	// collection, so ingest requires an explicit identity.
	if in.Ingest && in.User == "" {
		return toolError("Error: user is required when ingest is true"), nil
	}

	summary, err := s.researcher.Research(ctx, in.URLs)
	if err != nil {
		if errors.Is(err, research.ErrNoResults) {
			return toolError(fmt.Sprintf("Error: %v", err)), nil
		}
		return nil, fmt.Errorf("research failed: %w", err)
	}

	if in.Ingest {
		result, err := s.engine.Ingest(ctx, in.User, summary)
		if err != nil {
			return nil, fmt.Errorf("ingest of research summary failed: %w", err)
		}
		s.logger.Info("research summary ingested",
			"user", in.User, "total_chunks", result.TotalChunks)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: summary}},
	}, nil
}

// toolError builds an error-flagged text result for agent-level failures
// that should stay inside the tool protocol.
func toolError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
