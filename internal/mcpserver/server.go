// Package mcpserver exposes the stream fetcher as MCP tools over SSE.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/fetch"
	"github.com/rodrigopv/streamfetch/internal/locator"
	"github.com/rodrigopv/streamfetch/internal/scanner"
)

// MCPServer represents an MCP server instance
type MCPServer struct {
	host      string
	port      int
	version   string
	fetcher   fetch.Fetcher
	log       *zap.SugaredLogger
	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance serving fetcher.
func NewMCPServer(host string, port int, version string, fetcher fetch.Fetcher, log *zap.SugaredLogger) *MCPServer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MCPServer{
		host:    host,
		port:    port,
		version: version,
		fetcher: fetcher,
		log:     log,
	}
}

// Start initializes the tools and serves them over SSE until the listener fails.
func (s *MCPServer) Start() error {
	if err := s.InitMCPServer(); err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.log.Infof("Starting MCP server on %s", addr)
	return server.NewSSEServer(s.mcpServer).Start(addr)
}

// InitMCPServer creates the mcp-go server and registers the tools.
func (s *MCPServer) InitMCPServer() error {
	if s.fetcher == nil {
		return fmt.Errorf("MCP server requires a fetcher")
	}

	mcpServer := server.NewMCPServer(
		"streamfetch",
		s.version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	openTool := mcp.NewTool("open_locator",
		mcp.WithDescription("Open the resource behind a locator and report its kind, retrieval strategy, size, content type, and SHA-256 digest"),
		mcp.WithString("locator",
			mcp.Required(),
			mcp.Description("The locator to open, e.g. content://contacts/contacts/lookup/<key> or https://example.com/a.png"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (text or json)"),
			mcp.Enum("text", "json"),
		),
	)
	mcpServer.AddTool(openTool, s.handleOpenToolRequest)

	classifyTool := mcp.NewTool("classify_locator",
		mcp.WithDescription("Classify a locator and report the strategy the fetcher would use, without opening it"),
		mcp.WithString("locator",
			mcp.Required(),
			mcp.Description("The locator to classify"),
		),
	)
	mcpServer.AddTool(classifyTool, s.handleClassifyToolRequest)

	s.mcpServer = mcpServer
	s.log.Debugf("MCP server initialized with tools open_locator, classify_locator")
	return nil
}

func (s *MCPServer) handleOpenToolRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.Params.Arguments["locator"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("Missing or invalid locator"), nil
	}
	format := "json"
	if f, ok := request.Params.Arguments["format"].(string); ok && f != "" {
		format = f
	}

	s.log.Infof("Received open request for %s (format: %s)", raw, format)
	result, err := scanner.NewScanner(s.fetcher, s.log).ScanTarget(ctx, raw)
	if err != nil && result == nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error opening locator: %v", err)), nil
	}
	if err != nil {
		s.log.Warnf("open %s: %v", raw, err)
	}

	var text string
	switch format {
	case "json":
		jsonData, jsonErr := json.MarshalIndent(result, "", "  ")
		if jsonErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error converting results to JSON: %v", jsonErr)), nil
		}
		text = string(jsonData)
	case "text":
		text = scanner.FormatText(result)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown format %q", format)), nil
	}

	if err != nil {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

type classification struct {
	Locator  string         `json:"locator"`
	Kind     locator.Kind   `json:"kind"`
	Strategy fetch.Strategy `json:"strategy"`
}

func (s *MCPServer) handleClassifyToolRequest(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := request.Params.Arguments["locator"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return mcp.NewToolResultError("Missing or invalid locator"), nil
	}
	loc, err := locator.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid locator: %v", err)), nil
	}

	kind, strategy := s.fetcher.Plan(loc)
	jsonData, err := json.MarshalIndent(classification{Locator: loc.String(), Kind: kind, Strategy: strategy}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error converting results to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
