// Package mcpserver exposes the converter as MCP (Model Context Protocol)
// tools over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/convert"
	"github.com/gerunddev/blockbridge/internal/logger"
)

// Operation values accepted by the convert tool
const (
	OperationMarkdownToBlocks = "markdownToNotion"
	OperationBlocksToMarkdown = "notionToMarkdown"
)

const schemaURI = "blockbridge://block-schema"

// Server wraps the MCP server with conversion tools.
type Server struct {
	mcp  *server.MCPServer
	conv *convert.Converter
	log  *logger.Logger
}

// New creates a new MCP server with all conversion tools registered.
func New(conv *convert.Converter, log *logger.Logger, version string) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{conv: conv, log: log}

	s.mcp = server.NewMCPServer(
		"blockbridge",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("markdown_to_blocks",
		mcp.WithDescription("Convert Markdown into a JSON array of blocks."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown document to convert")),
	), s.markdownToBlocks)

	s.mcp.AddTool(mcp.NewTool("blocks_to_markdown",
		mcp.WithDescription("Convert a JSON array of blocks into Markdown. "+
			"The input must follow the schema published at "+schemaURI+"."),
		mcp.WithString("blocks", mcp.Required(), mcp.Description("JSON array of blocks")),
	), s.blocksToMarkdown)

	s.mcp.AddTool(mcp.NewTool("convert",
		mcp.WithDescription("Convert between Markdown and blocks in either direction."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Conversion direction"),
			mcp.Enum(OperationMarkdownToBlocks, OperationBlocksToMarkdown)),
		mcp.WithString("input", mcp.Required(), mcp.Description("Markdown or JSON blocks, matching the operation")),
	), s.convert)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Block Schema",
			mcp.WithResourceDescription("JSON Schema of the block wire format."),
			mcp.WithMIMEType("application/schema+json"),
		),
		s.readSchema,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) markdownToBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(OperationMarkdownToBlocks, markdown), nil
}

func (s *Server) blocksToMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	blocks, err := req.RequireString("blocks")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(OperationBlocksToMarkdown, blocks), nil
}

func (s *Server) convert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	operation, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.run(operation, input), nil
}

func (s *Server) run(operation, input string) *mcp.CallToolResult {
	s.log.ToolCalled(operation, len(input))

	switch operation {
	case OperationMarkdownToBlocks:
		data, err := s.conv.MarkdownToJSON(input)
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultText(string(data))
	case OperationBlocksToMarkdown:
		md, err := s.conv.JSONToMarkdown([]byte(input))
		if err != nil {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultText(md)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("the operation %q is not known", operation))
	}
}

func (s *Server) readSchema(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/schema+json",
			Text:     block.Schema(),
		},
	}, nil
}
