// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the comic library to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/models"
)

const layoutURI = "marble://library-layout"

// Server wraps the MCP server with Marble tools.
type Server struct {
	mcp *server.MCPServer
	svc *comicservice.Service
}

// New creates a new MCP server with all tools registered. All tools are
// read-only.
func New(svc *comicservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Marble",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_comics",
		mcp.WithDescription("List every comic with its id, name, keywords and reading position."),
	), s.listComics)

	s.mcp.AddTool(mcp.NewTool("get_comic",
		mcp.WithDescription("Get the full record of one comic."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id (decimal)")),
	), s.getComic)

	s.mcp.AddTool(mcp.NewTool("search_comics",
		mcp.WithDescription("Full-text search over comic names, descriptions and keywords."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchComics)

	s.mcp.AddTool(mcp.NewTool("list_keywords",
		mcp.WithDescription("List keyword categories, or the tags of one category with the comics carrying each."),
		mcp.WithString("category", mcp.Description("Optional category to expand")),
	), s.listKeywords)

	s.mcp.AddTool(mcp.NewTool("get_navigation",
		mcp.WithDescription("Get the chapter/page layout of a comic. "+
			"Read the marble://library-layout resource for the file naming rules."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id (decimal)")),
		mcp.WithString("chapter", mcp.Description("Optional zero-based chapter to return alone")),
	), s.getNavigation)

	s.mcp.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get where the reader left off in a comic, as chapter and page."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Comic id (decimal)")),
	), s.getProgress)

	s.mcp.AddResource(
		mcp.NewResource(layoutURI, "Library Layout",
			mcp.WithResourceDescription("How comics, metadata and page files are organised on disk."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLayoutResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func requireID(req mcp.CallToolRequest) (models.ComicID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, err
	}
	return models.ParseComicID(raw)
}

func (s *Server) listComics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.ListComics(ctx)), nil
}

func (s *Server) getComic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comic, err := s.svc.GetComic(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(comic), nil
}

func (s *Server) searchComics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no comics found"), nil
	}
	return jsonResult(results), nil
}

func (s *Server) listKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category, err := req.RequireString("category")
	if err != nil || category == "" {
		return jsonResult(s.svc.Stats(ctx).Categories), nil
	}
	byTag, ok := s.svc.Keywords(ctx)[category]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category: %s", category)), nil
	}
	return jsonResult(byTag), nil
}

func (s *Server) getNavigation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if raw, cErr := req.RequireString("chapter"); cErr == nil && raw != "" {
		chapter, err := strconv.Atoi(raw)
		if err != nil || chapter < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid chapter: %q", raw)), nil
		}
		pages, err := s.svc.Chapter(ctx, id, chapter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(pages), nil
	}
	m, err := s.svc.Navigation(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(m), nil
}

func (s *Server) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Progress(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]int{"chapter": p.Chapter, "page": p.Page}), nil
}

func (s *Server) readLayoutResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      layoutURI,
			MIMEType: "text/markdown",
			Text:     LibraryLayout,
		},
	}, nil
}
