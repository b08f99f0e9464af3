// Package mcp exposes page resolution and search as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/service/page"
	"github.com/heartmarshall/commonprayer-backend/internal/service/search"
)

const serverName = "Common Prayer MCP"

type pageService interface {
	GetPage(ctx context.Context, req page.Request) (*page.Result, error)
}

type searchService interface {
	Search(ctx context.Context, query string, limit int) (*search.Response, error)
}

// GetPageRequest are the arguments of the getPage tool.
type GetPageRequest struct {
	Path  string `json:"path"`
	Query string `json:"query"`
}

// SearchDocumentsRequest are the arguments of the searchDocuments tool.
type SearchDocumentsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// NewServer creates an MCP server with the getPage and searchDocuments tools.
// searchDocuments is registered only when searcher is non-nil.
func NewServer(logger *slog.Logger, version string, pages pageService, searcher searchService) *server.MCPServer {
	log := logger.With("transport", "mcp")

	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)

	getPageTool := mcp.NewTool("getPage",
		mcp.WithDescription("Resolve a liturgy page. The path has the form "+
			"{category}[/{slug}][/{version}][/{date}[/{calendar}[/{preferences}[/alternate]]]], "+
			"for example office/morning-prayer/RiteII/2024-12-25."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Document path without the /document prefix"),
		),
		mcp.WithString("query",
			mcp.Description("Case-insensitive text filter applied to category listings"),
		),
	)
	s.AddTool(getPageTool, mcp.NewTypedToolHandler(getPageHandler(log, pages)))

	if searcher != nil {
		searchTool := mcp.NewTool("searchDocuments",
			mcp.WithDescription("Full-text search over every published document"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Words to search for"),
			),
			mcp.WithNumber("limit",
				mcp.Description(fmt.Sprintf("Maximum number of results (default %d, max %d)", search.DefaultLimit, search.MaxLimit)),
			),
		)
		s.AddTool(searchTool, mcp.NewTypedToolHandler(searchDocumentsHandler(log, searcher)))
	}

	return s
}

func getPageHandler(log *slog.Logger, pages pageService) func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args GetPageRequest) (*mcp.CallToolResult, error) {
		if args.Path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		req, err := page.ParsePath(args.Path)
		if err != nil {
			return toolError(ctx, log, err), nil
		}
		req.Query = args.Query

		result, err := pages.GetPage(ctx, req)
		if err != nil {
			return toolError(ctx, log, err), nil
		}
		return jsonResult(result)
	}
}

func searchDocumentsHandler(log *slog.Logger, searcher searchService) func(ctx context.Context, request mcp.CallToolRequest, args SearchDocumentsRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SearchDocumentsRequest) (*mcp.CallToolResult, error) {
		if args.Query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		resp, err := searcher.Search(ctx, args.Query, args.Limit)
		if err != nil {
			return toolError(ctx, log, err), nil
		}
		return jsonResult(resp)
	}
}

// toolError turns err into a tool-level error result. Only unexpected errors are logged.
func toolError(ctx context.Context, log *slog.Logger, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return mcp.NewToolResultError("page not found")
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrCompile):
		return mcp.NewToolResultError(err.Error())
	default:
		log.ErrorContext(ctx, "tool failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError("internal error")
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
