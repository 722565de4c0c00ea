package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vecgrep/internal/config"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing the indexing and search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	s := mcpserver.NewMCPServer("vecgrep", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(indexCodebaseTool(), makeIndexHandler(cfg, log))
	s.AddTool(searchCodeTool(), makeSearchHandler(cfg, log))
	s.AddTool(getIndexStatusTool(), makeStatusHandler())

	log.Info("serving MCP over stdio")
	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func indexCodebaseTool() mcp.Tool {
	return mcp.NewTool("index_codebase",
		mcp.WithDescription("Index a codebase directory for semantic search. Walks the directory, extracts semantic code chunks, embeds them, and stores them in a vector index. Subsequent calls skip unchanged files (incremental updates)."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(false),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(true),
			OpenWorldHint:   mcp.ToBoolPtr(false),
		}),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the codebase root directory"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Re-index all files even if unchanged"),
		),
	)
}

func searchCodeTool() mcp.Tool {
	return mcp.NewTool("search_code",
		mcp.WithDescription("Semantically search an indexed codebase for code relevant to a query. Embeds the query and ranks indexed chunks by cosine similarity. If the codebase is not yet indexed, it is indexed automatically first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of what you're looking for, e.g. \"how does authentication work\""),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the codebase root directory"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Number of results to return (default 8, max 20)"),
		),
	)
}

func getIndexStatusTool() mcp.Tool {
	return mcp.NewTool("get_index_status",
		mcp.WithDescription("Get the status of the vector index for a codebase: file count, chunk count, last indexed time, disk usage."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the codebase root directory"),
		),
	)
}

// --- Handler factories ---

func makeIndexHandler(cfg config.Config, log *zap.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		force := req.GetBool("force", false)

		out, err := indexCodebase(cfg, log, path, force)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("index failed: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func makeSearchHandler(cfg config.Config, log *zap.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		topK := req.GetInt("top_k", 8)

		out, err := searchCode(cfg, log, query, path, topK)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func makeStatusHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}

		out, err := indexStatus(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
