package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/hazyhaar/entitycorrect/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the three entitycorrect MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *correct.Registry, logger *slog.Logger) {
	eps := newEndpoints(reg, logger)
	registerCorrectText(srv, eps.correct)
	registerCorrectBatch(srv, eps.correctBatch)
	registerListDicts(srv, eps.listDicts)
}

func registerCorrectText(srv *server.MCPServer, ep kit.Endpoint) {
	tool := mcp.NewTool("correct_text",
		mcp.WithDescription("Rewrite entity mentions (synonyms, abbreviations, homophone misspellings) in a text to their canonical names."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text to correct")),
		mcp.WithString("dicts", mcp.Description("Comma-separated dictionary filter (e.g. banks-zh)")),
		mcp.WithString("languages", mcp.Description("Comma-separated language filter (e.g. zh,en)")),
		mcp.WithString("entity_types", mcp.Description("Comma-separated entity type filter (e.g. bank,brand)")),
	)

	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		text, ok := args["text"].(string)
		if !ok {
			return nil, fmt.Errorf("text is required")
		}
		opts := mcpOpts(args)
		return &kit.MCPDecodeResult{
			Request:   &correctReq{Text: text, Opts: opts},
			EnrichCtx: func(ctx context.Context) context.Context { return kit.WithDicts(ctx, opts.Dicts) },
		}, nil
	})
}

func registerCorrectBatch(srv *server.MCPServer, ep kit.Endpoint) {
	tool := mcp.NewTool("correct_batch",
		mcp.WithDescription(fmt.Sprintf("Correct entity mentions in multiple texts (up to %d).", MaxBatch)),
		mcp.WithArray("texts", mcp.Required(), mcp.Description("Texts to correct"), mcp.WithStringItems()),
		mcp.WithString("dicts", mcp.Description("Comma-separated dictionary filter")),
		mcp.WithString("languages", mcp.Description("Comma-separated language filter")),
		mcp.WithString("entity_types", mcp.Description("Comma-separated entity type filter")),
	)

	kit.RegisterMCPTool(srv, tool, ep, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		raw, ok := args["texts"].([]any)
		if !ok {
			return nil, fmt.Errorf("texts must be an array of strings")
		}
		texts := make([]string, 0, len(raw))
		for i, v := range raw {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("texts[%d] is not a string", i)
			}
			texts = append(texts, s)
		}
		opts := mcpOpts(args)
		return &kit.MCPDecodeResult{
			Request:   &correctBatchReq{Texts: texts, Opts: opts},
			EnrichCtx: func(ctx context.Context) context.Context { return kit.WithDicts(ctx, opts.Dicts) },
		}, nil
	})
}

func registerListDicts(srv *server.MCPServer, ep kit.Endpoint) {
	tool := mcp.NewTool("list_dicts",
		mcp.WithDescription("List all loaded synonym dictionaries with metadata (language, entity type, key count, phonetic mode)."),
	)

	kit.RegisterMCPTool(srv, tool, ep, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func mcpOpts(args map[string]any) *correct.CorrectOptions {
	opts := &correct.CorrectOptions{}
	if v, _ := args["dicts"].(string); v != "" {
		opts.Dicts = splitList(v)
	}
	if v, _ := args["languages"].(string); v != "" {
		opts.Languages = splitList(v)
	}
	if v, _ := args["entity_types"].(string); v != "" {
		opts.EntityTypes = splitList(v)
	}
	return opts
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
