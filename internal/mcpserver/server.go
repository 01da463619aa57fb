// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the question bank and glossary converter to LLM clients
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/glossaryqf/internal/apperr"
	"github.com/starford/glossaryqf/internal/bankservice"
	"github.com/starford/glossaryqf/internal/models"
	"github.com/starford/glossaryqf/internal/storage"
)

const formatResourceURI = "glossaryqf://glossary-format"

// Server wraps the MCP server with glossary tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *bankservice.Service
	store   storage.Provider
	fetcher *fetcher
}

// New creates a new MCP server with all tools registered. version is
// reported to clients during initialization.
func New(svc *bankservice.Service, store storage.Provider, version string) *Server {
	s := &Server{svc: svc, store: store, fetcher: newFetcher()}

	s.mcp = server.NewMCPServer(
		"glossaryqf",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_questions",
		mcp.WithDescription("Full-text search through stored question names, texts and answers."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchQuestions)

	s.mcp.AddTool(mcp.NewTool("get_question",
		mcp.WithDescription("Read a stored question with all of its answers."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Question ID")),
	), s.getQuestion)

	s.mcp.AddTool(mcp.NewTool("list_glossaries",
		mcp.WithDescription("List the glossary documents imported into the question bank."),
	), s.listGlossaries)

	s.mcp.AddTool(mcp.NewTool("read_glossary",
		mcp.WithDescription("Read the raw XML of a glossary document in the workspace."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. geo/capitals.xml)")),
	), s.readGlossary)

	s.mcp.AddTool(mcp.NewTool("import_glossary",
		mcp.WithDescription("Store a glossary document in the workspace and import its entries as questions. "+
			"Content MUST follow the glossary format. Read it first via the get_format_contract "+
			"tool or the "+formatResourceURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the document (must end with .xml)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Glossary XML document")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing document at path")),
	), s.importGlossary)

	s.mcp.AddTool(mcp.NewTool("fetch_glossary",
		mcp.WithDescription("Download a glossary document from an http(s) URL or a base64 data: URI, "+
			"store it in the workspace and import it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:application/xml;base64,... URI")),
		mcp.WithString("path", mcp.Description("Target path in the workspace (derived from the URL when empty)")),
	), s.fetchGlossary)

	s.mcp.AddTool(mcp.NewTool("export_glossary",
		mcp.WithDescription("Export stored questions as a glossary document."),
		mcp.WithString("source", mcp.Description("Limit the export to one imported document (empty for all)")),
	), s.exportGlossary)

	s.mcp.AddTool(mcp.NewTool("convert_questions",
		mcp.WithDescription("Convert questions given as a JSON array into a glossary document without storing anything."),
		mcp.WithString("questions", mcp.Required(), mcp.Description("JSON array of questions")),
	), s.convertQuestions)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the glossary document format contract. "+
			"Call this before writing glossary documents to ensure correct structure."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatResourceURI, "Glossary Format Contract",
			mcp.WithResourceDescription("Glossary XML document format and its mapping to questions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
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

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q, err := s.svc.GetQuestion(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(q), nil
}

func (s *Server) listGlossaries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := s.svc.Sources(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(sources) == 0 {
		return mcp.NewToolResultText("no glossaries imported"), nil
	}
	lines := make([]string, len(sources))
	for i, src := range sources {
		lines[i] = fmt.Sprintf("%s\t%d questions", src.Path, src.QuestionCount)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readGlossary(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) importGlossary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.importContent(ctx, path, []byte(content), req.GetBool("overwrite", false)), nil
}

func (s *Server) fetchGlossary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.fetcher.fetch(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := req.GetString("path", "")
	if path == "" {
		path = filenameFromURL(rawURL)
	}
	return s.importContent(ctx, path, data, false), nil
}

type importSummary struct {
	Path      string `json:"path"`
	Checksum  string `json:"checksum"`
	Questions int    `json:"questions"`
}

func (s *Server) importContent(ctx context.Context, path string, data []byte, overwrite bool) *mcp.CallToolResult {
	res, err := s.svc.ImportDocument(ctx, path, data, bankservice.WriteMode{Overwrite: overwrite})
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return mcp.NewToolResultError(fmt.Sprintf("glossary already exists: %s", path))
		}
		return errorResult(err)
	}
	return jsonResult(importSummary{Path: res.Path, Checksum: res.Checksum, Questions: len(res.Questions)})
}

func (s *Server) exportGlossary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.ExportBank(ctx, req.GetString("source", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(res.Document), nil
}

func (s *Server) convertQuestions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("questions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var questions []models.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid questions JSON: %v", err)), nil
	}
	res, err := s.svc.ConvertExport(ctx, questions)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(res.Document), nil
}

func (s *Server) getFormatContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(GlossaryFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatResourceURI,
			MIMEType: "text/markdown",
			Text:     GlossaryFormatContract,
		},
	}, nil
}
