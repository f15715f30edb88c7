package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/gallery"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"prompt_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"prompt_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"prompt_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"prompt_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"prompt_favorite": {
		def:     favoriteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFavorite },
	},
	"prompt_tags": {
		def:     tagsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTags },
	},
	"prompt_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"prompt_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the prompt tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(g *gallery.Gallery, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"stocker",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(g)

	disabled := make(map[string]bool)
	if cfg != nil {
		for _, name := range cfg.DisabledTools {
			disabled[name] = true
		}
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(g *gallery.Gallery, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(g, cfg, version))
}
