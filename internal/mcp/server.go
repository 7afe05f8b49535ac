package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/voxnote/internal/app"
	"github.com/hpungsan/voxnote/internal/config"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"note", "folder", "summary"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"note_create": {
		def:     noteCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteCreate },
	},
	"note_get": {
		def:     noteGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteGet },
	},
	"note_list": {
		def:     noteListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteList },
	},
	"note_update": {
		def:     noteUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteUpdate },
	},
	"note_delete": {
		def:     noteDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteDelete },
	},
	"note_export": {
		def:     noteExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteExport },
	},
	"note_export_all": {
		def:     noteExportAllToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteExportAll },
	},
	"note_import_all": {
		def:     noteImportAllToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNoteImportAll },
	},
	"folder_create": {
		def:     folderCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderCreate },
	},
	"folder_list": {
		def:     folderListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderList },
	},
	"folder_rename": {
		def:     folderRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderRename },
	},
	"folder_delete": {
		def:     folderDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderDelete },
	},
	"summary_generate": {
		def:     summaryGenerateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummaryGenerate },
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

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "note_create" → "note").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with voxnote tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(a *app.App, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"voxnote",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(a)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools over stdio until the client disconnects.
func Run(a *app.App, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(a, cfg, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
