package mcp

import "github.com/mark3labs/mcp-go/mcp"

var noteCreateToolDef = mcp.NewTool("note_create",
	mcp.WithDescription("Create a voice note. The new note becomes the active note."),
	mcp.WithString("folder_id", mcp.Description("Folder to file the note in. Defaults to the current folder filter.")),
	mcp.WithString("title", mcp.Description("Title. Defaults to the dated title format from settings.")),
	mcp.WithString("transcript", mcp.Description("Initial transcript as plain text.")),
	mcp.WithArray("tags", mcp.Description("Tags to attach."), mcp.WithStringItems()),
)

var noteGetToolDef = mcp.NewTool("note_get",
	mcp.WithDescription("Fetch a note by ID with its transcript and summary as plain text."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID.")),
	mcp.WithBoolean("include_markup", mcp.Description("Also return the raw transcript markup with segment timestamps.")),
)

var noteListToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List notes, most recently modified first. Filters combine with AND."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Description("Case-insensitive substring matched against title and transcript.")),
	mcp.WithString("folder_id", mcp.Description(`Folder filter. "all" or empty matches every note.`)),
	mcp.WithString("tag", mcp.Description("Only notes carrying this tag.")),
	mcp.WithNumber("limit", mcp.Description("Maximum notes to return (default 20, max 100).")),
	mcp.WithNumber("offset", mcp.Description("Notes to skip.")),
)

var noteUpdateToolDef = mcp.NewTool("note_update",
	mcp.WithDescription("Update fields of a note. Omitted fields are left unchanged. Transcript edits are rejected while the note is recording."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID.")),
	mcp.WithString("title", mcp.Description("New title.")),
	mcp.WithString("transcript", mcp.Description("Replacement transcript as plain text.")),
	mcp.WithArray("tags", mcp.Description("Replacement tag set."), mcp.WithStringItems()),
	mcp.WithString("folder_id", mcp.Description("Move the note to this folder.")),
)

var noteDeleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Delete a note. Deleting the last note leaves a fresh empty one."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID.")),
)

var noteExportToolDef = mcp.NewTool("note_export",
	mcp.WithDescription("Write a single note to a file as plain text, Markdown or HTML."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID.")),
	mcp.WithString("format", mcp.Description("Output format (default md)."), mcp.Enum("txt", "md", "html")),
	mcp.WithString("path", mcp.Description("Destination file. Defaults to ~/.voxnote/exports/<title>.<format>.")),
)

var noteExportAllToolDef = mcp.NewTool("note_export_all",
	mcp.WithDescription("Write every note and folder to a JSON export file."),
	mcp.WithString("path", mcp.Description("Destination file. Defaults to ~/.voxnote/exports/voxnote-<timestamp>.json.")),
)

var noteImportAllToolDef = mcp.NewTool("note_import_all",
	mcp.WithDescription("Replace every note and folder with the contents of a JSON export file. A malformed file changes nothing."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("path", mcp.Required(), mcp.Description("Export file to read.")),
)

var folderCreateToolDef = mcp.NewTool("folder_create",
	mcp.WithDescription("Create a folder. Names are unique, case-insensitively."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Folder name.")),
)

var folderListToolDef = mcp.NewTool("folder_list",
	mcp.WithDescription(`List folders, including the "all" folder.`),
	mcp.WithReadOnlyHintAnnotation(true),
)

var folderRenameToolDef = mcp.NewTool("folder_rename",
	mcp.WithDescription("Rename a folder."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Folder ID.")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New name.")),
)

var folderDeleteToolDef = mcp.NewTool("folder_delete",
	mcp.WithDescription(`Delete a folder. Its notes move to the "all" folder.`),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Folder ID.")),
)

var summaryGenerateToolDef = mcp.NewTool("summary_generate",
	mcp.WithDescription("Summarize a note's transcript into bullet points and store the result on the note. Requires an API key in settings."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note ID.")),
)
