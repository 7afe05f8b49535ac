package store

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

// ExportSchemaVersion is written into every bulk export.
const ExportSchemaVersion = 1

//go:embed export.schema.json
var exportSchemaJSON []byte

const exportSchemaURL = "voxnote-export.schema.json"

var (
	exportSchemaOnce sync.Once
	exportSchema     *jsonschema.Schema
	exportSchemaErr  error
)

// ExportDocument is the bulk export file layout. The header fields are
// optional on import so that bare {notes, folders} documents are accepted.
type ExportDocument struct {
	VoxnoteExport bool          `json:"_voxnote_export"`
	SchemaVersion int           `json:"schema_version"`
	ExportedAt    int64         `json:"exported_at"`
	Notes         []*note.Note  `json:"notes"`
	Folders       []note.Folder `json:"folders"`
}

// ImportOutput reports what an import replaced the collections with.
type ImportOutput struct {
	Notes   int `json:"notes"`
	Folders int `json:"folders"`
}

// ExportAll serializes every note and folder as an indented JSON document.
func (s *Store) ExportAll() ([]byte, error) {
	s.mu.RLock()
	doc := ExportDocument{
		VoxnoteExport: true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    s.clock.Now().UnixMilli(),
		Notes:         s.notes,
		Folders:       s.folders,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

// ImportAll replaces all notes and folders with the contents of data.
// The document is validated in full before anything is touched; both slots
// are then written in one transaction and memory is swapped. On any error
// the existing data is left unchanged.
func (s *Store) ImportAll(ctx context.Context, data []byte) (*ImportOutput, error) {
	doc, err := ParseExport(data)
	if err != nil {
		return nil, err
	}
	return s.ImportDocument(ctx, doc)
}

// ImportDocument replaces all notes and folders with a document already
// validated by ParseExport.
func (s *Store) ImportDocument(ctx context.Context, doc *ExportDocument) (*ImportOutput, error) {
	notes := doc.Notes
	if notes == nil {
		notes = []*note.Note{}
	}
	for _, n := range notes {
		n.Tags = note.NormalizeTags(n.Tags)
		if n.FolderID == "" {
			n.FolderID = note.AllFolderID
		}
	}
	folders := ensureSentinel(doc.Folders)

	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	foldersJSON, err := json.Marshal(folders)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := db.PutSlots(ctx, s.db, map[string][]byte{
		db.SlotNotes:   notesJSON,
		db.SlotFolders: foldersJSON,
	}); err != nil {
		return nil, err
	}

	s.notes = notes
	s.folders = folders
	if len(s.notes) == 0 {
		s.notes = []*note.Note{s.newNoteLocked(note.AllFolderID)}
	}
	s.activeID = s.notes[0].ID

	return &ImportOutput{Notes: len(doc.Notes), Folders: len(s.folders)}, nil
}

// ParseExport decodes and validates a bulk export document.
func ParseExport(data []byte) (*ExportDocument, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, errors.NewMalformedImport(fmt.Sprintf("invalid JSON: %v", err))
	}

	schema, err := compiledExportSchema()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := schema.Validate(instance); err != nil {
		return nil, errors.NewMalformedImport(err.Error())
	}

	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewMalformedImport(fmt.Sprintf("invalid document: %v", err))
	}
	if err := checkReferences(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func checkReferences(doc *ExportDocument) error {
	folderIDs := map[string]bool{note.AllFolderID: true}
	for _, f := range doc.Folders {
		if f.ID != note.AllFolderID && folderIDs[f.ID] {
			return errors.NewMalformedImport(fmt.Sprintf("duplicate folder id %q", f.ID))
		}
		folderIDs[f.ID] = true
	}

	noteIDs := make(map[string]bool, len(doc.Notes))
	for i, n := range doc.Notes {
		if n == nil {
			return errors.NewMalformedImport(fmt.Sprintf("notes[%d] is null", i))
		}
		if noteIDs[n.ID] {
			return errors.NewMalformedImport(fmt.Sprintf("duplicate note id %q", n.ID))
		}
		noteIDs[n.ID] = true
		if n.FolderID != "" && !folderIDs[n.FolderID] {
			return errors.NewMalformedImport(fmt.Sprintf("note %q references unknown folder %q", n.ID, n.FolderID))
		}
	}
	return nil
}

func compiledExportSchema() (*jsonschema.Schema, error) {
	exportSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(exportSchemaURL, bytes.NewReader(exportSchemaJSON)); err != nil {
			exportSchemaErr = fmt.Errorf("add export schema: %w", err)
			return
		}
		exportSchema, exportSchemaErr = compiler.Compile(exportSchemaURL)
	})
	return exportSchema, exportSchemaErr
}

// DefaultExportName is the file name used for bulk exports written without
// an explicit path.
func DefaultExportName(now time.Time) string {
	return "voxnote-" + now.UTC().Format("20060102-150405") + ".json"
}
