// Package store holds the note, folder and settings collections and persists them
// as whole documents in the three database slots.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hpungsan/voxnote/internal/clock"
	"github.com/hpungsan/voxnote/internal/db"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

// Store is the in-memory collection backed by slot persistence.
// It always has at least one note and an active note.
type Store struct {
	db    *sql.DB
	clock clock.Clock

	mu       sync.RWMutex
	notes    []*note.Note
	folders  []note.Folder
	settings note.Settings
	activeID string
}

// Open loads the three slots. Missing slots fall back to defaults; an empty note
// list gets one fresh note, which becomes active.
func Open(ctx context.Context, database *sql.DB, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.Real{}
	}
	s := &Store{db: database, clock: clk}

	var notes []*note.Note
	if err := loadSlot(ctx, database, db.SlotNotes, &notes); err != nil {
		return nil, err
	}
	var folders []note.Folder
	if err := loadSlot(ctx, database, db.SlotFolders, &folders); err != nil {
		return nil, err
	}
	var stored note.Settings
	if err := loadSlot(ctx, database, db.SlotSettings, &stored); err != nil {
		return nil, err
	}

	s.notes = notes
	for _, n := range s.notes {
		n.Tags = note.NormalizeTags(n.Tags)
	}
	s.folders = ensureSentinel(folders)
	s.settings = note.MergeSettings(note.DefaultSettings(), stored)

	if len(s.notes) == 0 {
		s.notes = []*note.Note{s.newNoteLocked(note.AllFolderID)}
	}
	s.activeID = s.notes[0].ID
	return s, nil
}

func loadSlot(ctx context.Context, database *sql.DB, key string, v any) error {
	slot, err := db.GetSlot(ctx, database, key)
	if err != nil {
		return err
	}
	if slot == nil {
		return nil
	}
	if err := json.Unmarshal(slot.Value, v); err != nil {
		return errors.NewInternal(fmt.Errorf("slot %s is corrupt: %w", key, err))
	}
	return nil
}

// ensureSentinel puts the "all" folder first, adding it if missing.
func ensureSentinel(folders []note.Folder) []note.Folder {
	out := note.DefaultFolders()
	for _, f := range folders {
		if f.ID == note.AllFolderID {
			if f.Name != "" {
				out[0].Name = f.Name
			}
			continue
		}
		out = append(out, f)
	}
	return out
}

// Save writes the notes and folders slots together.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	notesJSON, err := json.Marshal(s.notes)
	if err != nil {
		s.mu.RUnlock()
		return errors.NewInternal(err)
	}
	foldersJSON, err := json.Marshal(s.folders)
	s.mu.RUnlock()
	if err != nil {
		return errors.NewInternal(err)
	}

	return db.PutSlots(ctx, s.db, map[string][]byte{
		db.SlotNotes:   notesJSON,
		db.SlotFolders: foldersJSON,
	})
}

// Settings returns the current settings.
func (s *Store) Settings() note.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings replaces the settings and writes the settings slot.
func (s *Store) SaveSettings(ctx context.Context, settings note.Settings) error {
	switch settings.SummaryFormat {
	case note.SummaryBullet, note.SummaryParagraph:
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("summary_format must be %q or %q", note.SummaryBullet, note.SummaryParagraph))
	}
	switch settings.Theme {
	case note.ThemeLight, note.ThemeDark:
	default:
		return errors.NewInvalidRequest(fmt.Sprintf("theme must be %q or %q", note.ThemeLight, note.ThemeDark))
	}
	if settings.FontSize < 8 || settings.FontSize > 48 {
		return errors.NewInvalidRequest("font_size must be between 8 and 48")
	}
	if settings.SpeakerChangeThresholdMS < 0 {
		return errors.NewInvalidRequest("speaker_change_threshold_ms must not be negative")
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := db.PutSlot(ctx, s.db, db.SlotSettings, data); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}
