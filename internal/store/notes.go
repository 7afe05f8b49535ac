package store

import (
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

// NotePatch is a field-level update. Nil fields are left unchanged.
type NotePatch struct {
	Title          *string
	Transcript     *string
	Summary        *string
	Tags           *[]string
	AudioReference **string
	FolderID       *string
}

// Notes returns copies of all notes, newest first.
func (s *Store) Notes() []*note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*note.Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns a copy of the note with id.
func (s *Store) Note(id string) (*note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.findLocked(id)
	if n == nil {
		return nil, errors.NewNotFound("note", id)
	}
	return n.Clone(), nil
}

// Active returns a copy of the active note.
func (s *Store) Active() *note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.activeID).Clone()
}

// ActiveID returns the id of the active note.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// SetActive makes the note with id active.
func (s *Store) SetActive(id string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.findLocked(id)
	if n == nil {
		return nil, errors.NewNotFound("note", id)
	}
	s.activeID = id
	return n.Clone(), nil
}

// CreateNote prepends a fresh note in folderID ("" means the sentinel folder)
// and makes it active.
func (s *Store) CreateNote(folderID string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if folderID == "" {
		folderID = note.AllFolderID
	}
	if !s.folderExistsLocked(folderID) {
		return nil, errors.NewNotFound("folder", folderID)
	}
	n := s.newNoteLocked(folderID)
	s.notes = append([]*note.Note{n}, s.notes...)
	s.activeID = n.ID
	return n.Clone(), nil
}

func (s *Store) newNoteLocked(folderID string) *note.Note {
	now := s.clock.Now()
	return &note.Note{
		ID:           note.NewID(now),
		Title:        note.FormatTitle(s.settings.DocTitleFormat, now),
		Tags:         []string{},
		FolderID:     folderID,
		LastModified: now.UnixMilli(),
	}
}

// UpdateNote applies patch and re-stamps LastModified.
func (s *Store) UpdateNote(id string, patch NotePatch) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.findLocked(id)
	if n == nil {
		return nil, errors.NewNotFound("note", id)
	}
	if patch.FolderID != nil && !s.folderExistsLocked(*patch.FolderID) {
		return nil, errors.NewNotFound("folder", *patch.FolderID)
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Transcript != nil {
		n.Transcript = *patch.Transcript
	}
	if patch.Summary != nil {
		n.Summary = *patch.Summary
	}
	if patch.Tags != nil {
		n.Tags = note.NormalizeTags(*patch.Tags)
	}
	if patch.AudioReference != nil {
		n.AudioReference = *patch.AudioReference
	}
	if patch.FolderID != nil {
		n.FolderID = *patch.FolderID
	}
	n.LastModified = s.clock.Now().UnixMilli()
	return n.Clone(), nil
}

// AddTag adds tag to a note; duplicates are ignored.
func (s *Store) AddTag(id, tag string) (*note.Note, error) {
	n, err := s.Note(id)
	if err != nil {
		return nil, err
	}
	tags := append(n.Tags, tag)
	return s.UpdateNote(id, NotePatch{Tags: &tags})
}

// RemoveTag removes tag from a note.
func (s *Store) RemoveTag(id, tag string) (*note.Note, error) {
	n, err := s.Note(id)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	return s.UpdateNote(id, NotePatch{Tags: &tags})
}

// DeleteNote removes a note. If it was active, the first remaining note becomes
// active, or a fresh note is created when none remain. It returns the active note.
func (s *Store) DeleteNote(id string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, n := range s.notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewNotFound("note", id)
	}
	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)

	if len(s.notes) == 0 {
		s.notes = []*note.Note{s.newNoteLocked(note.AllFolderID)}
		s.activeID = s.notes[0].ID
	} else if s.activeID == id {
		s.activeID = s.notes[0].ID
	}
	return s.findLocked(s.activeID).Clone(), nil
}

// DeleteAllNotes removes every note and creates one fresh active note.
func (s *Store) DeleteAllNotes() *note.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = []*note.Note{s.newNoteLocked(note.AllFolderID)}
	s.activeID = s.notes[0].ID
	return s.notes[0].Clone()
}

func (s *Store) findLocked(id string) *note.Note {
	for _, n := range s.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
