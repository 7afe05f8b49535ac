package store

import (
	"fmt"
	"strings"

	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

// MaxFolderNameLen bounds folder names (runes).
const MaxFolderNameLen = 100

// Folders returns all folders, the sentinel first.
func (s *Store) Folders() []note.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]note.Folder(nil), s.folders...)
}

// Folder returns the folder with id.
func (s *Store) Folder(id string) (note.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.folders {
		if f.ID == id {
			return f, nil
		}
	}
	return note.Folder{}, errors.NewNotFound("folder", id)
}

// CreateFolder adds a folder. Names are unique, compared case-insensitively.
func (s *Store) CreateFolder(name string) (note.Folder, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return note.Folder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folderNameTakenLocked(name, "") {
		return note.Folder{}, errors.NewConflict(fmt.Sprintf("folder %q already exists", name))
	}
	f := note.Folder{ID: note.NewID(s.clock.Now()), Name: name}
	s.folders = append(s.folders, f)
	return f, nil
}

// RenameFolder changes a folder's display name. The sentinel can be renamed too.
func (s *Store) RenameFolder(id, name string) (note.Folder, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return note.Folder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.folderNameTakenLocked(name, id) {
		return note.Folder{}, errors.NewConflict(fmt.Sprintf("folder %q already exists", name))
	}
	for i := range s.folders {
		if s.folders[i].ID == id {
			s.folders[i].Name = name
			return s.folders[i], nil
		}
	}
	return note.Folder{}, errors.NewNotFound("folder", id)
}

// DeleteFolder removes a folder and moves its notes to the sentinel folder.
// It returns how many notes were moved.
func (s *Store) DeleteFolder(id string) (int, error) {
	if id == note.AllFolderID {
		return 0, errors.NewInvalidRequest("the all-notes folder cannot be deleted")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, f := range s.folders {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, errors.NewNotFound("folder", id)
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)

	moved := 0
	now := s.clock.Now().UnixMilli()
	for _, n := range s.notes {
		if n.FolderID == id {
			n.FolderID = note.AllFolderID
			n.LastModified = now
			moved++
		}
	}
	return moved, nil
}

func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewInvalidRequest("folder name is required")
	}
	if len([]rune(name)) > MaxFolderNameLen {
		return "", errors.NewInvalidRequest(fmt.Sprintf("folder name exceeds %d characters", MaxFolderNameLen))
	}
	return name, nil
}

func (s *Store) folderExistsLocked(id string) bool {
	for _, f := range s.folders {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) folderNameTakenLocked(name, exceptID string) bool {
	for _, f := range s.folders {
		if f.ID != exceptID && strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}
