package store

import (
	"sort"
	"strings"

	"github.com/hpungsan/voxnote/internal/note"
	"github.com/hpungsan/voxnote/internal/transcript"
)

// Filter selects notes for the list view.
type Filter struct {
	// Search matches title or transcript text, case-insensitively
	Search string
	// FolderID limits to one folder; "" or "all" means every folder
	FolderID string
	// Tag limits to notes carrying this tag; "" means any
	Tag string
}

// Apply runs search, then folder, then tag filtering. Input order is preserved
// and the input slice is not modified.
func Apply(notes []*note.Note, f Filter) []*note.Note {
	out := make([]*note.Note, 0, len(notes))
	query := strings.ToLower(strings.TrimSpace(f.Search))

	for _, n := range notes {
		if query != "" && !matchesSearch(n, query) {
			continue
		}
		if f.FolderID != "" && f.FolderID != note.AllFolderID && n.FolderID != f.FolderID {
			continue
		}
		if f.Tag != "" && !n.HasTag(f.Tag) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchesSearch(n *note.Note, query string) bool {
	if strings.Contains(strings.ToLower(n.Title), query) {
		return true
	}
	return strings.Contains(strings.ToLower(transcript.PlainText(n.Transcript)), query)
}

// Filter returns copies of the notes matching f.
func (s *Store) Filter(f Filter) []*note.Note {
	return Apply(s.Notes(), f)
}

// AllTags returns every tag in use, sorted.
func (s *Store) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var tags []string
	for _, n := range s.notes {
		for _, t := range n.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
