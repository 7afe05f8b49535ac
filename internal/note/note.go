package note

// AllFolderID is the sentinel folder every note implicitly belongs to.
// It always exists and cannot be deleted.
const AllFolderID = "all"

// AllFolderName is the display name of the sentinel folder.
const AllFolderName = "All notes"

// Note is a single voice note.
type Note struct {
	// ID is a ULID, immutable once assigned
	ID string `json:"id"`

	// Title is free text, defaulted from the title format on creation
	Title string `json:"title"`

	// Transcript is the serialized transcript markup (sequence of segment spans)
	Transcript string `json:"transcript"`

	// Summary is the serialized summary markup, empty until summarized
	Summary string `json:"summary"`

	// Tags is a set of user tags, kept free of duplicates
	Tags []string `json:"tags"`

	// AudioReference is a URI to retained audio for this note (nullable)
	AudioReference *string `json:"audio_reference"`

	// FolderID references an existing folder or AllFolderID
	FolderID string `json:"folder_id"`

	// LastModified is the Unix millisecond timestamp of the last mutation
	LastModified int64 `json:"last_modified"`
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	if n.AudioReference != nil {
		ref := *n.AudioReference
		c.AudioReference = &ref
	}
	return &c
}

// HasTag reports whether the note carries tag (case-sensitive).
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Folder groups notes.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultFolders is the folder list used when nothing is stored yet.
func DefaultFolders() []Folder {
	return []Folder{{ID: AllFolderID, Name: AllFolderName}}
}
