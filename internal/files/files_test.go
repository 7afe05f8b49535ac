package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	p := Policy{ExportsDir: t.TempDir(), Config: config.DefaultConfig()}

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../backup.json"},
		{"deep traversal", "../../etc/backup.json"},
		{"mid-path traversal", "/tmp/../etc/backup.json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := p.ValidatePath(tc.path, CheckWrite, ".json")
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("ValidatePath(%q) error = %v, want INVALID_REQUEST", tc.path, err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	p := Policy{Config: cfg}

	for _, path := range []string{"/tmp/backup", "/tmp/backup.jsonl", "/tmp/backup.exe"} {
		if err := p.ValidatePath(path, CheckWrite, ".json", ".txt"); !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("ValidatePath(%q) error = %v, want INVALID_REQUEST", path, err)
		}
	}
	if err := p.ValidatePath("/tmp/NOTE.TXT", CheckWrite, ".json", ".txt"); err != nil {
		t.Errorf("ValidatePath(upper-case ext) error = %v", err)
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	exports := t.TempDir()
	p := Policy{ExportsDir: exports, Config: config.DefaultConfig()}

	if err := p.ValidatePath(filepath.Join(exports, "notes.json"), CheckWrite, ".json"); err != nil {
		t.Errorf("ValidatePath(in exports) error = %v", err)
	}

	outside := filepath.Join(t.TempDir(), "notes.json")
	if err := p.ValidatePath(outside, CheckWrite, ".json"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ValidatePath(outside) error = %v, want INVALID_REQUEST", err)
	}

	nested := filepath.Join(exports, "sub")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := p.ValidatePath(filepath.Join(nested, "notes.json"), CheckWrite, ".json"); err == nil {
		t.Error("ValidatePath(nested) error = nil, want rejection")
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	extra := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{extra, "relative/ignored"}
	p := Policy{ExportsDir: t.TempDir(), Config: cfg}

	if err := p.ValidatePath(filepath.Join(extra, "a.md"), CheckWrite, ".md"); err != nil {
		t.Errorf("ValidatePath(allowed path) error = %v", err)
	}
}

func TestValidatePath_ReadMissingFile(t *testing.T) {
	exports := t.TempDir()
	p := Policy{ExportsDir: exports}

	err := p.ValidatePath(filepath.Join(exports, "missing.json"), CheckRead, ".json")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ValidatePath(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestValidatePath_SymlinkRejectedEvenWithUnsafePaths(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "secret.json")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	p := Policy{Config: cfg}
	if err := p.ValidatePath(link, CheckRead, ".json"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ValidatePath(symlink) error = %v, want INVALID_REQUEST", err)
	}
}

func TestWriteAtomic_ReplacesAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}
	if err := WriteAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteAtomic() error = %v", err)
	}

	data, err := ReadLimited(path)
	if err != nil {
		t.Fatalf("ReadLimited() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file left behind)", len(entries))
	}
}

func TestReadLimited_Missing(t *testing.T) {
	_, err := ReadLimited(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ReadLimited(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/a.json", false},
		{"../a.json", true},
		{"/tmp/..hidden.json", false},
		{"a/../b.json", true},
	}
	for _, tt := range tests {
		if got := containsTraversal(tt.path); got != tt.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"[2026-03-07] Voice memo", "[2026-03-07] Voice memo"},
		{"a/b\\c", "a-b-c"},
		{"../../etc/passwd", "etc-passwd"},
		{"what? yes: no", "what- yes- no"},
		{"\x00\x01", "unnamed"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
