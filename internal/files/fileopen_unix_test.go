//go:build !windows

package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/voxnote/internal/errors"
)

func TestReadLimited_SymlinkRejected(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.json")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	if _, err := ReadLimited(link); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ReadLimited(symlink) error = %v, want INVALID_REQUEST", err)
	}
}

func TestOpenNoFollow_WriteMissingDirIsNotNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	_, err := openNoFollow(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, errors.ErrNotFound) {
		t.Errorf("write open error = %v, want a plain OS error", err)
	}
}
