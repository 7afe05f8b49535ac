// Package files validates and performs file reads and writes for export and import.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/errors"
)

// CheckMode indicates whether the path check is for reading or writing.
type CheckMode int

const (
	CheckRead  CheckMode = iota // for import (read file)
	CheckWrite                  // for export (write file)
)

// Policy decides which paths import and export may touch.
type Policy struct {
	// ExportsDir is always allowed (~/.voxnote/exports in production)
	ExportsDir string
	Config     *config.Config
}

// ValidatePath checks a user-supplied import/export path:
// 1. no ".." components
// 2. extension is one of exts
// 3. the file is directly inside ExportsDir or an allowed path (no subdirectories),
// unless AllowUnsafePaths is set
// 4. neither the file nor its parent directory is a symlink
//
// Requiring files to sit directly in an allowed directory rules out swapping an
// intermediate component for a symlink between validation and open.
func (p Policy) ValidatePath(path string, mode CheckMode, exts ...string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if !hasExt(cleaned, exts) {
		return errors.NewInvalidRequest(fmt.Sprintf("path must have one of the extensions %v", exts))
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if p.Config == nil || !p.Config.AllowUnsafePaths {
		allowedDirs, err := p.allowedDirs()
		if err != nil {
			return err
		}
		parentDir := filepath.Dir(absPath)
		if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
					allowedDirs))
		}
		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == CheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound("file", path)
		}
	}

	// Symlink files are rejected even with AllowUnsafePaths.
	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// allowedDirs returns the exports dir plus configured absolute allowed paths,
// with symlinked entries resolved.
func (p Policy) allowedDirs() ([]string, error) {
	var dirs []string
	if p.ExportsDir != "" {
		dirs = append(dirs, p.ExportsDir)
	}
	if p.Config != nil {
		for _, d := range p.Config.AllowedPaths {
			if filepath.IsAbs(d) {
				dirs = append(dirs, filepath.Clean(d))
			}
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
		if info, lerr := os.Lstat(parentDir); lerr == nil && info.Mode()&os.ModeSymlink == 0 {
			parentDir = resolved
		}
	}
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}

// SanitizeFilename makes a note title safe to use as a file name.
func SanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, "..", "-")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 32 || r == 127:
		case strings.ContainsRune(`:*?"<>|`, r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(strings.TrimSpace(s), "-")

	if s == "" {
		s = "unnamed"
	}
	return s
}
