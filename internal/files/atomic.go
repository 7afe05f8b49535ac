package files

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hpungsan/voxnote/internal/errors"
)

// MaxReadSize bounds import files.
const MaxReadSize = 64 << 20

// WriteAtomic writes data to a temp file next to path, fsyncs it, then renames it
// over path. An existing file is left untouched on failure.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to sync file: %w", err))
	}
	if err := file.Close(); err != nil {
		file = nil
		return errors.NewInternal(err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to rename file: %w", err))
	}
	success = true
	return nil
}

// ReadLimited reads a whole file without following a symlink in the final component.
func ReadLimited(path string) ([]byte, error) {
	f, err := openNoFollow(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxReadSize+1))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if len(data) > MaxReadSize {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("file exceeds %d bytes", MaxReadSize))
	}
	return data, nil
}
