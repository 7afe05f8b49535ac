//go:build !windows

package files

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/voxnote/internal/errors"
)

// openNoFollow opens path with O_NOFOLLOW and O_CLOEXEC. Only the final
// component is protected; ValidatePath keeps files directly inside allowed dirs.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		return nil, openError(path, flag, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

func openError(path string, flag int, err error) error {
	readOnly := flag&(os.O_WRONLY|os.O_RDWR) == 0
	switch {
	case stderrors.Is(err, syscall.ELOOP):
		if readOnly {
			return errors.NewInvalidRequest("cannot read from symlink: " + path)
		}
		return errors.NewInvalidRequest("cannot write to symlink: " + path)
	case readOnly && stderrors.Is(err, syscall.ENOENT):
		return errors.NewNotFound("file", path)
	}
	return err
}
