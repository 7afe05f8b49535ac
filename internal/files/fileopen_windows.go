//go:build windows

package files

import (
	"os"

	"github.com/hpungsan/voxnote/internal/errors"
)

// openNoFollow opens path. Windows has no O_NOFOLLOW; ValidatePath rejects
// symlinks before this point.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		if flag&(os.O_WRONLY|os.O_RDWR) == 0 && os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, err
	}
	return f, nil
}
