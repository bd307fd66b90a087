package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// DiskUsage returns the combined size in bytes of the given files or directory trees.
// Paths that do not exist count as zero.
func DiskUsage(paths ...string) (int64, error) {
	var total int64
	for _, root := range paths {
		if root == "" {
			continue
		}
		err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}

