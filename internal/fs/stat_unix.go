//go:build unix

package fs

import (
	"io/fs"
	"syscall"
)

// inode extracts the inode number from a FileInfo.
// Returns 0 for filesystems that don't provide real stat data, e.g. memfs.
func inode(info fs.FileInfo) uint64 {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(stat.Ino)
}
