//go:build linux

package watcher

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// statfs magic numbers, see statfs(2).
const (
	magicNFS  = 0x6969
	magicSMB  = 0x517B
	magicCIFS = 0xFF534D42
	magicSMB2 = 0xFE534D42
	magicFUSE = 0x65735546
	magicV9FS = 0x01021997
)

// DetectFilesystemType classifies the filesystem holding path. When path
// does not exist yet, its nearest existing ancestor is used.
func DetectFilesystemType(path string) FilesystemType {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return FSTypeUnknown
		}
		dir = parent
	}

	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return FSTypeUnknown
	}
	switch uint32(st.Type) {
	case magicNFS:
		return FSTypeNFS
	case magicSMB, magicCIFS, magicSMB2:
		return FSTypeSMB
	case magicFUSE:
		return FSTypeFUSE
	case magicV9FS:
		return FSType9P
	}
	return FSTypeLocal
}
