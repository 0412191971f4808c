package watcher

// FilesystemType is a coarse classification of the filesystem holding the
// watched file. Network and FUSE filesystems often drop inotify events, so
// the watcher polls on them.
type FilesystemType string

const (
	FSTypeUnknown FilesystemType = "unknown"
	FSTypeLocal   FilesystemType = "local"
	FSTypeNFS     FilesystemType = "nfs"
	FSTypeSMB     FilesystemType = "smb"
	FSTypeFUSE    FilesystemType = "fuse"
	FSType9P      FilesystemType = "9p"
)

// IsRemote reports whether events on this filesystem are unreliable.
func (t FilesystemType) IsRemote() bool {
	switch t {
	case FSTypeNFS, FSTypeSMB, FSTypeFUSE, FSType9P:
		return true
	}
	return false
}
