//go:build !linux

package watcher

// DetectFilesystemType is only implemented on Linux; elsewhere fsnotify is
// trusted and the result is FSTypeUnknown.
func DetectFilesystemType(string) FilesystemType {
	return FSTypeUnknown
}
