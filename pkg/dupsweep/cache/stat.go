package cache

import "os"

// statFile returns the size and modification time used to validate entries.
func statFile(path string) (size, mtime int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	return info.Size(), info.ModTime().UnixNano(), nil
}
