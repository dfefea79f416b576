package utils

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// UploadPath returns where the index-th uploaded file of a folder is stored
// under root. rel is the client supplied path (slash separated, as sent by a
// folder picker); only its base name is kept, unchanged, inside a directory
// named after index, so distinct uploads never share a path.
func UploadPath(root string, index int, rel string) (string, error) {
	base := path.Base(rel)
	switch base {
	case "", ".", "..", "/":
		return "", errors.Errorf("invalid file name %q", rel)
	}
	return filepath.Join(root, strconv.Itoa(index), base), nil
}

// WriteFile copies r into path, creating parent directories. It returns the number of bytes written.
func WriteFile(path string, r io.Reader) (int64, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return 0, errors.Wrap(err, "failed to create upload directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create upload file")
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, errors.Wrap(err, "failed to write upload file")
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
