package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// File guards against running two beholder instances against the same
// proxy config.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Exists reports whether the pidfile holds a pid from a previous run.
func (f *File) Exists() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	_, err = strconv.Atoi(strings.TrimSpace(string(data)))
	return err == nil
}

func (f *File) Create() error {
	err := os.WriteFile(f.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
	if err != nil {
		return fmt.Errorf("failed to create pidfile %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Remove() error {
	return os.Remove(f.path)
}
