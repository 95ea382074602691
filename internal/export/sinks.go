package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes export artifacts into a local directory.
type DirSink struct {
	dir string
}

// NewDirSink creates a sink rooted at dir, creating it if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Write stores the artifact under its name.
func (s *DirSink) Write(name string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export artifact: %w", err)
	}
	return nil
}
