package progress

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write serializes doc and writes it to path atomically: the full content
// is written to a temporary sibling file and then renamed into place, so
// concurrent readers on path always observe either the complete pre-write
// or complete post-write content, never a partial file.
func Write(path string, doc *Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("progress: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	content := Render(doc)
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("progress: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("progress: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("progress: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("progress: renaming into place: %w", err)
	}

	return nil
}
