// Package filesystem relocates terminally failed source artifacts into a
// failure directory for operator inspection, alongside a sidecar file
// recording the failure cause.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Store moves failed artifacts under a single failure directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. The directory is created on first
// quarantine, not here, so construction never touches the disk.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Quarantine moves the artifact into the failure directory and writes a
// <name>.cause sidecar with the failure cause. It returns the new path.
// Name collisions get a timestamp suffix so nothing is overwritten.
func (s *Store) Quarantine(_ context.Context, sourceRef string, cause string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create failure directory: %w", err)
	}

	dest := filepath.Join(s.dir, filepath.Base(sourceRef))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		dest = fmt.Sprintf("%s.%d%s", dest[:len(dest)-len(ext)], time.Now().UnixNano(), ext)
	}

	if err := move(sourceRef, dest); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", sourceRef, err)
	}

	sidecar := dest + ".cause"
	if err := os.WriteFile(sidecar, []byte(cause+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write cause sidecar: %w", err)
	}

	return dest, nil
}

// move renames the file, falling back to copy-and-remove when source and
// failure directory live on different filesystems.
func move(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
