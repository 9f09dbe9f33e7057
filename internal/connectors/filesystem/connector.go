// Package filesystem watches a local drop directory and enqueues every
// file that lands in it. Dedup happens downstream: the queue keys on the
// content checksum, so re-dropped or re-written files are no-ops.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/logger"
)

// settleDelay gives a writer time to finish before the file is hashed.
// fsnotify fires on create and on every chunk written; the checksum
// dedup absorbs the repeats, the delay just avoids hashing half a file.
const settleDelay = 200 * time.Millisecond

// Connector feeds files from a drop directory into the job queue.
type Connector struct {
	orgID  string
	dir    string
	queue  driving.JobQueue
	settle time.Duration
}

// New creates a connector for the organisation's drop directory.
func New(orgID, dir string, queue driving.JobQueue) *Connector {
	return &Connector{
		orgID:  orgID,
		dir:    dir,
		queue:  queue,
		settle: settleDelay,
	}
}

// Scan walks the drop directory once and enqueues every regular file.
// It returns the number of jobs created; files already queued under
// their checksum do not count.
func (c *Connector) Scan(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("scan drop directory: %w", err)
	}

	var created int
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}
		enqueued, err := c.enqueueFile(ctx, filepath.Join(c.dir, entry.Name()))
		if err != nil {
			logger.Warn("Skipping %s: %v", entry.Name(), err)
			continue
		}
		if enqueued {
			created++
		}
	}
	return created, nil
}

// Watch runs an initial scan and then follows filesystem events until
// the context is cancelled.
func (c *Connector) Watch(ctx context.Context) error {
	if _, err := c.Scan(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}
	logger.Info("Watching %s for organisation %s", c.dir, c.orgID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !c.relevant(event) {
				continue
			}
			select {
			case <-time.After(c.settle):
			case <-ctx.Done():
				return ctx.Err()
			}
			if _, err := c.enqueueFile(ctx, event.Name); err != nil {
				logger.Warn("Skipping %s: %v", event.Name, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// relevant filters events down to file content arriving: creates and
// writes of non-hidden regular files.
func (c *Connector) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	if isHidden(filepath.Base(event.Name)) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// enqueueFile hashes the file and enqueues it with its detected format.
// A duplicate checksum is a successful no-op.
func (c *Connector) enqueueFile(ctx context.Context, path string) (bool, error) {
	checksum, err := checksumFile(path)
	if err != nil {
		return false, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	req := driving.EnqueueRequest{
		OrgID:         c.orgID,
		SourceRef:     path,
		ConnectorType: domain.ConnectorFilesystem,
		Format:        domain.DetectFormat(ext),
		Checksum:      checksum,
	}

	jobID, err := c.queue.Enqueue(ctx, req)
	if errors.Is(err, domain.ErrDuplicate) {
		logger.Debug("Duplicate drop %s (job %s)", filepath.Base(path), jobID)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger.Debug("Enqueued %s as job %s", filepath.Base(path), jobID)
	return true, nil
}

// checksumFile streams the file through SHA-256.
func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
