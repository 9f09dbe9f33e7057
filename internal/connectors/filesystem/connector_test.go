package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
)

// recordingQueue captures enqueues and reports duplicates by checksum,
// like the real queue does.
type recordingQueue struct {
	mu       sync.Mutex
	requests []driving.EnqueueRequest
	seen     map[string]string
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{seen: make(map[string]string)}
}

func (q *recordingQueue) Enqueue(_ context.Context, req driving.EnqueueRequest) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if id, ok := q.seen[req.Checksum]; ok {
		return id, domain.ErrDuplicate
	}
	id := fmt.Sprintf("job-%d", len(q.requests)+1)
	q.seen[req.Checksum] = id
	q.requests = append(q.requests, req)
	return id, nil
}

func (q *recordingQueue) Lease(context.Context, string) (*domain.IngestionJob, error) {
	return nil, domain.ErrNoJobAvailable
}

func (q *recordingQueue) Ack(context.Context, string) error { return nil }

func (q *recordingQueue) Fail(context.Context, string, error) error { return nil }

func (q *recordingQueue) Backlog(context.Context, string) (*domain.BacklogCounts, error) {
	return &domain.BacklogCounts{}, nil
}

func (q *recordingQueue) snapshot() []driving.EnqueueRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]driving.EnqueueRequest(nil), q.requests...)
}

func writeDrop(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanEnqueuesFiles(t *testing.T) {
	dir := t.TempDir()
	writeDrop(t, dir, "notes.md", "# Heading\n\nbody\n")
	writeDrop(t, dir, "plain.txt", "just text")

	queue := newRecordingQueue()
	created, err := New("org-1", dir, queue).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	byRef := make(map[string]driving.EnqueueRequest)
	for _, req := range queue.snapshot() {
		byRef[filepath.Base(req.SourceRef)] = req
	}

	md := byRef["notes.md"]
	assert.Equal(t, "org-1", md.OrgID)
	assert.Equal(t, domain.ConnectorFilesystem, md.ConnectorType)
	assert.Equal(t, domain.FormatMarkdown, md.Format)

	sum := sha256.Sum256([]byte("# Heading\n\nbody\n"))
	assert.Equal(t, hex.EncodeToString(sum[:]), md.Checksum)

	assert.Equal(t, domain.FormatPlaintext, byRef["plain.txt"].Format)
}

func TestScanSkipsHiddenFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeDrop(t, dir, ".partial.swp", "editor noise")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
	writeDrop(t, dir, "real.txt", "content")

	queue := newRecordingQueue()
	created, err := New("org-1", dir, queue).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, created)
	require.Len(t, queue.snapshot(), 1)
}

func TestScanDuplicateDropIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeDrop(t, dir, "a.txt", "same bytes")
	writeDrop(t, dir, "b.txt", "same bytes")

	queue := newRecordingQueue()
	created, err := New("org-1", dir, queue).Scan(context.Background())
	require.NoError(t, err)

	// Identical content collapses to one job regardless of filename.
	assert.Equal(t, 1, created)
}

func TestScanMissingDirectory(t *testing.T) {
	queue := newRecordingQueue()
	_, err := New("org-1", filepath.Join(t.TempDir(), "absent"), queue).Scan(context.Background())
	require.Error(t, err)
}

func TestWatchPicksUpNewFile(t *testing.T) {
	dir := t.TempDir()
	queue := newRecordingQueue()

	connector := New("org-1", dir, queue)
	connector.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- connector.Watch(ctx) }()

	// Give the watcher a moment to establish before dropping the file.
	time.Sleep(100 * time.Millisecond)
	writeDrop(t, dir, "late.txt", "arrived after start")

	require.Eventually(t, func() bool {
		return len(queue.snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	req := queue.snapshot()[0]
	assert.Equal(t, filepath.Join(dir, "late.txt"), req.SourceRef)
	assert.Equal(t, domain.FormatPlaintext, req.Format)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchRunsInitialScan(t *testing.T) {
	dir := t.TempDir()
	writeDrop(t, dir, "preexisting.txt", "was here first")

	queue := newRecordingQueue()
	connector := New("org-1", dir, queue)
	connector.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- connector.Watch(ctx) }()

	require.Eventually(t, func() bool {
		return len(queue.snapshot()) == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
