package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/logger"
)

// Ensure IngestPipeline implements the interface.
var _ driving.Pipeline = (*IngestPipeline)(nil)

// PipelineConfig tunes the worker pool.
type PipelineConfig struct {
	// Workers is the worker pool size. Defaults to half the CPUs,
	// minimum one.
	Workers int

	// PollInterval is how long an idle worker waits before trying to
	// lease again.
	PollInterval time.Duration
}

// DefaultPipelineConfig returns production defaults.
func DefaultPipelineConfig() PipelineConfig {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return PipelineConfig{Workers: workers, PollInterval: 2 * time.Second}
}

// IngestPipeline drives ingestion end to end: lease a job, read and
// parse the source, OCR image segments, chunk, persist, acknowledge.
// Any step failing hands the job back to the queue's retry policy.
type IngestPipeline struct {
	queue    driving.JobQueue
	reader   driven.SourceReader
	adapters driven.AdapterRegistry
	ocr      driving.OCRCoordinator
	chunker  driven.Chunker
	docs     driven.DocumentStore
	orgs     driven.OrgStore
	cfg      PipelineConfig

	mu     sync.Mutex
	status driving.PipelineStatus
}

// NewIngestPipeline creates a pipeline. All collaborators are required
// except ocr, which may be nil when no OCR engines are configured;
// documents with image segments then fail and retry until review of the
// deployment, rather than passing silently with empty text.
func NewIngestPipeline(
	queue driving.JobQueue,
	reader driven.SourceReader,
	adapters driven.AdapterRegistry,
	ocr driving.OCRCoordinator,
	chunker driven.Chunker,
	docs driven.DocumentStore,
	orgs driven.OrgStore,
	cfg PipelineConfig,
) *IngestPipeline {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultPipelineConfig().Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPipelineConfig().PollInterval
	}
	return &IngestPipeline{
		queue:    queue,
		reader:   reader,
		adapters: adapters,
		ocr:      ocr,
		chunker:  chunker,
		docs:     docs,
		orgs:     orgs,
		cfg:      cfg,
	}
}

// Run starts the worker pool and blocks until ctx is cancelled and all
// in-flight jobs drain.
func (p *IngestPipeline) Run(ctx context.Context) error {
	pool, err := ants.NewPool(p.cfg.Workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	logger.Info("Starting %d ingestion workers", p.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			p.workerLoop(ctx, workerID)
		}); err != nil {
			wg.Done()
			return fmt.Errorf("submit worker: %w", err)
		}
	}

	wg.Wait()
	logger.Info("Ingestion workers stopped")
	return ctx.Err()
}

// workerLoop leases and processes jobs until the context is cancelled.
func (p *IngestPipeline) workerLoop(ctx context.Context, workerID string) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.ProcessOne(ctx, workerID)
		switch {
		case err == nil:
			// Immediately try for the next job.
		case errors.Is(err, domain.ErrNoJobAvailable):
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
		case errors.Is(err, context.Canceled):
			return
		default:
			logger.Warn("Worker %s: %v", workerID, err)
			// A broken store would otherwise spin this loop flat out.
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
		}
	}
}

// ProcessOne leases and processes a single job. Returns
// domain.ErrNoJobAvailable when the queue is empty; processing errors
// are returned after the job is handed back through Fail.
func (p *IngestPipeline) ProcessOne(ctx context.Context, workerID string) error {
	job, err := p.queue.Lease(ctx, workerID)
	if err != nil {
		return err
	}

	chunks, err := p.process(ctx, job)
	if err != nil {
		p.recordFailure()
		if ferr := p.queue.Fail(ctx, job.ID, err); ferr != nil {
			logger.Warn("Failed to record failure for job %s: %v", job.ID, ferr)
		}
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	if err := p.queue.Ack(ctx, job.ID); err != nil {
		return fmt.Errorf("ack job %s: %w", job.ID, err)
	}
	p.recordSuccess(chunks)
	logger.Debug("Worker %s completed job %s (%d chunks)", workerID, job.ID, chunks)
	return nil
}

// process runs one job through the full sequence, returning the number
// of persisted chunks.
func (p *IngestPipeline) process(ctx context.Context, job *domain.IngestionJob) (int, error) {
	// 1. Resolve organisation metadata (cached). Missing metadata means
	// defaults, not failure.
	var org *domain.Organisation
	if p.orgs != nil {
		o, err := p.orgs.Get(ctx, job.OrgID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("resolve org: %w", err)
		}
		org = o
	}

	// 2. Read the source artifact.
	content, err := p.reader.Read(ctx, job.SourceRef)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}

	// 3. Parse into a normalised document.
	adapter, err := p.adapters.Resolve(job.Format, content)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			// No adapter will ever appear mid-retry.
			return 0, fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)
		}
		return 0, fmt.Errorf("resolve adapter: %w", err)
	}
	doc, err := adapter.Parse(ctx, job.OrgID, job.Checksum, content)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", job.SourceRef, err)
	}

	// 4. OCR image segments, merging extracted text into the document.
	if doc.NeedsOCR() {
		if err := p.runOCR(ctx, doc, org); err != nil {
			return 0, err
		}
	}

	// 5. Chunk.
	chunks, err := p.chunker.Chunk(ctx, doc, org.ChunkConfigOrDefault())
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}

	// 6. Persist document and chunks in one upsert.
	if err := p.docs.Save(ctx, doc, chunks); err != nil {
		return 0, fmt.Errorf("save document: %w", err)
	}
	return len(chunks), nil
}

// runOCR coordinates every pending image segment and substitutes the
// extracted text for its placeholder.
func (p *IngestPipeline) runOCR(ctx context.Context, doc *domain.Document, org *domain.Organisation) error {
	if p.ocr == nil {
		return fmt.Errorf("%w: document has image segments but no ocr engines are configured", domain.ErrAllEnginesFailed)
	}

	var pending []domain.ImageSegment
	for _, segment := range doc.Images {
		if segment.NeedsOCR {
			pending = append(pending, segment)
		}
	}

	results, stats, err := p.ocr.ProcessDocument(ctx, pending, doc.ID, org.DocTypeOrDefault())
	p.recordOCR(stats)
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	for i := range results {
		doc.ResolveImage(results[i].SegmentIndex, results[i].Text)
	}
	return nil
}

// Status reports cumulative pipeline counters.
func (p *IngestPipeline) Status() driving.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.status
	snapshot.OCR.EngineUse = make(map[string]int, len(p.status.OCR.EngineUse))
	for engine, n := range p.status.OCR.EngineUse {
		snapshot.OCR.EngineUse[engine] = n
	}
	return snapshot
}

func (p *IngestPipeline) recordSuccess(chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.JobsProcessed++
	p.status.ChunksProduced += chunks
}

func (p *IngestPipeline) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.JobsFailed++
}

func (p *IngestPipeline) recordOCR(stats *domain.OCRStats) {
	if stats == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.OCR.Add(*stats)
}
