package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

var (
	workerCount int
	workerOnce  bool
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run ingestion workers",
	Long: `Starts the worker pool. Workers lease jobs from the queue, extract
and chunk documents, and acknowledge on success. Runs until interrupted;
with --once, drains the queue and exits.`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerCount, "workers", 0, "Worker pool size (default: half the CPUs)")
	workerCmd.Flags().BoolVar(&workerOnce, "once", false, "Process queued jobs and exit instead of polling")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if ingestRunner == nil {
		return errors.New("pipeline not configured")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	if workerOnce {
		runErr = drainQueue(ctx)
	} else {
		runErr = ingestRunner.Run(ctx)
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	}

	status := ingestRunner.Status()
	cmd.Printf("Processed %d jobs (%d failed), %d chunks produced\n",
		status.JobsProcessed, status.JobsFailed, status.ChunksProduced)
	if status.OCR.Segments > 0 {
		cmd.Printf("OCR: %d segments, %d routed to review, %d fallback, %d failed\n",
			status.OCR.Segments, status.OCR.Routed, status.OCR.FallbackUsed, status.OCR.Failed)
	}
	return runErr
}

// drainQueue processes jobs serially until the queue reports empty.
func drainQueue(ctx context.Context) error {
	for {
		err := ingestRunner.ProcessOne(ctx, "worker-once")
		switch {
		case errors.Is(err, domain.ErrNoJobAvailable):
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			// Job-level failures are recorded on the job; keep draining.
			continue
		}
	}
}
