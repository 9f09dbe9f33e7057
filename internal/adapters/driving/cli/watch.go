package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parchmint/ingest-cli/internal/connectors/filesystem"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the drop directory and queue arriving files",
	Long: `Scans the drop directory, then watches it for new files. Every file
that lands is hashed and queued; identical content is a no-op. Run
alongside 'ingest worker' (or combine with --workers in a separate
process) to process the queue.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Drop directory to watch (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}

	dir := watchDir
	if dir == "" {
		dir = cfg.DropDir
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (organisation %s)\n", dir, orgFlag)

	err := filesystem.New(orgFlag, dir, jobQueue).Watch(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
