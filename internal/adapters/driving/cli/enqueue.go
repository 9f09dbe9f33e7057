package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
)

var enqueueFormat string

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [file...]",
	Short: "Queue files for ingestion",
	Long: `Queues one or more files. Each file is hashed and deduplicated by
content: re-enqueueing identical bytes for the same organisation is a
no-op that reports the existing job.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueFormat, "format", "", "Declared source format (default: detect by extension)")
	rootCmd.AddCommand(enqueueCmd)
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	if jobQueue == nil {
		return errors.New("job queue not configured")
	}

	var failed bool
	for _, path := range args {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		checksum, err := hashFile(abs)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed = true
			continue
		}

		format := domain.SourceFormat(enqueueFormat)
		if format == "" {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(abs), "."))
			format = domain.DetectFormat(ext)
		}

		jobID, err := jobQueue.Enqueue(cmd.Context(), driving.EnqueueRequest{
			OrgID:         orgFlag,
			SourceRef:     abs,
			ConnectorType: domain.ConnectorUpload,
			Format:        format,
			Checksum:      checksum,
		})
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			cmd.Printf("%s: already queued as job %s\n", path, jobID)
		case err != nil:
			cmd.PrintErrf("%s: %v\n", path, err)
			failed = true
		default:
			cmd.Printf("%s: job %s (%s)\n", path, jobID, format)
		}
	}

	if failed {
		return errors.New("some files could not be queued")
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
