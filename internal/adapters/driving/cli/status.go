package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

var statusAllOrgs bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queue and review backlog depth",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusAllOrgs, "all", false, "Aggregate across all organisations")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if jobQueue == nil || reviewService == nil {
		return errors.New("services not configured")
	}

	org := orgFlag
	if statusAllOrgs {
		org = ""
	}

	backlog, err := jobQueue.Backlog(cmd.Context(), org)
	if err != nil {
		return err
	}

	if statusAllOrgs {
		cmd.Println("Queue (all organisations):")
	} else {
		cmd.Printf("Queue (%s):\n", org)
	}
	cmd.Printf("  pending    %d\n", backlog.Pending)
	cmd.Printf("  leased     %d\n", backlog.Leased)
	cmd.Printf("  completed  %d\n", backlog.Completed)
	cmd.Printf("  failed     %d\n", backlog.Failed)
	if backlog.Pending > 0 {
		cmd.Printf("  oldest pending: %s\n", backlog.OldestPendingAge.Round(time.Second))
	}
	if backlog.AgeThresholdExceeded {
		cmd.Println("  WARNING: oldest pending job exceeds the alert threshold")
	}

	pending, err := reviewService.List(cmd.Context(), driven.ReviewFilter{Status: domain.ReviewPending})
	if err != nil {
		return err
	}
	inReview, err := reviewService.List(cmd.Context(), driven.ReviewFilter{Status: domain.ReviewInProgress})
	if err != nil {
		return err
	}

	cmd.Println("Review backlog:")
	cmd.Printf("  pending_review  %d\n", len(pending))
	cmd.Printf("  in_review       %d\n", len(inReview))
	return nil
}
