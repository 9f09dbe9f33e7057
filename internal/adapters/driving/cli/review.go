package cli

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

var (
	reviewStatus   string
	reviewPriority string
	reviewLimit    int
	reviewerFlag   string
	reviewText     string
	reviewTextFile string
	reviewWindow   time.Duration
	exportOutput   string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Work the manual review backlog",
	Long: `Low-confidence OCR output lands in a review backlog. List items,
claim one, and approve (with corrected text), reject or skip it.
Resolved items are kept for audit and can be exported as JSON Lines.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backlog items, worst first",
	RunE:  runReviewList,
}

var reviewTakeCmd = &cobra.Command{
	Use:   "take [item-id]",
	Short: "Claim a pending item",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewTake,
}

var reviewReleaseCmd = &cobra.Command{
	Use:   "release [item-id]",
	Short: "Abandon a claimed item back to the backlog",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewRelease,
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve [item-id]",
	Short: "Approve an item with corrected text",
	Long: `Approves the item. Corrected text is required: pass it with --text
or --text-file. Submitting the original text unchanged is how a
reviewer confirms the OCR output was right.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewApprove,
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject [item-id]",
	Short: "Mark an item's segment as unusable",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewResolve(domain.ActionReject),
}

var reviewSkipCmd = &cobra.Command{
	Use:   "skip [item-id]",
	Short: "Defer judgement on an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewResolve(domain.ActionSkip),
}

var reviewStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise review throughput",
	RunE:  runReviewStats,
}

var reviewExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export resolved items as JSON Lines",
	RunE:  runReviewExport,
}

func init() {
	reviewCmd.PersistentFlags().StringVar(&reviewerFlag, "reviewer", "", "Reviewer identity (default: current user)")

	reviewListCmd.Flags().StringVar(&reviewStatus, "status", "", "Filter by status (pending_review, in_review, approved, rejected, skipped)")
	reviewListCmd.Flags().StringVar(&reviewPriority, "priority", "", "Filter by priority (low, medium, high, critical)")
	reviewListCmd.Flags().IntVar(&reviewLimit, "limit", 20, "Maximum items to list (0 = all)")

	reviewApproveCmd.Flags().StringVar(&reviewText, "text", "", "Corrected text")
	reviewApproveCmd.Flags().StringVar(&reviewTextFile, "text-file", "", "File containing the corrected text")

	reviewStatsCmd.Flags().DurationVar(&reviewWindow, "window", 7*24*time.Hour, "Stats window")

	reviewExportCmd.Flags().StringVar(&reviewStatus, "status", "", "Export only this status")
	reviewExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewTakeCmd)
	reviewCmd.AddCommand(reviewReleaseCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
	reviewCmd.AddCommand(reviewSkipCmd)
	reviewCmd.AddCommand(reviewStatsCmd)
	reviewCmd.AddCommand(reviewExportCmd)
	rootCmd.AddCommand(reviewCmd)
}

// reviewer resolves the acting reviewer identity.
func reviewer() string {
	if reviewerFlag != "" {
		return reviewerFlag
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}

func parsePriority(s string) (domain.ReviewPriority, error) {
	switch s {
	case "":
		return 0, nil
	case "low":
		return domain.PriorityLow, nil
	case "medium":
		return domain.PriorityMedium, nil
	case "high":
		return domain.PriorityHigh, nil
	case "critical":
		return domain.PriorityCritical, nil
	default:
		return 0, fmt.Errorf("unknown priority %q", s)
	}
}

func runReviewList(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	priority, err := parsePriority(reviewPriority)
	if err != nil {
		return err
	}

	items, err := reviewService.List(cmd.Context(), driven.ReviewFilter{
		Status:   domain.ReviewStatus(reviewStatus),
		Priority: priority,
		Limit:    reviewLimit,
	})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		cmd.Println("Review backlog is empty.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRIORITY\tCONF\tSTATUS\tDOCUMENT\tPAGE\tSEG")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%d\t%d\n",
			item.ID, item.Priority, item.Confidence, item.Status,
			item.DocumentID, item.Page, item.SegmentIndex)
	}
	return w.Flush()
}

func runReviewTake(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	item, err := reviewService.Take(cmd.Context(), args[0], reviewer())
	if err != nil {
		return err
	}

	cmd.Printf("Claimed %s (priority %s, confidence %.2f, engine %s)\n",
		item.ID, item.Priority, item.Confidence, item.Engine)
	cmd.Println("--- original text ---")
	cmd.Println(item.OriginalText)
	return nil
}

func runReviewRelease(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	if err := reviewService.Release(cmd.Context(), args[0], reviewer()); err != nil {
		return err
	}
	cmd.Printf("Released %s back to the backlog\n", args[0])
	return nil
}

func runReviewApprove(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	text := reviewText
	if text == "" && reviewTextFile != "" {
		raw, err := os.ReadFile(reviewTextFile)
		if err != nil {
			return err
		}
		text = string(raw)
	}

	if err := reviewService.Review(cmd.Context(), args[0], reviewer(), domain.ActionApprove, text); err != nil {
		return err
	}
	cmd.Printf("Approved %s\n", args[0])
	return nil
}

func runReviewResolve(action domain.ReviewAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if reviewService == nil {
			return errors.New("review service not configured")
		}

		if err := reviewService.Review(cmd.Context(), args[0], reviewer(), action, ""); err != nil {
			return err
		}
		past := "Rejected"
		if action == domain.ActionSkip {
			past = "Skipped"
		}
		cmd.Printf("%s %s\n", past, args[0])
		return nil
	}
}

func runReviewStats(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	stats, err := reviewService.Stats(cmd.Context(), reviewerFlag, reviewWindow)
	if err != nil {
		return err
	}

	cmd.Printf("Window: %s\n", reviewWindow)
	for _, status := range []domain.ReviewStatus{
		domain.ReviewPending, domain.ReviewInProgress,
		domain.ReviewApproved, domain.ReviewRejected, domain.ReviewSkipped,
	} {
		cmd.Printf("  %-15s %d\n", status, stats.CountsByStatus[status])
	}
	cmd.Printf("Average confidence: %.2f\n", stats.AverageConfidence)
	cmd.Printf("Approval rate:      %.0f%%\n", stats.ApprovalRate*100)
	cmd.Printf("Mean turnaround:    %s\n", stats.MeanTurnaround)
	return nil
}

func runReviewExport(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	out := cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	count, err := reviewService.Export(cmd.Context(), out, driven.ReviewFilter{
		Status: domain.ReviewStatus(reviewStatus),
	})
	if err != nil {
		return err
	}
	if exportOutput != "" {
		cmd.Printf("Exported %d items to %s\n", count, exportOutput)
	}
	return nil
}
