package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"

	"github.com/spf13/cobra"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed focus time per day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			until := startOfDay(time.Now()).AddDate(0, 0, 1)
			since := until.AddDate(0, 0, -historyDays)
			records, err := store.ListFocus(ctx, since, until)
			if err != nil {
				return err
			}
			labels, err := intentLabels(ctx, store)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), summarizeHistory(records, labels))
			return nil
		})(cmd)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 7, "number of days to show, including today")
	rootCmd.AddCommand(historyCmd)
}

// daySummary totals one local calendar day.
type daySummary struct {
	Day      time.Time
	Phases   int
	Minutes  int
	Skipped  int
	ByIntent map[string]int
}

func summarizeHistory(records []model.FocusRecord, labels map[string]string) []daySummary {
	byDay := map[time.Time]*daySummary{}
	for _, record := range records {
		day := startOfDay(record.CompletedAt.Local())
		summary, ok := byDay[day]
		if !ok {
			summary = &daySummary{Day: day, ByIntent: map[string]int{}}
			byDay[day] = summary
		}
		summary.Phases++
		summary.Minutes += record.Minutes
		if record.Manual {
			summary.Skipped++
		}
		label := labels[record.IntentID]
		if label == "" {
			label = "(no intent)"
		}
		summary.ByIntent[label] += record.Minutes
	}

	summaries := make([]daySummary, 0, len(byDay))
	for _, summary := range byDay {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Day.Before(summaries[j].Day) })
	return summaries
}

func printHistory(out io.Writer, summaries []daySummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No focus time recorded.")
		return
	}
	total := 0
	for _, summary := range summaries {
		total += summary.Minutes
		fmt.Fprintf(out, "%s  %3d min in %d phases", summary.Day.Format("Mon 2006-01-02"), summary.Minutes, summary.Phases)
		if summary.Skipped > 0 {
			fmt.Fprintf(out, " (%d ended early)", summary.Skipped)
		}
		fmt.Fprintln(out)

		labels := make([]string, 0, len(summary.ByIntent))
		for label := range summary.ByIntent {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(out, "    %-24s %3d min\n", label, summary.ByIntent[label])
		}
	}
	fmt.Fprintf(out, "Total: %d min\n", total)
}

func startOfDay(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, value.Location())
}
