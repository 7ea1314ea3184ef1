package usage

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// shownErrors is how many recent errors the report prints per operation
const shownErrors = 3

// 📋 WriteReport prints a table of the statistics followed by recent errors
func WriteReport(w io.Writer, stats map[string]OperationStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No usage statistics recorded yet.")
		return err
	}

	names := slices.Sorted(maps.Keys(stats))

	data := pterm.TableData{{"Operation", "Calls", "Success Rate", "Avg Time", "Total Time"}}
	for _, name := range names {
		s := stats[name]
		data = append(data, []string{
			name,
			fmt.Sprintf("%d", s.CallCount),
			fmt.Sprintf("%.1f%%", s.SuccessRate()),
			formatSeconds(s.AvgTime),
			formatSeconds(s.TotalTime),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering usage table: %w", err)
	}

	if _, err := fmt.Fprintf(w, "\nCloudForge Usage Statistics\n\n%s\n", table); err != nil {
		return err
	}

	for _, name := range names {
		s := stats[name]
		if s.ErrorCount == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s: %d recent errors\n", name, len(s.Errors))
		recent := s.Errors
		if len(recent) > shownErrors {
			recent = recent[len(recent)-shownErrors:]
		}
		for _, e := range recent {
			fmt.Fprintf(w, "  - %s\n", truncateMessage(e.Error, 60))
		}
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func truncateMessage(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
