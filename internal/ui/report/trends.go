package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"msindex/internal/data/history"
)

// RenderTrendTSV writes one row per run of the pair, oldest first.
func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRunID\tSeed\tMSI\tStuckBefore\tStuckAfter\tDeltaMSI\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%.4f\t%d\t%d\t%+.4f\n",
			point.Timestamp.Format(time.RFC3339),
			point.RunID,
			point.Seed,
			point.MSI,
			point.StuckBefore,
			point.StuckAfter,
			point.DeltaMSI,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderRunsTable is the plain-text listing printed by `history list`.
func RenderRunsTable(runs []history.RunSummary) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("%-36s  %-12s  %-16s  %-20s  %6s  %6s\n", "RUN", "KIND", "SEED", "TIME (UTC)", "MODELS", "VALUES"))
	for _, r := range runs {
		buf.WriteString(fmt.Sprintf("%-36s  %-12s  %-16s  %-20s  %6d  %6d\n",
			r.ID, r.Kind, r.Seed, r.Timestamp.UTC().Format("2006-01-02 15:04:05"), r.ModelCount, r.ValueCount))
	}
	return buf.String()
}
