package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/wonny/areascore/internal/contracts"
	"github.com/wonny/areascore/internal/forecast"
	"github.com/wonny/areascore/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	singleLine = "───────────────────────────────────────────────────────────"
	doubleLine = "═══════════════════════════════════════════════════════════"
)

// printHeader prints a framed title
func printHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, singleLine)
}

// printKeyValue prints one aligned key-value pair
func printKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %-12s : %s\n", key, value)
}

func printSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

func printWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

func printFailure(w io.Writer, message string) {
	fmt.Fprintf(w, "❌ %s\n", message)
}

// printTable prints left-aligned columns separated by two spaces
func printTable(w io.Writer, columns []string, widths []int, rows [][]string) {
	printRow(w, columns, widths)

	total := 0
	for i, width := range widths {
		total += width
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", total))

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

func printRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// printRunResult prints stage outcomes and run totals
func printRunResult(w io.Writer, result *pipeline.RunResult) {
	printHeader(w, "Scoring Run")
	printKeyValue(w, "Run ID", result.RunID)
	printKeyValue(w, "Started", result.StartedAt.Format("2006-01-02 15:04:05"))
	printKeyValue(w, "Duration", result.Duration.String())
	fmt.Fprintln(w, singleLine)

	rows := make([][]string, 0, len(result.Stages))
	for _, s := range result.Stages {
		status := "ok"
		switch {
		case s.Skipped:
			status = "skipped"
		case !s.Success:
			status = "failed"
		}
		rows = append(rows, []string{
			s.Stage.String(), status,
			fmt.Sprintf("%d", s.InputCount), fmt.Sprintf("%d", s.OutputCount),
			fmt.Sprintf("%dms", s.Duration),
		})
	}
	printTable(w, []string{"STAGE", "STATUS", "IN", "OUT", "TIME"}, []int{10, 8, 8, 8, 8}, rows)
	fmt.Fprintln(w)

	fs := result.ForecastSummary
	printKeyValue(w, "Forecasts", fmt.Sprintf("%d (%d empty)", fs.TotalForecasts, fs.EmptyForecasts))
	if s := result.ScoringSummary; s != nil {
		printKeyValue(w, "Areas", fmt.Sprintf("%d", s.AreasScored))
		printKeyValue(w, "Outliers", fmt.Sprintf("%d", s.OutlierCount))
	}
	for _, path := range result.Artifacts {
		printKeyValue(w, "Artifact", path)
	}
	if len(result.ForecastIssues) > 0 {
		printWarning(w, fmt.Sprintf("%d forecast issues (see forecast validate)", len(result.ForecastIssues)))
	}

	fmt.Fprintln(w)
	if result.Success {
		printSuccess(w, fmt.Sprintf("Run %s completed in %s", result.RunID, result.Duration))
	} else {
		printFailure(w, fmt.Sprintf("Run %s failed: %s", result.RunID, result.Error))
	}
}

// printScores prints the top n areas by total (n <= 0 prints all)
func printScores(w io.Writer, set *contracts.ScoreSet, n int) {
	ranked := set.Ranked()
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}

	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		flag := ""
		if r.IsOutlier {
			flag = "outlier"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1), r.AreaName,
			fmt.Sprintf("%.1f", r.Total), fmt.Sprintf("Q%d", r.Quantile), flag,
		})
	}
	printTable(w, []string{"#", "AREA", "TOTAL", "TIER", ""}, []int{4, 28, 6, 4, 7}, rows)
}

// printIssues prints forecast structure problems
func printIssues(w io.Writer, issues []forecast.Issue) {
	if len(issues) == 0 {
		printSuccess(w, "No structural forecast issues")
		return
	}
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{is.Key, fmt.Sprintf("%d", is.Step), is.Message})
	}
	printTable(w, []string{"KEY", "STEP", "ISSUE"}, []int{40, 4, 40}, rows)
}

// printBacktest prints holdout accuracy per series
func printBacktest(w io.Writer, results []forecast.BacktestResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Key, string(r.ModelType),
			fmt.Sprintf("%.2f", r.MAE), fmt.Sprintf("%.1f%%", r.MAPE), fmt.Sprintf("%.0f%%", r.Coverage*100),
		})
	}
	printTable(w, []string{"KEY", "MODEL", "MAE", "MAPE", "COVER"}, []int{40, 14, 10, 8, 6}, rows)
}
