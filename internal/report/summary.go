package report

import (
	"io"

	"chcrawler/internal/crawler"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSummary renders one row per query and a total.
func PrintSummary(w io.Writer, report crawler.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Query", "Scanned", "Matches", "Elapsed", "Failure"})

	scanned := 0
	for _, outcome := range report.Outcomes {
		scanned += outcome.Scanned
		t.AppendRow(table.Row{
			outcome.Keywords,
			outcome.Scanned,
			len(outcome.Matches),
			FormatElapsed(outcome.Elapsed),
			outcome.Failure,
		})
	}
	t.AppendFooter(table.Row{"Total", scanned, report.TotalMatches(), FormatElapsed(report.Elapsed), ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// PrintRuns renders the runs kept in a Store.
func PrintRuns(w io.Writer, runs []RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Run", "Started", "Queries", "Matches", "Elapsed"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Queries,
			run.Matches,
			FormatElapsed(run.Elapsed),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
