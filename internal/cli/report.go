package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/EmpoweredVote/refdata/internal/db"
	"github.com/EmpoweredVote/refdata/internal/importer"
	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)
	table.SetHeader(header)
	return table
}

func printStats(w io.Writer, all []importer.Stats) {
	if len(all) == 0 {
		return
	}
	table := newTable(w, "Dataset", "Location", "Read", "Emitted", "Skipped", "Unresolved", "Mode", "Duration")
	for _, s := range all {
		mode := "dry run"
		if s.Committed {
			mode = "committed"
		}
		table.Append([]string{
			s.Dataset,
			s.Location,
			strconv.Itoa(s.Read),
			strconv.Itoa(s.Emitted),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Unresolved),
			mode,
			s.Duration.Round(time.Millisecond).String(),
		})
	}
	table.Render()
}

// printPlan lists, per table, how many inserts a dry run would have
// executed and one example statement.
func printPlan(w io.Writer, all []importer.Stats) {
	var n int
	for _, s := range all {
		n += len(s.Plan)
	}
	if n == 0 {
		fprintf(w, "Dry run complete. No statements planned.\n")
		return
	}

	fprintf(w, "Plan preview:\n")
	table := newTable(w, "Dataset", "Table", "Inserts", "Example")
	for _, s := range all {
		for _, p := range s.Plan {
			table.Append([]string{s.Dataset, p.Table, strconv.Itoa(p.Statements), example(p.Example)})
		}
	}
	table.Render()
	fprintf(w, "Dry run complete. No changes made.\n")
}

func example(stmt importer.Statement) string {
	return fmt.Sprintf("%s %v", stmt.SQL, stmt.Args)
}

func printCounts(w io.Writer, before, after []db.TableCount) {
	prev := make(map[string]int64, len(before))
	for _, c := range before {
		prev[c.Table] = c.Rows
	}
	table := newTable(w, "Table", "Before", "After", "Added")
	for _, c := range after {
		table.Append([]string{
			c.Table,
			strconv.FormatInt(prev[c.Table], 10),
			strconv.FormatInt(c.Rows, 10),
			strconv.FormatInt(c.Rows-prev[c.Table], 10),
		})
	}
	table.Render()
}

func printLabelCounts(w io.Writer, title string, counts []importer.LabelCount) {
	fprintf(w, "%s:\n", title)
	table := newTable(w, "Label", "Count")
	for _, c := range counts {
		table.Append([]string{fmt.Sprintf("%q", c.Label), strconv.Itoa(c.Count)})
	}
	table.Render()
}
