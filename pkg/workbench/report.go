package workbench

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Default report file names, written into the workbench directory.
const (
	StructuresFileName  = "STAlignProcessedStructures.csv"
	ComparisonsFileName = "STAlignComparisonResults.csv"
)

// CSV column names.
var structuresHeader = table.Row{"Num", "FileName", "NumberOfWeakBonds", "TimeToGenerateStructuralTree[ns]"}

var comparisonsHeader = table.Row{
	"FileName1", "NumberOfWeakBonds1", "TimeToGenerateStructuralTree1[ns]",
	"FileName2", "NumberOfWeakBonds2", "TimeToGenerateStructuralTree2[ns]",
}

var (
	alignHeader = table.Row{"ASADistance", "TimeToCalculateASADistance[ns]"}
	editHeader  = table.Row{"EditDistance", "TimeToCalculateEditDistance[ns]"}
)

// WriteStructuresCSV writes one row per built structure, numbered from 1.
func WriteStructuresCSV(w io.Writer, report *Report) error {
	rows := make([]table.Row, 0, len(report.Structures))

	for num, s := range report.Built() {
		rows = append(rows, table.Row{num + 1, s.Name, s.Bonds, s.BuildTime.Nanoseconds()})
	}

	return renderCSV(w, structuresHeader, rows)
}

// WriteComparisonsCSV writes one row per compared pair. The distance
// columns depend on the report engine. Pairs with a failed distance are
// left out.
func WriteComparisonsCSV(w io.Writer, report *Report) error {
	header := append(table.Row{}, comparisonsHeader...)

	if report.Engine.Aligns() {
		header = append(header, alignHeader...)
	}

	if report.Engine.Edits() {
		header = append(header, editHeader...)
	}

	rows := make([]table.Row, 0, len(report.Comparisons))

	for _, c := range report.Comparisons {
		if c.Err() != nil {
			continue
		}

		row := table.Row{
			c.Left.Name, c.Left.Bonds, c.Left.BuildTime.Nanoseconds(),
			c.Right.Name, c.Right.Bonds, c.Right.BuildTime.Nanoseconds(),
		}

		if report.Engine.Aligns() {
			row = append(row, formatDistance(c.Distance), c.AlignTime.Nanoseconds())
		}

		if report.Engine.Edits() {
			row = append(row, formatDistance(c.EditDistance), c.EditTime.Nanoseconds())
		}

		rows = append(rows, row)
	}

	return renderCSV(w, header, rows)
}

func renderCSV(w io.Writer, header table.Row, rows []table.Row) error {
	tw := table.NewWriter()
	tw.AppendHeader(header)
	tw.AppendRows(rows)

	_, err := io.WriteString(w, tw.RenderCSV()+"\n")
	if err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	return nil
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// WriteSummary renders the structures of report as a text table, followed
// by a one-line total.
func WriteSummary(w io.Writer, report *Report) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "File", "Length", "Bonds", "Build", "Error"})

	for idx, s := range report.Structures {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}

		tw.AppendRow(table.Row{
			idx + 1, s.Name, humanize.Comma(int64(s.Length)), humanize.Comma(int64(s.Bonds)),
			roundDuration(s.BuildTime), errText,
		})
	}

	built := len(report.Built())
	failed := 0

	for _, c := range report.Comparisons {
		if c.Err() != nil {
			failed++
		}
	}

	_, err := fmt.Fprintf(w, "%s\n%s of %s structures built, %s comparisons (%s failed) in %s\n",
		tw.Render(),
		humanize.Comma(int64(built)), humanize.Comma(int64(len(report.Structures))),
		humanize.Comma(int64(len(report.Comparisons))), humanize.Comma(int64(failed)),
		roundDuration(report.Elapsed))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	return nil
}

// WriteComparisonsTable renders the compared pairs as a text table.
func WriteComparisonsTable(w io.Writer, report *Report) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	header := table.Row{"File 1", "File 2"}
	if report.Engine.Aligns() {
		header = append(header, "ASA distance")
	}

	if report.Engine.Edits() {
		header = append(header, "Edit distance")
	}

	tw.AppendHeader(append(header, "Error"))

	for _, c := range report.Comparisons {
		row := table.Row{c.Left.Name, c.Right.Name}

		if report.Engine.Aligns() {
			row = append(row, distanceCell(c.Distance, c.AlignErr))
		}

		if report.Engine.Edits() {
			row = append(row, distanceCell(c.EditDistance, c.EditErr))
		}

		errText := ""
		if err := c.Err(); err != nil {
			errText = err.Error()
		}

		tw.AppendRow(append(row, errText))
	}

	_, err := io.WriteString(w, tw.Render()+"\n")
	if err != nil {
		return fmt.Errorf("write comparisons: %w", err)
	}

	return nil
}

func distanceCell(distance float64, err error) string {
	if err != nil {
		return "-"
	}

	return formatDistance(distance)
}

func roundDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.String()
	}
}
