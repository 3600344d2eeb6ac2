package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"dirtidy/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7B61FF"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73F59F"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5F87"))
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderReport formats a run summary. With detailed set every move is
// listed as well.
func renderReport(r *types.Report, detailed bool) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Organized "+r.Target) + "\n")
	elapsed := r.Finished.Sub(r.Started).Round(time.Millisecond)
	b.WriteString(mutedStyle.Render(fmt.Sprintf("run %s · %d files scanned · %s", r.RunID, r.Scanned, elapsed)) + "\n")

	if len(r.Moves) == 0 && len(r.RemovedDirs) == 0 {
		b.WriteString(successStyle.Render("Nothing to do, the tree is already tidy."))
		return b.String()
	}

	rows := [][]string{
		passRow("Sorted", r.MovesFor(types.SortPass)),
		passRow("Duplicates", r.MovesFor(types.DedupePass)),
		{"Empty folders removed", humanize.Comma(int64(len(r.RemovedDirs))), ""},
	}
	b.WriteString(renderTable([]string{"Action", "Count", "Size"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))

	if detailed && len(r.Moves) > 0 {
		b.WriteString("\n")
		moveRows := make([][]string, 0, len(r.Moves))
		for _, m := range r.Moves {
			moveRows = append(moveRows, []string{
				string(m.Pass),
				relativeTo(r.Target, m.SourcePath),
				relativeTo(r.Target, m.DestinationPath),
				humanize.IBytes(uint64(m.Size)),
			})
		}
		b.WriteString(renderTable([]string{"Pass", "From", "To", "Size"}, moveRows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}))
	}
	return b.String()
}

func passRow(label string, moves []types.Move) []string {
	var size int64
	for _, m := range moves {
		size += m.Size
	}
	return []string{label, humanize.Comma(int64(len(moves))), humanize.IBytes(uint64(size))}
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
