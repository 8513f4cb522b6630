package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ironsheep/shape-finder-mcp/internal/config"
	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/history"
	"github.com/ironsheep/shape-finder-mcp/internal/report"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#243141"))
)

type historyOutput struct {
	Recent []history.Record `json:"recent"`
	Counts map[string]int   `json:"counts"`
}

func runHistory(args []string, cfg config.Config, stdout io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "history database")
	label := fs.String("label", "", "only list analyses with this label")
	limit := fs.Int("limit", 20, "maximum number of analyses to list")
	format := fs.String("format", string(report.FormatText), "output format: json or text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := report.ParseFormat(*format)
	if err != nil {
		return err
	}
	if *label != "" {
		l, err := detection.ParseShapeLabel(*label)
		if err != nil {
			return err
		}
		*label = l.String()
	}

	store, err := openHistory(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := historyOutput{}
	if out.Recent, err = store.Recent(*limit, *label); err != nil {
		return err
	}
	if out.Recent == nil {
		out.Recent = []history.Record{}
	}
	if out.Counts, err = store.CountByLabel(); err != nil {
		return err
	}

	if f == report.FormatJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	_, err = io.WriteString(stdout, renderHistory(out)+"\n")
	return err
}

func renderHistory(out historyOutput) string {
	if len(out.Recent) == 0 {
		return "no analyses recorded"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("ID", "When", "Label", "Vertices", "Area", "Source").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, r := range out.Recent {
		t.Row(
			r.ID[:8],
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Label,
			fmt.Sprintf("%d", r.Vertices),
			fmt.Sprintf("%.0f", r.Area),
			r.Source,
		)
	}

	labels := make([]string, 0, len(out.Counts))
	for l := range out.Counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	counts := make([]string, len(labels))
	for i, l := range labels {
		counts[i] = fmt.Sprintf("%s %d", l, out.Counts[l])
	}
	return t.String() + "\n" + strings.Join(counts, "  ")
}
