// Package tui is a terminal viewer for one analysed image. The mask,
// traced contour and simplified polygon are drawn with braille dots beside
// the classification.
package tui

import (
	"fmt"
	"path/filepath"

	table "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
	"github.com/ironsheep/shape-finder-mcp/internal/pipeline"
)

// thresholdStep is how far +/- move the gray level.
const thresholdStep = 10

type Model struct {
	width  int
	height int

	helpVisible bool
	status      string

	// layer visibility
	showCurve   bool
	showPolygon bool
	showMask    bool

	pipeline *pipeline.Pipeline
	opts     imaging.MaskOptions
	path     string
	run      *pipeline.Run
	err      error

	// contours table
	showTable bool
	contours  []detection.Inspection
	tbl       table.Model
}

// New returns a viewer with no image loaded.
func New(p *pipeline.Pipeline) Model {
	m := Model{
		helpVisible: true,
		status:      "shape-finder ready",
		showCurve:   true,
		showPolygon: true,
		pipeline:    p,
		opts:        p.MaskOptions(),
	}
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

// NewWithPath analyses path at launch.
func NewWithPath(p *pipeline.Pipeline, path string) Model {
	m := New(p)
	m.load(path)
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// load analyses path with the current mask options.
func (m *Model) load(path string) {
	m.path = path
	m.run, m.err = m.pipeline.AnalyzeFile(path, m.opts)
	m.contours = nil
	if m.err != nil {
		m.status = "error: " + m.err.Error()
		m.refreshTable()
		return
	}
	m.contours, m.err = m.pipeline.Detector().InspectAll(m.run.Prepared.Mask)
	if m.err != nil {
		m.status = "error: " + m.err.Error()
	} else {
		m.status = fmt.Sprintf("%s: %s", filepath.Base(path), m.run.Analysis.Message)
	}
	m.refreshTable()
}

// reload drops the cached image and analyses it again.
func (m *Model) reload() {
	if m.path == "" {
		m.status = "no image loaded"
		return
	}
	m.pipeline.Cache().Evict(m.path)
	m.load(m.path)
}

// refreshTable rebuilds the contours table from the current analysis.
func (m *Model) refreshTable() {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Label", Width: 10},
		{Title: "Vertices", Width: 8},
		{Title: "Area", Width: 9},
		{Title: "Circularity", Width: 11},
		{Title: "Box", Width: 16},
	}
	rows := make([]table.Row, 0, len(m.contours))
	for i, c := range m.contours {
		b := c.Summary.BoundingBox
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			c.Label.String(),
			fmt.Sprintf("%d", c.VertexCount),
			fmt.Sprintf("%.0f", c.Summary.Area),
			fmt.Sprintf("%.3f", c.Circularity),
			fmt.Sprintf("%.0fx%.0f", b.Width, b.Height),
		})
	}
	// clear rows before swapping columns so the widths never disagree
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cols)
	m.tbl.SetRows(rows)
}
