package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ironsheep/shape-finder-mcp/internal/report"
)

const panelWidth = 36

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	headerHeight := 1
	footerHeight := 1
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)

	title := " shape-finder "
	if m.path != "" {
		title += "─ " + filepath.Base(m.path) + " "
	}
	header := titleStyle.Render(title)
	if m.run != nil {
		header += " " + labelStyle.Render(m.run.Analysis.Label().String())
	}
	header = lipgloss.NewStyle().Width(contentWidth).Render(header)

	var body string
	if m.showTable {
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		maxW := min(contentWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(contentHeight-2, 20))
		tableBox := boxStyle.Width(maxW).Render(m.tbl.View())
		body = lipgloss.Place(contentWidth, contentHeight, lipgloss.Center, lipgloss.Center, tableBox)
	} else {
		canvasW := max(8, contentWidth-panelWidth-1)
		canvas := lipgloss.NewStyle().Width(canvasW).Height(contentHeight).
			Render(canvasStyle.Render(m.renderCanvas(canvasW, contentHeight)))
		panel := boxStyle.Width(panelWidth - 2).Render(m.renderPanel())
		body = lipgloss.JoinHorizontal(lipgloss.Top, canvas, " ", panel)
	}

	status := dimStyle.Render(" " + m.status + " ")
	footer := lipgloss.NewStyle().Width(contentWidth).MaxHeight(footerHeight).
		Render(lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderHelp()))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderCanvas draws the visible layers of the current run into a w×h
// braille grid.
func (m Model) renderCanvas(w, h int) string {
	br := newBrailleBuf(w, h)
	if m.run == nil {
		return strings.Join(br.toLines(), "\n")
	}

	mask := m.run.Prepared.Mask
	proj := fitProjection(mask.Width(), mask.Height(), w, h)
	if m.showMask {
		br.fillMask(proj, mask)
	}

	a := m.run.Analysis
	if m.showCurve && len(a.Curve) > 0 {
		br.drawPath(proj, a.Curve, true)
	}
	if m.showPolygon && len(a.Polygon) > 0 {
		br.drawPath(proj, a.Polygon, true)
	}
	if a.Summary != nil {
		// centroid cross
		cx, cy := proj.micro(a.Summary.Centroid)
		br.drawLineMicro(cx-2, cy, cx+2, cy)
		br.drawLineMicro(cx, cy-2, cx, cy+2)
	}
	return strings.Join(br.toLines(), "\n")
}

// renderPanel summarises the classification and the mask settings.
func (m Model) renderPanel() string {
	if m.path == "" {
		return dimStyle.Render("no image loaded")
	}
	if m.err != nil {
		return warnStyle.Render(m.err.Error())
	}
	lines := []string{
		report.Text(report.Entry{Path: filepath.Base(m.path), Analysis: m.run.Analysis}),
		"",
		dimStyle.Render("mode " + string(m.opts.Mode)),
	}
	if len(m.contours) > 1 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("contours %d (t to list)", len(m.contours))))
	}
	return lipgloss.NewStyle().Width(panelWidth - 4).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"c contour",
		"p polygon",
		"m mask",
		"t table",
		"e edges",
		"i invert",
		"+/- threshold",
		"r reload",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
