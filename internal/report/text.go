package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ironsheep/shape-finder-mcp/internal/detection"
)

var (
	baseDimFg = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	accentFg  = lipgloss.Color("#7C3AED")
	errorFg   = lipgloss.Color("#EF4444")
	warnFg    = lipgloss.Color("#F59E0B")

	pathStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(baseDimFg)
	errorStyle = lipgloss.NewStyle().Foreground(errorFg)
	warnStyle  = lipgloss.NewStyle().Foreground(warnFg)
	blockStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// Text renders e as a short styled block: the path, the label or error, and
// the geometry behind the decision.
func Text(e Entry) string {
	head := pathStyle.Render(e.Path)
	if e.Err != nil {
		return head + "\n" + blockStyle.Render(errorStyle.Render("error: "+e.Err.Error()))
	}

	a := e.Analysis
	if a.Outcome != detection.Classified {
		body := warnStyle.Render(detection.Unknown.String()) + " " + dimStyle.Render(a.Message)
		if a.Outcome == detection.BelowThreshold {
			body += "\n" + dimStyle.Render(fmt.Sprintf("largest area %.0f px²", a.LargestArea))
		}
		return head + "\n" + blockStyle.Render(body)
	}

	lines := []string{
		labelStyle.Render(a.Label().String()) + "  " + a.Result.Description,
		dimStyle.Render(Metrics(a)),
	}
	return head + "\n" + blockStyle.Render(strings.Join(lines, "\n"))
}

// Metrics summarises the measurements of a classified analysis on one line.
func Metrics(a *detection.Analysis) string {
	if a.Summary == nil {
		return ""
	}
	s := a.Summary
	return fmt.Sprintf("vertices %d  area %.0f  perimeter %.1f  circularity %.3f  aspect %.3f  bbox %.0fx%.0f at (%.0f,%.0f)",
		a.VertexCount, s.Area, s.Perimeter, a.Circularity, a.AspectRatio,
		s.BoundingBox.Width, s.BoundingBox.Height, s.BoundingBox.X, s.BoundingBox.Y)
}
