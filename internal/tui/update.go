package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ironsheep/shape-finder-mcp/internal/imaging"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			m.showCurve = !m.showCurve
			m.status = fmt.Sprintf("contour: %v", m.showCurve)
		case "p":
			m.showPolygon = !m.showPolygon
			m.status = fmt.Sprintf("polygon: %v", m.showPolygon)
		case "m":
			m.showMask = !m.showMask
			m.status = fmt.Sprintf("mask: %v", m.showMask)
		case "t":
			m.showTable = !m.showTable
			if m.showTable && len(m.contours) == 0 {
				m.showTable = false
				m.status = "no contours"
			}
		case "e":
			if m.opts.Mode == imaging.ModeCanny {
				m.opts.Mode = imaging.ModeThreshold
			} else {
				m.opts.Mode = imaging.ModeCanny
			}
			m.reanalyze()
		case "i":
			m.opts.LightForeground = !m.opts.LightForeground
			m.reanalyze()
		case "+", "=":
			if int(m.opts.Threshold)+thresholdStep <= 255 {
				m.opts.Threshold += thresholdStep
				m.reanalyze()
			}
		case "-", "_":
			if int(m.opts.Threshold)-thresholdStep >= 1 {
				m.opts.Threshold -= thresholdStep
				m.reanalyze()
			}
		case "r":
			m.reload()
		case "h", "?":
			m.helpVisible = !m.helpVisible
		default:
			if m.showTable {
				var cmd tea.Cmd
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m *Model) reanalyze() {
	if m.path == "" {
		m.status = "no image loaded"
		return
	}
	m.load(m.path)
	if m.err == nil {
		m.status = fmt.Sprintf("%s  mode %s  threshold %d  light %v",
			m.run.Analysis.Message, m.opts.Mode, m.opts.Threshold, m.opts.LightForeground)
	}
}
