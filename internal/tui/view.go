package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
)

type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

// layout computes the screen regions; View and mouse handling share it.
func (m Model) layout() layout {
	var lay layout
	lay.contentH = max(4, m.height-headerHeight-footerHeight)
	lay.contentW = max(10, m.width)
	side := 0
	if m.showSidebar {
		side = sidebarWidth + 1
	}
	lay.mapX = side
	lay.mapY = headerHeight
	lay.mapW = max(10, lay.contentW-side)
	lay.mapH = lay.contentH
	return lay
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lay := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}

	// Header
	header := titleStyle.Render(" geoglobe ─ vector tiles on a terminal globe ")
	header = lipgloss.NewStyle().Width(lay.contentW).Padding(0).Render(header)

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	if m.showAttrs {
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, lay.contentW-6)
		}
		maxW := min(lay.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lay.mapH-2, 20))
		box := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lay.mapW, lay.mapH, lipgloss.Center, lipgloss.Center, box)
	} else {
		var canvas string
		if m.pasteMode {
			m.ta.SetWidth(lay.mapW)
			m.ta.SetHeight(min(lay.mapH, 12))
			canvas = m.ta.View()
		} else {
			canvas = m.renderGlobe(lay.mapW, lay.mapH)
		}
		mapView = lipgloss.NewStyle().Width(lay.mapW).Height(lay.mapH).Render(canvas)
	}

	popup := ""
	if m.inspectPopup != "" && !m.showAttrs {
		maxPopupW := max(20, min(52, lay.contentW/2))
		box := boxStyle.MaxWidth(maxPopupW).Render(m.inspectPopup)
		popup = lipgloss.Place(lay.contentW, lay.contentH, lipgloss.Left, lipgloss.Center, box)
	}

	body := mapView
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	}

	// Footer / help
	help := m.renderHelp()
	status := dimStyle.Render(" " + m.status + " ")
	coords := ""
	if m.hoverHasGeo {
		coords = dimStyle.Render(fmt.Sprintf("  lon=%.5f lat=%.5f  ", m.hoverLon, m.hoverLat))
	}
	queue := dimStyle.Render(fmt.Sprintf(" z%d  tiles=%d pending=%d ", m.tileZoom, m.loader.Len(), len(m.loader.Pending())))
	left := lipgloss.JoinVertical(lipgloss.Left, lipgloss.JoinHorizontal(lipgloss.Bottom, status, queue), help)
	spacerW := max(0, lay.contentW-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(lay.contentW).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(lay.contentW).Height(m.height).Render(ui)
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"←↑↓→ rotate",
		"+/- zoom",
		"[ ] tiles",
		"m marker",
		"s spin",
		"Tab files",
		"p paste",
		"a tiles",
		"i inspect",
		"1-3 layers",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
