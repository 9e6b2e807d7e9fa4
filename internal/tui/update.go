package tui

import (
	"fmt"
	"strings"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/maptile"

	"geoglobe/internal/config"
	"geoglobe/internal/geom"
)

const (
	maxTileZoom = 22
	// pointer pixels per terminal cell, for drag rotation
	cellPxX = 8
	cellPxY = 16
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		lay := m.layout()
		m.mapW, m.mapH = lay.mapW, lay.mapH
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, lay.contentH-2)
		}
	case tickMsg:
		return m.frame(time.Time(msg))
	case fetchedMsg:
		if err := m.loader.Finish(msg.ev); err != nil {
			m.log.WithError(err).Error("stale fetch result")
			return m, nil
		}
		c := config.FormatTile(msg.ev.Tile)
		if msg.ev.Err != nil {
			m.status = "dropped " + c + ": " + msg.ev.Err.Error()
		} else {
			m.status = fmt.Sprintf("fetched %s  %s", c, msg.ev.Built.Stats())
			m.scene.Sync(m.loader.Tiles())
			if m.showAttrs {
				m.refreshTileTable()
			}
		}
		return m, m.startFetch()
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				w := strings.TrimSpace(m.ta.Value())
				if w == "" {
					m.status = "paste: empty"
					return m, nil
				}
				d, err := geom.ParseWKT(w)
				if err != nil {
					m.status = "wkt error: " + err.Error()
					return m, nil
				}
				m.scene.AddOverlay("pasted", d)
				m.showOverlays = true
				m.status = "added WKT overlay  " + d.String()
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.showTiles = !m.showTiles
			m.status = fmt.Sprintf("tiles: %v", m.showTiles)
		case "2":
			m.showOverlays = !m.showOverlays
			m.status = fmt.Sprintf("overlays: %v", m.showOverlays)
		case "3":
			m.showMarkers = !m.showMarkers
			m.status = fmt.Sprintf("markers: %v", m.showMarkers)
		case "+", "=":
			m.scene.SetZoom(m.scene.Zoom() * 1.1)
			m.status = fmt.Sprintf("zoom: %.2fx", m.scene.Zoom())
		case "-", "_":
			m.scene.SetZoom(m.scene.Zoom() / 1.1)
			m.status = fmt.Sprintf("zoom: %.2fx", m.scene.Zoom())
		case "]":
			if m.tileZoom < maxTileZoom {
				m.tileZoom++
			}
			n := m.enqueueVisible()
			m.status = fmt.Sprintf("tile zoom %d: %d tiles queued", m.tileZoom, n)
			return m, m.startFetch()
		case "[":
			if m.tileZoom > 0 {
				m.tileZoom--
			}
			n := m.enqueueVisible()
			m.status = fmt.Sprintf("tile zoom %d: %d tiles queued", m.tileZoom, n)
			return m, m.startFetch()
		case "r":
			n := m.enqueueVisible()
			m.status = fmt.Sprintf("%d tiles queued", n)
			return m, m.startFetch()
		case "m":
			p := m.scene.AddMarker()
			m.showMarkers = true
			m.status = fmt.Sprintf("marker at lon=%.5f lat=%.5f", p.Lon(), p.Lat())
		case "s":
			m.scene.SetSpin(!m.scene.Spinning())
			m.status = fmt.Sprintf("spin: %v", m.scene.Spinning())
		case "c":
			m.scene.ClearOverlays()
			m.status = "overlays cleared"
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
			}
		case "p":
			m.pasteMode = !m.pasteMode
			if m.pasteMode {
				m.ta.SetValue("")
				m.status = "paste mode"
				m.ta.Focus()
			} else {
				m.status = "view mode"
				m.ta.Blur()
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshTileTable()
			}
		case "i":
			if m.inspectPopup != "" {
				m.inspectPopup = ""
				m.status = "view mode"
			} else {
				m.inspectPopup = m.inspect()
				m.status = "inspect popup"
			}
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.loadPath(it.path)
				}
			}
		case "up":
			m.scene.Rotate(-0.1/m.scene.Zoom(), 0)
		case "down":
			m.scene.Rotate(0.1/m.scene.Zoom(), 0)
		case "left":
			m.scene.Rotate(0, 0.1/m.scene.Zoom())
		case "right":
			m.scene.Rotate(0, -0.1/m.scene.Zoom())
		}
	case tea.MouseMsg:
		m.mouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// frame advances the animation, picks up newly cached tiles and keeps one
// fetch in flight.
func (m Model) frame(now time.Time) (tea.Model, tea.Cmd) {
	if !m.lastTick.IsZero() {
		m.scene.Tick(now.Sub(m.lastTick))
	}
	m.lastTick = now
	if !m.requested && m.mapW > 0 {
		m.requested = true
		n := m.enqueueVisible()
		m.status = fmt.Sprintf("tile zoom %d: %d tiles queued", m.tileZoom, n)
	}
	return m, tea.Batch(tick(), m.startFetch())
}

// startFetch hands the next pending coordinate to a command. It is a no-op
// while another fetch is in flight.
func (m Model) startFetch() tea.Cmd {
	f, ok := m.loader.Start()
	if !ok {
		return nil
	}
	return fetch(m.ctx, f)
}

// enqueueVisible requests the visible tiles at the current tile zoom that
// are neither cached nor pending. The loader pops the most recent request
// first, so the tiles nearest the centre go in last.
func (m Model) enqueueVisible() int {
	pending := map[maptile.Tile]bool{}
	for _, t := range m.loader.Pending() {
		pending[t] = true
	}
	if t, ok := m.loader.InFlight(); ok {
		pending[t] = true
	}
	aspect := 1.0
	if m.mapW > 0 && m.mapH > 0 {
		// braille dots are roughly square: 2 per cell across, 4 down
		aspect = float64(m.mapW*2) / float64(m.mapH*4)
	}
	visible := m.scene.VisibleTiles(m.tileZoom, aspect)
	n := 0
	for i := len(visible) - 1; i >= 0; i-- {
		t := visible[i]
		if _, ok := m.loader.Lookup(t); ok || pending[t] {
			continue
		}
		if err := m.loader.Enqueue(t); err != nil {
			m.log.WithError(err).Warn("enqueue")
			continue
		}
		n++
	}
	return n
}

func (m *Model) mouse(msg tea.MouseMsg) {
	lay := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}
	cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
	inside := cx >= 0 && cx < lay.mapW && cy >= 0 && cy < lay.mapH

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scene.Wheel(-1.5)
		m.status = fmt.Sprintf("zoom: %.2fx", m.scene.Zoom())
	case msg.Button == tea.MouseButtonWheelDown:
		m.scene.Wheel(1.5)
		m.status = fmt.Sprintf("zoom: %.2fx", m.scene.Zoom())
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		m.dragging = true
		m.dragX, m.dragY = msg.X, msg.Y
		m.scene.Hold(true)
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
		m.scene.Hold(false)
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.scene.Drag(float64((msg.X-m.dragX)*cellPxX), float64((msg.Y-m.dragY)*cellPxY))
		m.dragX, m.dragY = msg.X, msg.Y
	}

	if !inside {
		m.hovering = false
		m.hoverHasGeo = false
		return
	}
	m.hovering = true
	m.hoverCellX, m.hoverCellY = cx, cy
	x, y := cellToScreen(cx, cy, lay.mapW, lay.mapH)
	if p, ok := m.scene.Unproject(x, y); ok {
		m.hoverHasGeo = true
		m.hoverLon, m.hoverLat = p.Lon(), p.Lat()
	} else {
		m.hoverHasGeo = false
	}
}
