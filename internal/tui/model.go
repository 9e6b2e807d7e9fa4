package tui

import (
	"context"
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/loader"
	"geoglobe/internal/logging"
	"geoglobe/internal/scene"
)

// frame is the animation tick interval.
const frame = time.Second / 20

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	ctx    context.Context
	loader *loader.Loader
	scene  *scene.Scene
	log    *log.Entry

	tileZoom  maptile.Zoom
	lastTick  time.Time
	requested bool

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// last rendered map size (for hover and tile picking)
	mapW int
	mapH int

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// layer visibility
	showTiles    bool
	showOverlays bool
	showMarkers  bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64

	// drag state
	dragging bool
	dragX    int
	dragY    int

	// loaded tile table
	showAttrs bool
	tbl       table.Model

	scratch []scene.Vertex
}

// New returns a viewer driving ld and sc. Tiles at zoom are requested on
// the first frame.
func New(ctx context.Context, ld *loader.Loader, sc *scene.Scene, zoom maptile.Zoom, logger *log.Entry) Model {
	m := Model{
		showSidebar:  false,
		helpVisible:  true,
		status:       "geoglobe ready",
		ctx:          ctx,
		loader:       ld,
		scene:        sc,
		log:          logging.Component(logger, "tui"),
		tileZoom:     zoom,
		showTiles:    true,
		showOverlays: true,
		showMarkers:  true,
	}
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Overlays"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (POINT, LINESTRING, POLYGON, MULTI*). Enter adds it as an overlay; Esc cancels."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPath preloads an overlay file at launch.
func NewWithPath(ctx context.Context, ld *loader.Loader, sc *scene.Scene, zoom maptile.Zoom, logger *log.Entry, path string) Model {
	m := New(ctx, ld, sc, zoom, logger)
	m.loadPath(path)
	return m
}

type tickMsg time.Time

type fetchedMsg struct{ ev loader.Event }

func tick() tea.Cmd {
	return tea.Tick(frame, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// fetch runs f off the update goroutine and reports back as a message.
func fetch(ctx context.Context, f *loader.Fetch) tea.Cmd {
	return func() tea.Msg { return fetchedMsg{f.Run(ctx)} }
}

func (m Model) Init() tea.Cmd { return tick() }
