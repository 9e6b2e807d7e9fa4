package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"geoglobe/internal/geom"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// overlayLoaders maps file extensions to their parsers.
var overlayLoaders = map[string]func(string) (geom.Data, error){
	".geojson": geom.LoadGeoJSON,
	".json":    geom.LoadGeoJSON,
	".csv":     geom.LoadCSV,
	".kml":     geom.LoadKML,
	".wkt":     loadWKT,
}

func loadWKT(path string) (geom.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return geom.Data{}, err
	}
	return geom.ParseWKT(string(raw))
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := overlayLoaders[ext]; ok {
			items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no overlay files in current directory"
	}
}

// loadPath adds a supported file to the globe as an overlay.
func (m *Model) loadPath(p string) {
	m.selPath = p
	ext := strings.ToLower(filepath.Ext(p))
	load, ok := overlayLoaders[ext]
	if !ok {
		m.status = "unsupported file: " + ext
		return
	}
	d, err := load(p)
	if err != nil {
		m.status = "load error: " + err.Error()
		m.log.WithError(err).WithField("path", p).Warn("overlay load failed")
		return
	}
	m.scene.AddOverlay(filepath.Base(p), d)
	m.showOverlays = true
	m.status = "loaded: " + filepath.Base(p) + "  " + d.String()
}
