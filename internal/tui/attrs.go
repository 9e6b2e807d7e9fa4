package tui

import (
	"fmt"

	table "github.com/charmbracelet/bubbles/table"

	"geoglobe/internal/config"
)

var tileColumns = []string{"tile", "layer", "features", "rings", "segments", "skipped", "vertices"}

// refreshTileTable rebuilds the table from the loaded tiles.
func (m *Model) refreshTileTable() {
	var trows []table.Row
	i := 0
	for c, built := range m.loader.Tiles() {
		i++
		st := built.Stats()
		verts := "-"
		if msh, ok := m.scene.Mesh(c); ok {
			verts = fmt.Sprint(len(msh.Verts))
		}
		trows = append(trows, table.Row{
			fmt.Sprint(i),
			config.FormatTile(c),
			st.Layer,
			fmt.Sprint(st.Features),
			fmt.Sprint(st.Rings),
			fmt.Sprint(st.Segments),
			fmt.Sprint(st.Skipped),
			verts,
		})
	}
	if len(trows) == 0 {
		m.showAttrs = false
		m.status = "no tiles loaded yet"
		return
	}
	tcols := make([]table.Column, 0, len(tileColumns)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	for _, c := range tileColumns {
		w := max(len(c)+2, 9)
		tcols = append(tcols, table.Column{Title: c, Width: w})
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}
