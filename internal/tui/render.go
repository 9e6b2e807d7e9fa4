package tui

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb/maptile"

	"geoglobe/internal/config"
	"geoglobe/internal/mesh"
	"geoglobe/internal/scene"
)

// renderGlobe rasterises the globe outline, the front-facing quad edges of
// every visible mesh and the markers into braille cells.
func (m Model) renderGlobe(w, h int) string {
	limb := newBrailleBuf(w, h)
	lines := newBrailleBuf(w, h)
	marks := newBrailleBuf(w, h)

	cx, cy := screenToMicro(0, 0, w, h)
	limb.drawCircleMicro(cx, cy, int(m.scene.Limb()*microScale(w, h)))

	draw := func(it *scene.Item) {
		m.scratch = m.scene.Project(it, m.scratch)
		vs := m.scratch
		for q := 0; q+mesh.VerticesPerSegment <= len(vs); q += mesh.VerticesPerSegment {
			// the long edges of the quad: side 1 and side 0
			for _, e := range [2][2]int{{q, q + 1}, {q + 2, q + 3}} {
				a, b := vs[e[0]], vs[e[1]]
				if !a.Front || !b.Front {
					continue
				}
				x0, y0 := screenToMicro(a.X, a.Y, w, h)
				x1, y1 := screenToMicro(b.X, b.Y, w, h)
				lines.drawLineMicro(x0, y0, x1, y1)
			}
		}
	}
	if m.showTiles {
		for _, it := range m.scene.Items() {
			draw(it)
		}
	}
	if m.showOverlays {
		for _, o := range m.scene.Overlays() {
			draw(o.Item)
		}
	}
	if m.showMarkers {
		for _, p := range m.scene.Markers() {
			v := m.scene.ProjectPoint(p)
			if !v.Front {
				continue
			}
			mx, my := screenToMicro(v.X, v.Y, w, h)
			marks.drawCrossMicro(mx, my, 2)
		}
	}

	var sb strings.Builder
	for y := 0; y < h; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			switch {
			case m.hovering && m.hoverHasGeo && x == m.hoverCellX && y == m.hoverCellY:
				sb.WriteString(markerStyle.Render("◯"))
			case marks.cell(x, y) != 0:
				sb.WriteString(markerStyle.Render(string(brailleRune(marks.cell(x, y) | lines.cell(x, y)))))
			case lines.cell(x, y) != 0:
				sb.WriteRune(brailleRune(lines.cell(x, y)))
			case limb.cell(x, y) != 0:
				sb.WriteString(limbStyle.Render(string(brailleRune(limb.cell(x, y)))))
			default:
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

// inspect describes the point under the screen centre and the tile that
// contains it at the current tile zoom.
func (m Model) inspect() string {
	c := m.scene.Center()
	pitch, yaw := m.scene.Angles()
	t := maptile.At(c, m.tileZoom)
	meta := []string{
		fmt.Sprintf("centre: lon=%.5f lat=%.5f", c.Lon(), c.Lat()),
		fmt.Sprintf("view: pitch=%.3f yaw=%.3f zoom=%.2f", pitch, yaw, m.scene.Zoom()),
		"tile: " + config.FormatTile(t),
	}
	if built, ok := m.loader.Lookup(t); ok {
		st := built.Stats()
		meta = append(meta,
			fmt.Sprintf("layer: %s (extent %d)", st.Layer, st.Extent),
			fmt.Sprintf("features=%d rings=%d", st.Features, st.Rings),
			fmt.Sprintf("points=%d segments=%d", st.Points, st.Segments),
			fmt.Sprintf("skipped=%d", st.Skipped),
		)
		for i, err := range built.Skipped() {
			if i == 3 {
				meta = append(meta, fmt.Sprintf("  ... %d more", len(built.Skipped())-i))
				break
			}
			meta = append(meta, "  "+err.Error())
		}
	} else if f, ok := m.loader.InFlight(); ok && f == t {
		meta = append(meta, "status: fetching")
	} else {
		meta = append(meta, "status: not loaded")
	}
	meta = append(meta,
		fmt.Sprintf("cache: %d tiles, %d meshes", m.loader.Len(), m.scene.Len()),
		fmt.Sprintf("pending: %d", len(m.loader.Pending())),
		fmt.Sprintf("overlays: %d markers: %d", len(m.scene.Overlays()), len(m.scene.Markers())),
	)
	return strings.Join(meta, "\n")
}
