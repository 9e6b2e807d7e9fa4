package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/config"
	"geoglobe/internal/loader"
	"geoglobe/internal/mesh"
	"geoglobe/internal/scene"
	"geoglobe/internal/source"
	"geoglobe/internal/tile"
	"geoglobe/internal/tui"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg, err := config.Parse(args[0], args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "geoglobe:", err)
		return 2
	}
	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "geoglobe:", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, closeSrc, err := openSource(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("open tile source")
		fmt.Fprintln(os.Stderr, "geoglobe:", err)
		return 1
	}
	defer closeSrc()

	builder := tile.NewBuilder(cfg.Projection(), cfg.MinRingPoints, logger)
	ld := loader.New(src, builder, logger)

	if cfg.Headless {
		if failed := headless(ctx, ld, cfg.Tiles, os.Stdout); failed > 0 {
			return 1
		}
		return 0
	}

	sc := scene.New(cfg.Projection(), cfg.Thickness, logger)
	zoom := maptile.Zoom(cfg.Zoom)
	var m tea.Model
	if len(cfg.Args) > 0 {
		m = tui.NewWithPath(ctx, ld, sc, zoom, logger, cfg.Args[0])
	} else {
		m = tui.New(ctx, ld, sc, zoom, logger)
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx)).Run(); err != nil {
		logger.WithError(err).Error("viewer")
		fmt.Fprintln(os.Stderr, "geoglobe:", err)
		return 1
	}
	return 0
}

// setupLogging sends logs to the configured file. Without one the viewer
// discards them and headless mode writes to stderr.
func setupLogging(cfg config.Config) (*log.Entry, func(), error) {
	l := log.New()
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	l.SetLevel(lvl)
	closer := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "log file")
		}
		l.SetOutput(f)
		l.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
		closer = func() { f.Close() }
	case cfg.Headless:
		l.SetOutput(os.Stderr)
	default:
		l.SetOutput(io.Discard)
	}
	return log.NewEntry(l), closer, nil
}

func openSource(cfg config.Config, logger *log.Entry) (source.Source, func(), error) {
	if cfg.MBTiles != "" {
		m, err := source.OpenMBTiles(cfg.MBTiles, logger)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	}
	return source.NewHTTP(cfg.URLTemplate, cfg.Token, cfg.FetchTimeout, logger), func() {}, nil
}

// headless fetches tiles in the given order and prints one line each. It
// returns the number of tiles that failed.
func headless(ctx context.Context, ld *loader.Loader, tiles []maptile.Tile, w io.Writer) int {
	failed := 0
	// the loader pops the newest request first
	for i := len(tiles) - 1; i >= 0; i-- {
		if err := ld.Enqueue(tiles[i]); err != nil {
			fmt.Fprintf(w, "%s\terror=%v\n", config.FormatTile(tiles[i]), err)
			failed++
		}
	}
	for {
		ev, ok := ld.Step(ctx)
		if !ok {
			return failed
		}
		c := config.FormatTile(ev.Tile)
		if ev.Err != nil {
			fmt.Fprintf(w, "%s\terror=%v\n", c, ev.Err)
			failed++
			continue
		}
		st := ev.Built.Stats()
		msh := mesh.Extrude(ev.Built.Polylines())
		fmt.Fprintf(w, "%s\tpolylines=%d rings=%d segments=%d vertices=%d indices=%d skipped=%d\n",
			c, len(ev.Built.Polylines()), st.Rings, st.Segments, len(msh.Verts), len(msh.Indices()), st.Skipped)
	}
}
