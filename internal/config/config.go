// Package config holds the runtime settings threaded through the tile
// pipeline.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/geom"
	"geoglobe/internal/projection"
)

// DefaultURLTemplate is Mapbox Streets v8.
const DefaultURLTemplate = "https://api.mapbox.com/v4/mapbox.mapbox-streets-v8/{z}/{x}/{y}.vector.pbf?access_token={token}"

// TokenEnv is read when no token flag is given.
const TokenEnv = "MAPBOX_TOKEN"

const maxZoom = 22

type Config struct {
	Token         string
	URLTemplate   string
	MBTiles       string
	TileSize      float64
	Radius        float64
	MinRingPoints int
	Zoom          int
	Thickness     float64
	FetchTimeout  time.Duration
	LogFile       string
	LogLevel      string
	Headless      bool
	Tiles         TileList

	// Args holds the positional arguments left after flag parsing.
	Args []string
}

func Default() Config {
	return Config{
		URLTemplate:   DefaultURLTemplate,
		TileSize:      projection.DefaultTileSize,
		Radius:        projection.DefaultRadius,
		MinRingPoints: geom.DefaultMinPoints,
		Zoom:          2,
		Thickness:     0.002,
		LogLevel:      "info",
	}
}

// RegisterFlags binds c's fields to fs using the current values as
// defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Token, "token", c.Token, "tile service access token (default $"+TokenEnv+")")
	fs.StringVar(&c.URLTemplate, "url", c.URLTemplate, "tile URL template with {z} {x} {y} {token}")
	fs.StringVar(&c.MBTiles, "mbtiles", c.MBTiles, "read tiles from an MBTiles file instead of HTTP")
	fs.Float64Var(&c.TileSize, "tile-size", c.TileSize, "projection tile size constant")
	fs.Float64Var(&c.Radius, "radius", c.Radius, "globe radius")
	fs.IntVar(&c.MinRingPoints, "min-ring", c.MinRingPoints, "drop rings with this many points or fewer")
	fs.IntVar(&c.Zoom, "zoom", c.Zoom, "initial tile zoom")
	fs.Float64Var(&c.Thickness, "thickness", c.Thickness, "line half-width in globe units")
	fs.DurationVar(&c.FetchTimeout, "timeout", c.FetchTimeout, "per-tile fetch timeout (0 = none)")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to this file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&c.Headless, "headless", c.Headless, "fetch -tiles and print statistics instead of starting the viewer")
	fs.Var(&c.Tiles, "tiles", "comma separated z/x/y list for -headless")
}

// Parse registers the flags on a new FlagSet, parses args and applies the
// token environment fallback.
func Parse(name string, args []string) (Config, error) {
	c := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	c.Args = fs.Args()
	if c.Token == "" {
		c.Token = os.Getenv(TokenEnv)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case !(c.TileSize > 0):
		return errors.Newf("tile size must be positive, got %v", c.TileSize)
	case !(c.Radius > 0):
		return errors.Newf("radius must be positive, got %v", c.Radius)
	case c.MinRingPoints < 0:
		return errors.Newf("min ring points must not be negative, got %d", c.MinRingPoints)
	case c.Zoom < 0 || c.Zoom > maxZoom:
		return errors.Newf("zoom must be in [0, %d], got %d", maxZoom, c.Zoom)
	case c.Thickness < 0:
		return errors.Newf("thickness must not be negative, got %v", c.Thickness)
	case c.FetchTimeout < 0:
		return errors.Newf("timeout must not be negative, got %v", c.FetchTimeout)
	}
	if c.MBTiles == "" {
		if c.URLTemplate == "" {
			return errors.New("no tile source: set -url or -mbtiles")
		}
		if strings.Contains(c.URLTemplate, "{token}") && c.Token == "" {
			return errors.Newf("url template needs a token: set -token or $%s", TokenEnv)
		}
	}
	if c.Headless && len(c.Tiles) == 0 {
		return errors.New("-headless needs -tiles")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Projection returns the projection configured by c.
func (c Config) Projection() projection.Projection {
	return projection.Projection{TileSize: c.TileSize, Radius: c.Radius}
}

// TileList is a flag.Value of z/x/y coordinates.
type TileList []maptile.Tile

func (l *TileList) String() string {
	parts := make([]string, len(*l))
	for i, t := range *l {
		parts[i] = FormatTile(t)
	}
	return strings.Join(parts, ",")
}

func (l *TileList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := ParseTile(part)
		if err != nil {
			return err
		}
		*l = append(*l, t)
	}
	return nil
}

// ParseTile parses "z/x/y".
func ParseTile(s string) (maptile.Tile, error) {
	f := strings.Split(s, "/")
	if len(f) != 3 {
		return maptile.Tile{}, errors.Newf("tile %q: want z/x/y", s)
	}
	var v [3]uint32
	for i, p := range f {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return maptile.Tile{}, errors.Wrapf(err, "tile %q", s)
		}
		v[i] = uint32(n)
	}
	return maptile.New(v[1], v[2], maptile.Zoom(v[0])), nil
}

func FormatTile(t maptile.Tile) string {
	return strconv.FormatUint(uint64(t.Z), 10) + "/" +
		strconv.FormatUint(uint64(t.X), 10) + "/" +
		strconv.FormatUint(uint64(t.Y), 10)
}
