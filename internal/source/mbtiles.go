package source

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3" // import sqlite3 driver
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/logging"
	"geoglobe/internal/mvt"
)

// MBTiles reads tiles from an MBTiles sqlite file. Rows are stored in TMS
// order, so the y index is flipped.
type MBTiles struct {
	db  *sql.DB
	log *log.Entry
}

// OpenMBTiles opens path read-only.
func OpenMBTiles(path string, logger *log.Entry) (*MBTiles, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &MBTiles{db: db, log: logging.Component(logger, "mbtiles")}, nil
}

// Metadata returns the name/value pairs of the metadata table.
func (m *MBTiles) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, "select name, value from metadata")
	if err != nil {
		return nil, errors.Wrap(err, "metadata")
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "metadata")
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (m *MBTiles) Fetch(ctx context.Context, t maptile.Tile) (*mvt.Tile, error) {
	var data []byte
	err := m.db.QueryRowContext(ctx,
		"select tile_data from tiles where zoom_level = ? and tile_column = ? and tile_row = ?",
		t.Z, t.X, flipY(t),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fetchError(t, ErrNotFound)
	}
	if err != nil {
		return nil, fetchError(t, errors.Wrap(err, "query"))
	}
	rec, err := mvt.UnmarshalGzipped(data)
	if err != nil {
		return nil, fetchError(t, err)
	}
	m.log.WithField("tile", t).WithField("bytes", len(data)).Debug("tile read")
	return rec, nil
}

func (m *MBTiles) Close() error { return m.db.Close() }

func flipY(t maptile.Tile) uint32 {
	return (1 << uint32(t.Z)) - t.Y - 1
}
