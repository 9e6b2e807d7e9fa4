// Package source fetches and decodes vector tiles.
package source

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"

	"geoglobe/internal/mvt"
)

var (
	// ErrNotFound is reported when the source has no tile at a coordinate.
	ErrNotFound = errors.New("tile not found")
	// ErrStatus is reported for any other unexpected HTTP status.
	ErrStatus = errors.New("unexpected status")
)

// Source returns the decoded tile record for a coordinate.
type Source interface {
	Fetch(ctx context.Context, t maptile.Tile) (*mvt.Tile, error)
}

// Func adapts a function to Source.
type Func func(ctx context.Context, t maptile.Tile) (*mvt.Tile, error)

func (f Func) Fetch(ctx context.Context, t maptile.Tile) (*mvt.Tile, error) {
	return f(ctx, t)
}

// FetchError wraps any failure to obtain or decode a tile.
type FetchError struct {
	Tile maptile.Tile
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %d/%d/%d: %v", e.Tile.Z, e.Tile.X, e.Tile.Y, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchError(t maptile.Tile, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Tile: t, Err: err}
}
