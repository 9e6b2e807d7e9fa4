// Package loader schedules tile fetches one at a time and caches the built
// tiles by coordinate.
//
// A Loader is owned by a single goroutine. The fetch itself runs elsewhere:
// Start hands out a Fetch holding only what the fetch needs, and its result
// comes back through Finish. Nothing is shared across that boundary, so the
// owner never observes a half-inserted tile.
package loader

import (
	"context"
	"iter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/logging"
	"geoglobe/internal/mvt"
	"geoglobe/internal/source"
	"geoglobe/internal/tile"
)

var (
	// ErrInvalidCoordinate is returned by Enqueue when x or y is outside
	// [0, 2^z).
	ErrInvalidCoordinate = errors.New("loader: invalid tile coordinate")
	// ErrNotInFlight is returned by Finish for a result the loader did not
	// start or has already finished.
	ErrNotInFlight = errors.New("loader: result for a fetch not in flight")
)

// Event reports the outcome of one fetch. Built is nil when Err is set.
type Event struct {
	Tile    maptile.Tile
	Built   *tile.Tile
	Err     error
	Elapsed time.Duration
}

// Loader owns the pending queue and the tile cache. The cache is never
// evicted.
type Loader struct {
	src     source.Source
	builder *tile.Builder
	log     *log.Entry

	queue    []maptile.Tile
	inflight *maptile.Tile
	cache    map[maptile.Tile]*tile.Tile
	order    []maptile.Tile
}

// New returns an idle loader with an empty cache.
func New(src source.Source, builder *tile.Builder, logger *log.Entry) *Loader {
	return &Loader{
		src:     src,
		builder: builder,
		log:     logging.Component(logger, "loader"),
		cache:   map[maptile.Tile]*tile.Tile{},
	}
}

// Enqueue appends t to the pending queue. Duplicates are not removed; a
// coordinate enqueued twice is fetched twice.
func (l *Loader) Enqueue(t maptile.Tile) error {
	if t.Z > 31 || t.X >= 1<<uint32(t.Z) || t.Y >= 1<<uint32(t.Z) {
		return errors.Wrapf(ErrInvalidCoordinate, "%d/%d/%d", t.Z, t.X, t.Y)
	}
	l.queue = append(l.queue, t)
	l.log.WithField("tile", t).WithField("pending", len(l.queue)).Debug("enqueued")
	return nil
}

// Fetch is a started fetch. Run may be called from any goroutine.
type Fetch struct {
	Tile maptile.Tile

	src     source.Source
	builder *tile.Builder
}

// Run fetches and builds the tile. It blocks until the source returns.
func (f *Fetch) Run(ctx context.Context) Event {
	start := time.Now()
	rec, err := f.src.Fetch(ctx, f.Tile)
	if err != nil {
		var fe *source.FetchError
		if !errors.As(err, &fe) {
			err = &source.FetchError{Tile: f.Tile, Err: err}
		}
		return Event{Tile: f.Tile, Err: err, Elapsed: time.Since(start)}
	}
	if rec == nil {
		rec = &mvt.Tile{}
	}
	built := f.builder.Build(rec, f.Tile)
	return Event{Tile: f.Tile, Built: built, Elapsed: time.Since(start)}
}

// Start pops the most recently enqueued coordinate and marks it in flight.
// It returns false without side effects when a fetch is already in flight
// or nothing is pending; callers simply try again next frame.
func (l *Loader) Start() (*Fetch, bool) {
	if l.inflight != nil || len(l.queue) == 0 {
		return nil, false
	}
	n := len(l.queue) - 1
	t := l.queue[n]
	l.queue = l.queue[:n]
	l.inflight = &t
	l.log.WithField("tile", t).Debug("fetch started")
	return &Fetch{Tile: t, src: l.src, builder: l.builder}, true
}

// Finish records the result of the in-flight fetch and returns the loader
// to idle. A failed coordinate is dropped, not retried.
func (l *Loader) Finish(ev Event) error {
	if l.inflight == nil || *l.inflight != ev.Tile {
		return errors.Wrapf(ErrNotInFlight, "%d/%d/%d", ev.Tile.Z, ev.Tile.X, ev.Tile.Y)
	}
	l.inflight = nil
	fields := log.Fields{"tile": ev.Tile, "elapsed": ev.Elapsed}
	if ev.Err != nil || ev.Built == nil {
		l.log.WithFields(fields).WithError(ev.Err).Warn("tile dropped")
		return nil
	}
	if _, ok := l.cache[ev.Tile]; !ok {
		l.order = append(l.order, ev.Tile)
	}
	l.cache[ev.Tile] = ev.Built
	st := ev.Built.Stats()
	l.log.WithFields(fields).WithFields(log.Fields{
		"polylines": len(ev.Built.Polylines()),
		"segments":  st.Segments,
		"skipped":   st.Skipped,
	}).Info("tile fetched")
	return nil
}

// Step runs one full fetch synchronously: start, run, finish. It returns
// false when the loader had nothing to do.
func (l *Loader) Step(ctx context.Context) (Event, bool) {
	f, ok := l.Start()
	if !ok {
		return Event{}, false
	}
	ev := f.Run(ctx)
	if err := l.Finish(ev); err != nil {
		ev.Err = err
	}
	return ev, true
}

// Lookup returns the cached tile for t.
func (l *Loader) Lookup(t maptile.Tile) (*tile.Tile, bool) {
	built, ok := l.cache[t]
	return built, ok
}

// Tiles yields the cached tiles in insertion order.
func (l *Loader) Tiles() iter.Seq2[maptile.Tile, *tile.Tile] {
	return func(yield func(maptile.Tile, *tile.Tile) bool) {
		for _, t := range l.order {
			if !yield(t, l.cache[t]) {
				return
			}
		}
	}
}

// Len is the number of cached tiles.
func (l *Loader) Len() int { return len(l.cache) }

// Pending returns a copy of the queue, oldest first.
func (l *Loader) Pending() []maptile.Tile {
	return append([]maptile.Tile(nil), l.queue...)
}

// InFlight returns the coordinate being fetched, if any.
func (l *Loader) InFlight() (maptile.Tile, bool) {
	if l.inflight == nil {
		return maptile.Tile{}, false
	}
	return *l.inflight, true
}

// Idle reports whether no fetch is in flight.
func (l *Loader) Idle() bool { return l.inflight == nil }
