package source

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	log "github.com/sirupsen/logrus"

	"geoglobe/internal/logging"
	"geoglobe/internal/mvt"
)

// HTTP fetches tiles from a URL template with {z}, {x}, {y} and {token}
// placeholders. The body may be gzip-compressed or plain protobuf.
type HTTP struct {
	Template string
	Token    string
	// Timeout bounds one request; zero means no timeout.
	Timeout time.Duration
	Client  *http.Client

	log *log.Entry
}

// NewHTTP returns an HTTP source using http.DefaultClient.
func NewHTTP(template, token string, timeout time.Duration, logger *log.Entry) *HTTP {
	return &HTTP{
		Template: template,
		Token:    token,
		Timeout:  timeout,
		Client:   http.DefaultClient,
		log:      logging.Component(logger, "http"),
	}
}

// URL expands the template for t.
func (h *HTTP) URL(t maptile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.FormatUint(uint64(t.Z), 10),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
		"{token}", h.Token,
	).Replace(h.Template)
}

func (h *HTTP) Fetch(ctx context.Context, t maptile.Tile) (*mvt.Tile, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(t), nil)
	if err != nil {
		return nil, fetchError(t, err)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fetchError(t, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fetchError(t, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fetchError(t, errors.Wrapf(ErrStatus, "%s", resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchError(t, errors.Wrap(err, "read body"))
	}
	rec, err := mvt.UnmarshalGzipped(body)
	if err != nil {
		return nil, fetchError(t, err)
	}
	h.log.WithFields(log.Fields{
		"tile":    t,
		"bytes":   len(body),
		"elapsed": time.Since(start),
	}).Debug("tile downloaded")
	return rec, nil
}
