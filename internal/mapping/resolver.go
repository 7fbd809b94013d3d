package mapping

import (
	"io"
	"log/slog"
	"strings"
)

// Resolver memoizes the parsed mapping against the last input it saw.
// It is owned by a single panel and is not safe for concurrent use.
type Resolver struct {
	logger *slog.Logger

	parsed  bool
	input   string
	count   int
	mapping Mapping
	version uint64
}

// NewResolver returns a resolver that logs malformed entries to logger.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{logger: logger}
}

// Resolve returns the mapping for input. The input is parsed again only
// when it differs from the last parsed input or the measurement count
// moves to or from zero; otherwise the previous mapping is returned as is.
// Blank input yields the identity mapping over measurementCount channels.
func (r *Resolver) Resolve(input string, measurementCount int) Mapping {
	if r.parsed && input == r.input && (measurementCount == 0) == (r.count == 0) {
		return r.mapping
	}

	if strings.TrimSpace(input) == "" {
		r.mapping = Identity(measurementCount)
	} else {
		r.mapping = Parse(input, r.logger)
	}

	r.parsed = true
	r.input = input
	r.count = measurementCount
	r.version++

	r.logger.Debug("channel mapping parsed",
		slog.Int("entries", len(r.mapping)),
		slog.Uint64("version", r.version))

	return r.mapping
}

// Version increments every time the mapping is parsed again. Caches keyed
// on it are invalidated whenever the mapping may have changed.
func (r *Resolver) Version() uint64 {
	return r.version
}
