// Package codec detects, decodes and encodes shareable marker strings in the
// M0R and Elms dialects.
//
// A Codec holds no mutable state beyond its logger and clock; every method
// works on its arguments only and never retains them, so one Codec may be
// shared by any number of goroutines.
package codec

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/markershare/markershare/pkg/core"
)

// Codec converts between marker strings and core.MarkerSet.
type Codec struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for the M0R timestamp field.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// New creates a Codec. A nil logger discards diagnostics.
func New(logger *slog.Logger, opts ...Option) *Codec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Codec{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode detects the dialect of input and decodes it.
func (c *Codec) Decode(input string) (*core.MarkerSet, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: %w", ErrFormat, ErrEmptyInput)
	}
	switch d := Detect(input); d {
	case core.DialectElms:
		return c.DecodeElms(input)
	case core.DialectMor:
		return c.DecodeMor(input)
	default:
		return nil, ErrUnknownDialect
	}
}

// Encode serializes set into the requested dialect.
func (c *Codec) Encode(set *core.MarkerSet, dialect core.Dialect) (string, error) {
	switch dialect {
	case core.DialectMor:
		return c.EncodeMor(set)
	case core.DialectElms:
		return c.EncodeElms(set)
	default:
		return "", fmt.Errorf("encode: %w: %s", ErrUnknownDialect, dialect)
	}
}

// warn logs a per-marker diagnostic and records it on the set.
func (c *Codec) warn(set *core.MarkerSet, msg string, args ...any) {
	c.logger.Warn(msg, args...)
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	set.Diagnostics = append(set.Diagnostics, b.String())
}
