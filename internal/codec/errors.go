package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned for a blank string or an empty marker set
	ErrEmptyInput = errors.New("empty input")
	// ErrFormat is returned when the envelope of a marker string is malformed
	ErrFormat = errors.New("malformed marker string")
	// ErrNoMarkers is returned when the envelope parsed but held no usable marker
	ErrNoMarkers = errors.New("no markers found")
	// ErrUnmappableIcon is returned when an Elms encode cannot map a marker to an icon key
	ErrUnmappableIcon = errors.New("marker has no matching Elms icon")
	// ErrInvalidMarker is returned when a marker cannot be represented at all
	ErrInvalidMarker = errors.New("invalid marker")
	// ErrUnknownDialect is returned when a string matches neither dialect
	ErrUnknownDialect = errors.New("unrecognized marker format")
)

// formatErr wraps ErrFormat with the section that failed.
func formatErr(section, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrFormat, section, fmt.Sprintf(format, args...))
}

// UnmappableMarker describes one marker an Elms encode could not express
type UnmappableMarker struct {
	Ordinal     int // 1-based position in the set
	Description string
	Reason      string
}

// UnmappableIconError lists every marker that blocked an Elms encode
type UnmappableIconError struct {
	Markers []UnmappableMarker
}

func (e *UnmappableIconError) Error() string {
	if len(e.Markers) == 0 {
		return ErrUnmappableIcon.Error()
	}
	first := e.Markers[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%d marker(s) cannot be converted to Elms format; first is #%d (%s): %s",
		len(e.Markers), first.Ordinal, first.Description, first.Reason)
	return b.String()
}

// Is makes errors.Is(err, ErrUnmappableIcon) hold.
func (e *UnmappableIconError) Is(target error) bool {
	return target == ErrUnmappableIcon
}
