// pkg/core/types.go
package core

import (
	"fmt"
	"strings"
)

// Position3D is a world-space position in engine centimeters
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"` // vertical axis
	Z float64 `json:"z"`
}

// Color is an RGBA colour with each channel in [0, 1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// White is the default marker colour
var White = Color{R: 1, G: 1, B: 1, A: 1}

// InRange reports whether every channel lies in [0, 1].
func (c Color) InRange() bool {
	for _, v := range [4]float64{c.R, c.G, c.B, c.A} {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}

// Orientation is a ground-fixed facing in radians
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Dialect identifies one of the supported marker string formats
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectMor
	DialectElms
)

// String returns the lowercase dialect name used in config and on the CLI.
func (d Dialect) String() string {
	switch d {
	case DialectMor:
		return "mor"
	case DialectElms:
		return "elms"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so dialects serialize by name.
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dialect) UnmarshalText(b []byte) error {
	parsed, err := ParseDialect(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDialect converts a dialect name ("mor", "m0r", "elms") into a Dialect
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mor", "m0r":
		return DialectMor, nil
	case "elms":
		return DialectElms, nil
	case "unknown":
		return DialectUnknown, nil
	default:
		return DialectUnknown, fmt.Errorf("unknown dialect: %q", s)
	}
}
