package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markershare/markershare/pkg/core"
)

// decimalPlaces is the precision of sizes and angles in M0R strings
const decimalPlaces = 3

// formatDecimal rounds v to three places and drops trailing zeros.
func formatDecimal(v float64) string {
	scale := math.Pow10(decimalPlaces)
	r := math.Round(v*scale) / scale
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// formatColor renders c as lowercase RRGGBB, or RRGGBBAA when not opaque.
func formatColor(c core.Color) string {
	r, g, b, a := channelByte(c.R), channelByte(c.G), channelByte(c.B), channelByte(c.A)
	if a == 0xff {
		return fmt.Sprintf("%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("%02x%02x%02x%02x", r, g, b, a)
}

func channelByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// parseColor reads a 6 or 8 digit hex colour, either case.
func parseColor(s string) (core.Color, error) {
	if len(s) != 6 && len(s) != 8 {
		return core.Color{}, fmt.Errorf("colour %q must have 6 or 8 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return core.Color{}, fmt.Errorf("colour %q is not hex", s)
	}
	if len(s) == 6 {
		v = v<<8 | 0xff
	}
	return core.Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// parseHexInt reads a signed hexadecimal integer.
func parseHexInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 16, 64)
}

func formatHexInt(v int64) string {
	return strconv.FormatInt(v, 16)
}

// ParseColor reads a hex colour the way the M0R colours section writes it,
// with an optional leading '#'.
func ParseColor(s string) (core.Color, error) {
	return parseColor(strings.TrimPrefix(strings.TrimSpace(s), "#"))
}
