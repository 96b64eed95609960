package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/internal/util"
	"github.com/markershare/markershare/pkg/core"
)

// Formatted field defaults; markers at these values are left out of their section.
const (
	defaultSizeValue   = "1"
	defaultAngleValue  = "0"
	defaultColourValue = "ffffff"
)

// EncodeMor serializes set as an M0R marker string stamped with the current time.
func (c *Codec) EncodeMor(set *core.MarkerSet) (string, error) {
	if set == nil || set.Len() == 0 {
		return "", fmt.Errorf("encode M0R: %w: marker set has no markers", ErrEmptyInput)
	}

	coords := make([][3]int64, set.Len())
	for i, m := range set.Markers {
		if err := validateMorMarker(m); err != nil {
			return "", fmt.Errorf("encode M0R: marker #%d: %w", i+1, err)
		}
		coords[i] = roundPosition(m.Position)
	}

	origin := coords[0]
	for _, p := range coords[1:] {
		for axis := range origin {
			origin[axis] = min(origin[axis], p[axis])
		}
	}

	var sizes, pitches, yaws, colours, textures indexedGroups
	positions := make([]string, set.Len())
	for i, m := range set.Markers {
		ordinal := i + 1

		if v := formatDecimal(m.Size); v != defaultSizeValue {
			sizes.add(v, ordinal)
		}
		if o := m.Orientation; o != nil {
			pitch, yaw := formatDecimal(degrees(o.Pitch)), formatDecimal(degrees(o.Yaw))
			// a ground-fixed marker needs at least one angle on the wire
			if pitch != defaultAngleValue || yaw == defaultAngleValue {
				pitches.add(pitch, ordinal)
			}
			if yaw != defaultAngleValue {
				yaws.add(yaw, ordinal)
			}
		}
		if v := formatColor(m.Color); v != defaultColourValue {
			colours.add(v, ordinal)
		}
		if m.Shape != "" {
			textures.add(textureValue(m.Shape), ordinal)
		}

		p := coords[i]
		entry := formatHexInt(p[0]-origin[0]) + morFieldSep +
			formatHexInt(p[1]-origin[1]) + morFieldSep +
			formatHexInt(p[2]-origin[2])
		if m.Text != "" {
			if util.HasReservedCodepoint(m.Text) {
				c.logger.Warn("Marker text contains a reserved escape codepoint and will not round trip",
					"ordinal", ordinal)
			}
			if util.HasLiteralNewlineEscape(m.Text) {
				c.logger.Warn("Marker text contains a literal \\n and will decode as a line break",
					"ordinal", ordinal)
			}
			entry += morFieldSep + util.EscapeText(m.Text)
		}
		positions[i] = entry
	}

	sections := make([]string, morSectionCount)
	sections[morSectionZone] = strconv.Itoa(set.ZoneID)
	sections[morSectionTimestamp] = strconv.FormatInt(c.now().Unix(), 10)
	sections[morSectionOrigin] = formatHexInt(origin[0]) + morFieldSep +
		formatHexInt(origin[1]) + morFieldSep +
		formatHexInt(origin[2])
	sections[morSectionSizes] = sizes.String()
	sections[morSectionPitches] = pitches.String()
	sections[morSectionYaws] = yaws.String()
	sections[morSectionColours] = colours.String()
	sections[morSectionTextures] = textures.String()
	sections[morSectionPositions] = strings.Join(positions, morListSep)

	return "<" + strings.Join(sections, morSectionSep) + ">", nil
}

func validateMorMarker(m core.Marker) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMarker, err)
	}
	if formatDecimal(m.Size) == "0" {
		return fmt.Errorf("%w: size %v rounds to zero", ErrInvalidMarker, m.Size)
	}
	if strings.HasPrefix(m.Shape, catalog.TextureRefPrefix) || strings.ContainsAny(m.Shape, "];>") {
		return fmt.Errorf("%w: texture %q contains a reserved character", ErrInvalidMarker, m.Shape)
	}
	return checkFinite(m.Position)
}

func checkFinite(p core.Position3D) error {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: position %+v is not finite", ErrInvalidMarker, p)
		}
	}
	return nil
}

// textureValue prefers a "^N" reference over the literal path.
func textureValue(path string) string {
	if ref, ok := catalog.BuiltinTextureRef(path); ok {
		return ref
	}
	return path
}

func roundPosition(p core.Position3D) [3]int64 {
	return [3]int64{
		int64(math.Round(p.X)),
		int64(math.Round(p.Y)),
		int64(math.Round(p.Z)),
	}
}

// indexedGroups buckets marker ordinals by formatted value, keeping values in
// order of first appearance so output is deterministic.
type indexedGroups struct {
	values   []string
	ordinals map[string][]int
}

func (g *indexedGroups) add(value string, ordinal int) {
	if g.ordinals == nil {
		g.ordinals = make(map[string][]int)
	}
	if _, seen := g.ordinals[value]; !seen {
		g.values = append(g.values, value)
	}
	g.ordinals[value] = append(g.ordinals[value], ordinal)
}

func (g *indexedGroups) String() string {
	groups := make([]string, 0, len(g.values))
	for _, v := range g.values {
		idx := make([]string, len(g.ordinals[v]))
		for i, o := range g.ordinals[v] {
			idx[i] = strconv.Itoa(o)
		}
		groups = append(groups, v+morFieldSep+strings.Join(idx, morListSep))
	}
	return strings.Join(groups, morGroupSep)
}
