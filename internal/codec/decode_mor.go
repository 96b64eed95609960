package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/internal/util"
	"github.com/markershare/markershare/pkg/core"
)

// M0R envelope layout: <zone]timestamp]minX:minY:minZ]sizes]pitches]yaws]colours]textures]positions>
const (
	morSectionZone = iota
	morSectionTimestamp
	morSectionOrigin
	morSectionSizes
	morSectionPitches
	morSectionYaws
	morSectionColours
	morSectionTextures
	morSectionPositions

	morSectionCount
)

const (
	morSectionSep = "]"
	morGroupSep   = ";"
	morListSep    = ","
	morFieldSep   = ":"
)

// DecodeMor parses an M0R marker string.
func (c *Codec) DecodeMor(input string) (*core.MarkerSet, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, fmt.Errorf("%w: %w", ErrFormat, ErrEmptyInput)
	}
	if !strings.HasPrefix(s, "<") {
		return nil, formatErr("envelope", "missing leading '<'")
	}
	if !strings.HasSuffix(s, ">") || len(s) < 2 {
		return nil, formatErr("envelope", "missing trailing '>'")
	}

	// The positions section is everything after the eighth separator.
	sections := strings.SplitN(s[1:len(s)-1], morSectionSep, morSectionCount)
	if len(sections) < morSectionCount {
		return nil, formatErr("envelope", "expected %d sections, got %d", morSectionCount, len(sections))
	}

	zone, err := strconv.Atoi(strings.TrimSpace(sections[morSectionZone]))
	if err != nil {
		return nil, formatErr("zone", "%q is not a number", sections[morSectionZone])
	}
	timestamp, err := strconv.ParseInt(strings.TrimSpace(sections[morSectionTimestamp]), 10, 64)
	if err != nil {
		return nil, formatErr("timestamp", "%q is not a number", sections[morSectionTimestamp])
	}
	origin, err := parseOrigin(sections[morSectionOrigin])
	if err != nil {
		return nil, err
	}

	sizes, err := parseIndexedGroups(sections[morSectionSizes], "sizes", parseSize)
	if err != nil {
		return nil, err
	}
	pitches, err := parseIndexedGroups(sections[morSectionPitches], "pitches", parseAngle)
	if err != nil {
		return nil, err
	}
	yaws, err := parseIndexedGroups(sections[morSectionYaws], "yaws", parseAngle)
	if err != nil {
		return nil, err
	}
	colours, err := parseIndexedGroups(sections[morSectionColours], "colours", parseColor)
	if err != nil {
		return nil, err
	}
	textures, err := parseIndexedGroups(sections[morSectionTextures], "textures", parseTexture)
	if err != nil {
		return nil, err
	}

	set := core.NewMarkerSet(zone, core.DialectMor)
	set.Timestamp = time.Unix(timestamp, 0).UTC()
	set.OriginalEncodedString = input

	// trailing whitespace belongs to the last marker's text
	positions := sections[morSectionPositions]
	if strings.TrimSpace(positions) == "" {
		return set, nil
	}

	entries := strings.Split(positions, morListSep)
	for i, entry := range entries {
		ordinal := i + 1
		pos, text, err := parsePositionEntry(entry, origin)
		if err != nil {
			c.warn(set, "Skipping M0R position entry", "ordinal", ordinal, "error", err)
			continue
		}

		m := core.NewMarker(pos)
		m.Text = text
		if v, ok := sizes[ordinal]; ok {
			m.Size = v
		}
		if v, ok := colours[ordinal]; ok {
			m.Color = v
		}
		if v, ok := textures[ordinal]; ok {
			m.Shape = v
		}
		pitch, hasPitch := pitches[ordinal]
		yaw, hasYaw := yaws[ordinal]
		if hasPitch || hasYaw {
			m.Orientation = &core.Orientation{Pitch: pitch, Yaw: yaw}
		}
		set.Add(m)
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: none of %d M0R position entries could be read", ErrNoMarkers, len(entries))
	}

	c.logger.Debug("Decoded M0R markers", "zone", zone, "markers", set.Len())
	return set, nil
}

func parseOrigin(section string) (core.Position3D, error) {
	parts := strings.Split(section, morFieldSep)
	if len(parts) != 3 {
		return core.Position3D{}, formatErr("origin", "expected minX:minY:minZ, got %q", section)
	}
	var v [3]int64
	for i, p := range parts {
		n, err := parseHexInt(p)
		if err != nil {
			return core.Position3D{}, formatErr("origin", "%q is not hex", p)
		}
		v[i] = n
	}
	return core.Position3D{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}, nil
}

// parseIndexedGroups reads a "value:i,j,k;value:i,..." section into an
// ordinal -> value map. Values may themselves contain ':', so the index
// list starts after the last one.
func parseIndexedGroups[T any](section, name string, parse func(string) (T, error)) (map[int]T, error) {
	out := make(map[int]T)
	for _, group := range strings.Split(section, morGroupSep) {
		if strings.TrimSpace(group) == "" {
			continue
		}
		sep := strings.LastIndex(group, morFieldSep)
		if sep < 0 {
			return nil, formatErr(name, "group %q has no index list", group)
		}
		value, err := parse(group[:sep])
		if err != nil {
			return nil, formatErr(name, "%v", err)
		}
		for _, idx := range strings.Split(group[sep+1:], morListSep) {
			idx = strings.TrimSpace(idx)
			if idx == "" {
				continue
			}
			ordinal, err := strconv.Atoi(idx)
			if err != nil || ordinal < 1 {
				return nil, formatErr(name, "invalid marker index %q", idx)
			}
			out[ordinal] = value
		}
	}
	return out, nil
}

func parseSize(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("size %q is not a number", s)
	}
	if !(v > 0) {
		return 0, fmt.Errorf("size %q must be positive", s)
	}
	return v, nil
}

// parseAngle reads degrees and returns radians.
func parseAngle(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("angle %q is not a number", s)
	}
	return radians(v), nil
}

func parseTexture(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("empty texture")
	}
	return catalog.ResolveTexture(s)
}

// parsePositionEntry reads xHex:yHex:zHex[:escapedText] relative to origin.
func parsePositionEntry(entry string, origin core.Position3D) (core.Position3D, string, error) {
	parts := strings.SplitN(entry, morFieldSep, 4)
	if len(parts) < 3 {
		return core.Position3D{}, "", fmt.Errorf("expected at least 3 coordinates, got %d", len(parts))
	}
	var v [3]int64
	for i := range v {
		n, err := parseHexInt(parts[i])
		if err != nil {
			return core.Position3D{}, "", fmt.Errorf("coordinate %q is not hex", parts[i])
		}
		v[i] = n
	}
	var text string
	if len(parts) == 4 {
		text = util.UnescapeText(parts[3])
	}
	return core.Position3D{
		X: origin.X + float64(v[0]),
		Y: origin.Y + float64(v[1]),
		Z: origin.Z + float64(v[2]),
	}, text, nil
}
