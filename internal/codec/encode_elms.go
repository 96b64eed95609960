package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/pkg/core"
)

// EncodeElms serializes set as concatenated /zone//x,y,z,icon/ segments.
// Nothing is emitted unless every marker maps to an icon key.
func (c *Codec) EncodeElms(set *core.MarkerSet) (string, error) {
	if set == nil || set.Len() == 0 {
		return "", fmt.Errorf("encode Elms: %w: marker set has no markers", ErrEmptyInput)
	}
	if set.ZoneID < 0 {
		return "", fmt.Errorf("encode Elms: %w: zone %d cannot be written", ErrInvalidMarker, set.ZoneID)
	}

	var (
		b        strings.Builder
		failures []UnmappableMarker
	)
	for i, m := range set.Markers {
		ordinal := i + 1
		if err := checkFinite(m.Position); err != nil {
			failures = append(failures, UnmappableMarker{
				Ordinal:     ordinal,
				Description: m.Describe(),
				Reason:      "position is not finite",
			})
			continue
		}
		tmpl, ok := resolveIcon(m)
		if !ok {
			failures = append(failures, UnmappableMarker{
				Ordinal:     ordinal,
				Description: m.Describe(),
				Reason:      "no icon template matches its texture, text, size and colour",
			})
			continue
		}

		p := roundPosition(core.Position3D{
			X: m.Position.X,
			Y: m.Position.Y - elmsBaseOffset*tmpl.SizeOrDefault(),
			Z: m.Position.Z,
		})
		if p[0] < 0 || p[1] < 0 || p[2] < 0 {
			failures = append(failures, UnmappableMarker{
				Ordinal:     ordinal,
				Description: m.Describe(),
				Reason:      fmt.Sprintf("negative coordinate %d,%d,%d", p[0], p[1], p[2]),
			})
			continue
		}
		if len(failures) > 0 {
			continue
		}

		b.WriteString("/")
		b.WriteString(strconv.Itoa(set.ZoneID))
		b.WriteString("//")
		b.WriteString(strconv.FormatInt(p[0], 10))
		b.WriteString(",")
		b.WriteString(strconv.FormatInt(p[1], 10))
		b.WriteString(",")
		b.WriteString(strconv.FormatInt(p[2], 10))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(tmpl.Key))
		b.WriteString("/")
	}

	if len(failures) > 0 {
		return "", &UnmappableIconError{Markers: failures}
	}
	return b.String(), nil
}

// resolveIcon prefers the marker's own Elms provenance, then falls back to
// the first matching catalog template.
func resolveIcon(m core.Marker) (catalog.Template, bool) {
	if m.SourceIconKey != 0 {
		if tmpl, ok := catalog.Lookup(m.SourceIconKey); ok {
			return tmpl, true
		}
	}
	if math.IsNaN(m.Size) {
		return catalog.Template{}, false
	}
	return catalog.Match(m)
}
