package codec

import (
	"fmt"
	"strings"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/pkg/core"
)

// elmsBaseOffset converts between the Elms marker base and the canonical
// marker center: y_center = y_base + elmsBaseOffset*size.
const elmsBaseOffset = 50

// DecodeElms parses an Elms marker string. The first segment fixes the zone;
// later segments for another zone are dropped.
func (c *Codec) DecodeElms(input string) (*core.MarkerSet, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("%w: %w", ErrFormat, ErrEmptyInput)
	}

	segments := scanElmsSegments(input)
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no /zone//x,y,z,icon/ segment in Elms string", ErrNoMarkers)
	}

	zone := segments[0].zone
	set := core.NewMarkerSet(zone, core.DialectElms)
	set.OriginalEncodedString = input

	for i, seg := range segments {
		if seg.zone != zone {
			c.warn(set, "Dropping Elms segment from another zone",
				"segment", i+1, "zone", seg.zone, "expected", zone)
			continue
		}

		tmpl, ok := catalog.Lookup(seg.iconKey)
		if !ok {
			c.warn(set, "Unknown Elms icon key, using plain circle", "segment", i+1, "iconKey", seg.iconKey)
			tmpl = catalog.FallbackTemplate()
		}

		m := tmpl.Marker(core.Position3D{
			X: float64(seg.x),
			Y: float64(seg.y) + elmsBaseOffset*tmpl.SizeOrDefault(),
			Z: float64(seg.z),
		})
		set.Add(m)
	}

	c.logger.Debug("Decoded Elms markers", "zone", zone, "markers", set.Len())
	return set, nil
}
