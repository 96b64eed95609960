// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/markershare/markershare/internal/geo"
	"github.com/markershare/markershare/internal/model"
	"github.com/markershare/markershare/pkg/core"
)

// markersToJSON converts markers to datatypes.JSON for DB storage.
func markersToJSON(markers []core.Marker) (datatypes.JSON, error) {
	if len(markers) == 0 {
		return datatypes.JSON("[]"), nil
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CoreToSavedSet converts a core.MarkerSet to a GORM model.SavedSet.
// encoded is the set serialized in its own dialect, or "" if it has none.
func CoreToSavedSet(name string, set *core.MarkerSet, encoded string) (model.SavedSet, error) {
	markers, err := markersToJSON(set.Markers)
	if err != nil {
		return model.SavedSet{}, fmt.Errorf("marshal markers: %w", err)
	}
	return model.SavedSet{
		Name:        name,
		ZoneID:      set.ZoneID,
		Dialect:     set.Dialect.String(),
		MarkerCount: set.Len(),
		Timestamp:   set.Timestamp,
		Markers:     markers,
		Encoded:     encoded,
		Extent:      geo.ExtentWKT(set.Markers),
	}, nil
}

// SavedSetToCore converts a GORM model.SavedSet back to a core.MarkerSet.
// Marker IDs are kept so later edits continue the same numbering.
func SavedSetToCore(s model.SavedSet) (*core.MarkerSet, error) {
	dialect, err := core.ParseDialect(s.Dialect)
	if err != nil {
		return nil, err
	}
	set := core.NewMarkerSet(s.ZoneID, dialect)
	set.Timestamp = s.Timestamp
	set.OriginalEncodedString = s.Encoded
	if len(s.Markers) > 0 {
		if err := json.Unmarshal(s.Markers, &set.Markers); err != nil {
			return nil, fmt.Errorf("unmarshal markers of %q: %w", s.Name, err)
		}
	}
	return set, nil
}
