package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&LibraryInfo{},
	&SavedSet{},
}

// LibraryInfo records the schema and icon-table revision a library was written with
type LibraryInfo struct {
	gorm.Model
	SchemaVersion  int `json:"schemaVersion"`
	CatalogVersion int `json:"catalogVersion"`
}

func (*LibraryInfo) TableName() string {
	return "library_infos"
}

// SavedSet is one named marker set in the library.
//
// Markers holds the canonical markers as JSON so nothing is lost to either
// dialect's quantization; Encoded is the set re-encoded in its own dialect
// for copy-paste.
type SavedSet struct {
	ID          uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Name        string         `json:"name" gorm:"size:128;uniqueIndex:idx_saved_set_name"`
	ZoneID      int            `json:"zoneId" gorm:"index:idx_saved_set_zone"`
	Dialect     string         `json:"dialect" gorm:"size:16"`
	MarkerCount int            `json:"markerCount"`
	Timestamp   time.Time      `json:"timestamp"`
	Markers     datatypes.JSON `json:"markers"`
	Encoded     string         `json:"encoded"`
	Extent      string         `json:"extent" gorm:"size:512"` // WKT envelope of marker positions
}

func (*SavedSet) TableName() string {
	return "saved_sets"
}
