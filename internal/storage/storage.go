// internal/storage/storage.go
package storage

import (
	"errors"
	"time"

	"github.com/markershare/markershare/pkg/core"
)

// ErrSetNotFound is returned when a named marker set is not in the library
var ErrSetNotFound = errors.New("marker set not found")

// SetInfo summarizes a saved set without its markers
type SetInfo struct {
	Name        string       `json:"name"`
	ZoneID      int          `json:"zoneId"`
	Dialect     core.Dialect `json:"dialect"`
	MarkerCount int          `json:"markerCount"`
	SavedAt     time.Time    `json:"savedAt"`
}

// Backend is the interface all library storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveSet stores a copy of set under name, replacing any set of that name.
	// encoded is the set in its own dialect, or "" if it cannot be encoded.
	SaveSet(name string, set *core.MarkerSet, encoded string) error
	// GetSet returns a copy of the named set.
	GetSet(name string) (*core.MarkerSet, error)
	// ListSets returns summaries ordered by name.
	ListSets() ([]SetInfo, error)
	DeleteSet(name string) error
}
