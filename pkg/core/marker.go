// pkg/core/marker.go
package core

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSize is the marker diameter in meters when none is recorded
const DefaultSize = 1.0

// ErrMarkerNotFound is returned when an edit targets an ID the set does not hold
var ErrMarkerNotFound = errors.New("marker not found")

// Marker is a single labeled spatial annotation.
//
// Zero values carry meaning: an empty Shape shows only the label, an empty
// Text means no label, a nil Orientation is a floating (camera-facing) marker
// and a zero SourceIconKey means the marker has no Elms provenance.
type Marker struct {
	ID            uint         `json:"id,omitempty"`
	Position      Position3D   `json:"position"`
	Size          float64      `json:"size"`
	Shape         string       `json:"shape,omitempty"`
	Color         Color        `json:"color"`
	Text          string       `json:"text,omitempty"`
	Orientation   *Orientation `json:"orientation,omitempty"`
	SourceIconKey int          `json:"sourceIconKey,omitempty"`
}

// NewMarker returns a floating white marker of default size at pos
func NewMarker(pos Position3D) Marker {
	return Marker{
		Position: pos,
		Size:     DefaultSize,
		Color:    White,
	}
}

// Floating reports whether the marker always faces the camera.
func (m Marker) Floating() bool {
	return m.Orientation == nil
}

// Validate checks the invariants an encoder relies on.
func (m Marker) Validate() error {
	if !(m.Size > 0) {
		return fmt.Errorf("size must be > 0, got %v", m.Size)
	}
	if !m.Color.InRange() {
		return fmt.Errorf("colour channels must be within [0,1], got %+v", m.Color)
	}
	return nil
}

// Describe returns a short human-readable label for error messages.
func (m Marker) Describe() string {
	switch {
	case m.Text != "" && m.Shape != "":
		return fmt.Sprintf("text %q, texture %q", m.Text, m.Shape)
	case m.Text != "":
		return fmt.Sprintf("text %q", m.Text)
	case m.Shape != "":
		return fmt.Sprintf("texture %q", m.Shape)
	default:
		return "no text or texture"
	}
}

// MarkerSet is an ordered list of markers that all belong to one zone.
// Marker order is significant: it is the 1-based ordinal the M0R grammar
// groups attributes by.
type MarkerSet struct {
	ZoneID    int       `json:"zoneId"`
	Markers   []Marker  `json:"markers"`
	Dialect   Dialect   `json:"dialect"`
	Timestamp time.Time `json:"timestamp,omitzero"`

	// OriginalEncodedString is kept for audit only; re-encoding is not
	// expected to reproduce it.
	OriginalEncodedString string   `json:"originalEncodedString,omitempty"`
	Diagnostics           []string `json:"diagnostics,omitempty"`

	nextID uint
}

// NewMarkerSet creates an empty set for a zone
func NewMarkerSet(zoneID int, dialect Dialect) *MarkerSet {
	return &MarkerSet{
		ZoneID:  zoneID,
		Dialect: dialect,
		Markers: []Marker{},
	}
}

// Len returns the number of markers.
func (s *MarkerSet) Len() int {
	return len(s.Markers)
}

// Add appends a marker, assigns it the next ID and returns that ID.
func (s *MarkerSet) Add(m Marker) uint {
	if s.nextID == 0 {
		for _, existing := range s.Markers {
			if existing.ID > s.nextID {
				s.nextID = existing.ID
			}
		}
	}
	s.nextID++
	m.ID = s.nextID
	s.Markers = append(s.Markers, m)
	return m.ID
}

// Get returns a copy of the marker with the given ID.
func (s *MarkerSet) Get(id uint) (Marker, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Marker{}, false
	}
	return s.Markers[i], true
}

// Remove deletes the marker with the given ID, preserving the order of the rest.
func (s *MarkerSet) Remove(id uint) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("remove %d: %w", id, ErrMarkerNotFound)
	}
	s.Markers = append(s.Markers[:i], s.Markers[i+1:]...)
	return nil
}

// Update mutates the marker with the given ID in place. The ID cannot be changed.
func (s *MarkerSet) Update(id uint, fn func(m *Marker)) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("update %d: %w", id, ErrMarkerNotFound)
	}
	fn(&s.Markers[i])
	s.Markers[i].ID = id
	return nil
}

// Clear removes all markers but keeps the zone.
func (s *MarkerSet) Clear() {
	s.Markers = []Marker{}
}

// Clone returns a deep copy.
func (s *MarkerSet) Clone() *MarkerSet {
	c := *s
	c.Markers = make([]Marker, len(s.Markers))
	for i, m := range s.Markers {
		if m.Orientation != nil {
			o := *m.Orientation
			m.Orientation = &o
		}
		c.Markers[i] = m
	}
	c.Diagnostics = append([]string(nil), s.Diagnostics...)
	return &c
}

func (s *MarkerSet) indexOf(id uint) int {
	for i := range s.Markers {
		if s.Markers[i].ID == id {
			return i
		}
	}
	return -1
}
