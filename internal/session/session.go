// Package session holds the marker set being edited and the operations the
// command surface performs on it.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/internal/codec"
	"github.com/markershare/markershare/internal/storage"
	"github.com/markershare/markershare/pkg/core"
)

var (
	// ErrZoneMismatch is returned when an import targets a different zone than the working set
	ErrZoneMismatch = errors.New("marker string belongs to another zone")
	// ErrNoLibrary is returned by library operations when no storage backend is configured
	ErrNoLibrary = errors.New("no marker library configured")
)

// Recorder receives one sample per codec operation.
type Recorder interface {
	Record(op string, dialect core.Dialect, markers int, took time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(string, core.Dialect, int, time.Duration, error) {}

// Option configures a Session.
type Option func(*Session)

// WithRecorder sends codec usage samples to r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultDialect sets the dialect used for new sets and for exports
// that do not name one.
func WithDefaultDialect(d core.Dialect) Option {
	return func(s *Session) {
		if d != core.DialectUnknown {
			s.dialect = d
		}
	}
}

// ImportResult describes the markers one Import appended.
type ImportResult struct {
	Dialect     core.Dialect
	ZoneID      int
	Added       []uint
	Diagnostics []string
}

// Session owns the working marker set. All methods are safe for concurrent use.
type Session struct {
	mu  sync.RWMutex
	set *core.MarkerSet

	codec    *codec.Codec
	library  storage.Backend
	recorder Recorder
	logger   *slog.Logger
	dialect  core.Dialect
}

// New creates a session with an empty set for zone 0. library may be nil,
// in which case Save, Load and Library return ErrNoLibrary.
func New(c *codec.Codec, library storage.Backend, opts ...Option) *Session {
	s := &Session{
		codec:    c,
		library:  library,
		recorder: nopRecorder{},
		logger:   slog.New(slog.DiscardHandler),
		dialect:  core.DialectMor,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.set = core.NewMarkerSet(0, s.dialect)
	return s
}

// Start discards the working set and begins an empty one for zone.
func (s *Session) Start(zone int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = core.NewMarkerSet(zone, s.dialect)
	s.logger.Info("Started new marker set", "zone", zone)
}

// Import decodes raw and appends its markers. An empty working set adopts
// the decoded zone and dialect; otherwise the zones must agree.
func (s *Session) Import(raw string) (ImportResult, error) {
	start := time.Now()
	decoded, err := s.codec.Decode(raw)
	if err != nil {
		s.recorder.Record("decode", core.DialectUnknown, 0, time.Since(start), err)
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	s.recorder.Record("decode", decoded.Dialect, decoded.Len(), time.Since(start), nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set.Len() == 0 {
		s.set.ZoneID = decoded.ZoneID
		s.set.Dialect = decoded.Dialect
		s.set.Timestamp = decoded.Timestamp
		s.set.OriginalEncodedString = decoded.OriginalEncodedString
	} else if decoded.ZoneID != s.set.ZoneID {
		return ImportResult{}, fmt.Errorf("import: %w: got zone %d, working set is zone %d",
			ErrZoneMismatch, decoded.ZoneID, s.set.ZoneID)
	}

	res := ImportResult{
		Dialect:     decoded.Dialect,
		ZoneID:      decoded.ZoneID,
		Diagnostics: decoded.Diagnostics,
	}
	for _, m := range decoded.Markers {
		res.Added = append(res.Added, s.set.Add(m))
	}
	s.set.Diagnostics = append(s.set.Diagnostics, decoded.Diagnostics...)

	s.logger.Info("Imported markers", "dialect", decoded.Dialect, "zone", decoded.ZoneID,
		"added", len(res.Added), "diagnostics", len(decoded.Diagnostics))
	return res, nil
}

// Place appends m to the working set and returns its ID.
func (s *Session) Place(m core.Marker) (uint, error) {
	if err := m.Validate(); err != nil {
		return 0, fmt.Errorf("place: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.SourceIconKey = keepIconKey(m)
	return s.set.Add(m), nil
}

// Remove deletes the marker with the given ID.
func (s *Session) Remove(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Remove(id)
}

// Update applies fn to a copy of the marker and stores the result if fn
// succeeds and the marker is still valid. An Elms icon key the edit no
// longer matches is cleared.
func (s *Session) Update(id uint, fn func(m *core.Marker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.set.Get(id)
	if !ok {
		return fmt.Errorf("update %d: %w", id, core.ErrMarkerNotFound)
	}
	if m.Orientation != nil {
		o := *m.Orientation
		m.Orientation = &o
	}
	if err := fn(&m); err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("update %d: %w", id, err)
	}
	m.SourceIconKey = keepIconKey(m)

	return s.set.Update(id, func(dst *core.Marker) { *dst = m })
}

// keepIconKey returns the marker's icon key if its template still describes it.
func keepIconKey(m core.Marker) int {
	if m.SourceIconKey == 0 {
		return 0
	}
	tmpl, ok := catalog.Lookup(m.SourceIconKey)
	if !ok || !tmpl.Matches(m) {
		return 0
	}
	return m.SourceIconKey
}

// Snapshot returns a deep copy of the working set.
func (s *Session) Snapshot() *core.MarkerSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Clone()
}

// Export encodes the working set. DialectUnknown selects the set's own
// dialect, falling back to the session default.
func (s *Session) Export(dialect core.Dialect) (string, error) {
	set := s.Snapshot()
	if dialect == core.DialectUnknown {
		dialect = set.Dialect
	}
	if dialect == core.DialectUnknown {
		dialect = s.dialect
	}
	return s.encode(set, dialect)
}

func (s *Session) encode(set *core.MarkerSet, dialect core.Dialect) (string, error) {
	start := time.Now()
	out, err := s.codec.Encode(set, dialect)
	s.recorder.Record("encode", dialect, set.Len(), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("export %s: %w", dialect, err)
	}
	return out, nil
}

// Save stores the working set in the library under name. The stored string
// is left empty when the set cannot be encoded in its own dialect.
func (s *Session) Save(name string) error {
	if s.library == nil {
		return ErrNoLibrary
	}
	set := s.Snapshot()
	if set.Dialect == core.DialectUnknown {
		set.Dialect = s.dialect
	}

	encoded, err := s.encode(set, set.Dialect)
	if err != nil {
		s.logger.Warn("Saving set without encoded form", "name", name, "error", err)
		encoded = ""
	}
	if err := s.library.SaveSet(name, set, encoded); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	s.logger.Info("Saved marker set", "name", name, "markers", set.Len())
	return nil
}

// Load replaces the working set with the named library set.
func (s *Session) Load(name string) error {
	if s.library == nil {
		return ErrNoLibrary
	}
	set, err := s.library.GetSet(name)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = set
	s.logger.Info("Loaded marker set", "name", name, "markers", set.Len())
	return nil
}

// Library lists the saved sets.
func (s *Session) Library() ([]storage.SetInfo, error) {
	if s.library == nil {
		return nil, ErrNoLibrary
	}
	return s.library.ListSets()
}

// Forget deletes the named set from the library.
func (s *Session) Forget(name string) error {
	if s.library == nil {
		return ErrNoLibrary
	}
	if err := s.library.DeleteSet(name); err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// LogAttrs describes the working set for log records.
func (s *Session) LogAttrs() []slog.Attr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []slog.Attr{
		slog.Int("zone", s.set.ZoneID),
		slog.Int("markers", s.set.Len()),
	}
}
