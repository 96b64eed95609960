// Package handlers implements the :MARKERS: commands on top of an editing session.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/internal/codec"
	"github.com/markershare/markershare/internal/dispatcher"
	"github.com/markershare/markershare/internal/geo"
	"github.com/markershare/markershare/internal/session"
	"github.com/markershare/markershare/internal/util"
	"github.com/markershare/markershare/pkg/core"
)

// Command names
const (
	CmdNew     = ":MARKERS:NEW:"
	CmdImport  = ":MARKERS:IMPORT:"
	CmdPlace   = ":MARKERS:PLACE:"
	CmdRemove  = ":MARKERS:REMOVE:"
	CmdUpdate  = ":MARKERS:UPDATE:"
	CmdList    = ":MARKERS:LIST:"
	CmdExport  = ":MARKERS:EXPORT:"
	CmdSave    = ":MARKERS:SAVE:"
	CmdLoad    = ":MARKERS:LOAD:"
	CmdLibrary = ":MARKERS:LIBRARY:"
	CmdDelete  = ":MARKERS:DELETE:"
	CmdRoute   = ":MARKERS:ROUTE:"
)

// ErrBadArgs is returned when a command's arguments cannot be parsed
var ErrBadArgs = errors.New("invalid arguments")

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session *session.Session
	Logger  *slog.Logger
}

// Service provides handler methods for the marker commands
type Service struct {
	deps   Dependencies
	logger *slog.Logger
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps, logger: logger}
}

// Register wires every command onto d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdNew, s.handleNew, dispatcher.Logged(), dispatcher.Usage("<zone>"))
	d.Register(CmdImport, s.handleImport, dispatcher.Logged(), dispatcher.Usage("<marker string>"))
	d.Register(CmdPlace, s.handlePlace, dispatcher.Logged(),
		dispatcher.Usage("<x,y,z | [[x,y,z],...]> [icon=N] [text=..] [size=..] [color=RRGGBB[AA]] [texture=..] [pitch=deg] [yaw=deg]"))
	d.Register(CmdRemove, s.handleRemove, dispatcher.Logged(), dispatcher.Usage("<id> [id...]"))
	d.Register(CmdUpdate, s.handleUpdate, dispatcher.Logged(),
		dispatcher.Usage("<id> [pos=x,y,z] [icon=N] [text=..] [size=..] [color=..] [texture=..] [pitch=deg] [yaw=deg] [floating]"))
	d.Register(CmdList, s.handleList)
	d.Register(CmdExport, s.handleExport, dispatcher.Logged(), dispatcher.Usage("[mor|elms]"))
	d.Register(CmdSave, s.handleSave, dispatcher.Logged(), dispatcher.Usage("<name>"))
	d.Register(CmdLoad, s.handleLoad, dispatcher.Logged(), dispatcher.Usage("<name>"))
	d.Register(CmdLibrary, s.handleLibrary)
	d.Register(CmdDelete, s.handleDelete, dispatcher.Logged(), dispatcher.Usage("<name>"))
	d.Register(CmdRoute, s.handleRoute)
}

func (s *Service) writeLog(functionName, data string, level slog.Level) {
	s.logger.Log(context.Background(), level, data, "command", functionName)
}

// fixArgs strips the quoting the command line may carry.
func fixArgs(data []string) []string {
	out := make([]string, len(data))
	for i, v := range data {
		out[i] = util.FixEscapeQuotes(util.TrimQuotes(v))
	}
	return out
}

func needArgs(cmd string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: %w: want at least %d, got %d", cmd, ErrBadArgs, n, len(args))
	}
	return nil
}

func (s *Service) handleNew(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	zone := 0
	if len(args) > 0 {
		z, err := strconv.Atoi(args[0])
		if err != nil || z < 0 {
			return nil, fmt.Errorf("%s: %w: zone %q", CmdNew, ErrBadArgs, args[0])
		}
		zone = z
	}
	s.deps.Session.Start(zone)
	return fmt.Sprintf("started new marker set for zone %d", zone), nil
}

func (s *Service) handleImport(e dispatcher.Event) (any, error) {
	if err := needArgs(CmdImport, e.Args, 1); err != nil {
		return nil, err
	}
	// marker text may contain spaces, so the string is everything given
	raw := strings.Join(e.Args, " ")
	res, err := s.deps.Session.Import(raw)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Diagnostics {
		s.writeLog(CmdImport, d, slog.LevelWarn)
	}
	return res, nil
}

func (s *Service) handlePlace(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdPlace, args, 1); err != nil {
		return nil, err
	}

	positions, err := parsePositions(args[0])
	if err != nil {
		s.writeLog(CmdPlace, fmt.Sprintf("Error parsing position: %v", err), slog.LevelError)
		return nil, fmt.Errorf("%s: %w", CmdPlace, err)
	}

	ids := make([]uint, 0, len(positions))
	for _, pos := range positions {
		m := core.NewMarker(pos)
		if err := applyOptions(&m, args[1:]); err != nil {
			return ids, fmt.Errorf("%s: %w", CmdPlace, err)
		}
		id, err := s.deps.Session.Place(m)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parsePositions accepts a single "x,y,z" or a JSON list of positions.
func parsePositions(arg string) ([]core.Position3D, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "[") {
		return geo.ParsePositions(arg)
	}
	p, err := geo.Position3DFromString(arg)
	if err != nil {
		return nil, err
	}
	return []core.Position3D{p}, nil
}

func (s *Service) handleRemove(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdRemove, args, 1); err != nil {
		return nil, err
	}
	ids, err := parseIDs(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdRemove, err)
	}
	for _, id := range ids {
		if err := s.deps.Session.Remove(id); err != nil {
			return nil, err
		}
	}
	return fmt.Sprintf("removed %d marker(s)", len(ids)), nil
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%w: marker id %q", ErrBadArgs, a)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func (s *Service) handleUpdate(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdUpdate, args, 2); err != nil {
		return nil, err
	}
	ids, err := parseIDs(args[:1])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdUpdate, err)
	}

	err = s.deps.Session.Update(ids[0], func(m *core.Marker) error {
		return applyOptions(m, args[1:])
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CmdUpdate, err)
	}
	return fmt.Sprintf("updated marker %d", ids[0]), nil
}

// applyOptions edits m from key=value arguments. icon=N is applied first so
// the other options can refine the template.
func applyOptions(m *core.Marker, opts []string) error {
	rest := make([]string, 0, len(opts))
	for _, opt := range opts {
		key, value, _ := strings.Cut(opt, "=")
		if strings.ToLower(key) != "icon" {
			rest = append(rest, opt)
			continue
		}
		k, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: icon %q", ErrBadArgs, value)
		}
		tmpl, ok := catalog.Lookup(k)
		if !ok {
			return fmt.Errorf("%w: no icon with key %d", ErrBadArgs, k)
		}
		id := m.ID
		*m = tmpl.Marker(m.Position)
		m.ID = id
	}

	for _, opt := range rest {
		key, value, hasValue := strings.Cut(opt, "=")
		key = strings.ToLower(key)
		if !hasValue && key != "floating" {
			return fmt.Errorf("%w: option %q is not key=value", ErrBadArgs, opt)
		}
		switch key {
		case "pos":
			p, err := geo.Position3DFromString(value)
			if err != nil {
				return err
			}
			m.Position = p
		case "text":
			m.Text = value
		case "size":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%w: size %q", ErrBadArgs, value)
			}
			m.Size = f
		case "color", "colour":
			c, err := codec.ParseColor(value)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBadArgs, err)
			}
			m.Color = c
		case "texture":
			t, err := catalog.ResolveTexture(value)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBadArgs, err)
			}
			m.Shape = t
		case "pitch", "yaw":
			deg, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%w: %s %q", ErrBadArgs, key, value)
			}
			if m.Orientation == nil {
				m.Orientation = &core.Orientation{}
			}
			if key == "pitch" {
				m.Orientation.Pitch = deg * math.Pi / 180
			} else {
				m.Orientation.Yaw = deg * math.Pi / 180
			}
		case "floating":
			m.Orientation = nil
		default:
			return fmt.Errorf("%w: unknown option %q", ErrBadArgs, key)
		}
	}
	return nil
}

func (s *Service) handleList(e dispatcher.Event) (any, error) {
	return s.deps.Session.Snapshot(), nil
}

func (s *Service) handleExport(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	dialect := core.DialectUnknown
	if len(args) > 0 {
		d, err := core.ParseDialect(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", CmdExport, ErrBadArgs, err)
		}
		dialect = d
	}
	out, err := s.deps.Session.Export(dialect)
	if err != nil {
		var unmappable *codec.UnmappableIconError
		if errors.As(err, &unmappable) {
			for _, u := range unmappable.Markers {
				s.writeLog(CmdExport, fmt.Sprintf("marker #%d (%s): %s", u.Ordinal, u.Description, u.Reason), slog.LevelWarn)
			}
		}
		return nil, err
	}
	return out, nil
}

func (s *Service) handleSave(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdSave, args, 1); err != nil {
		return nil, err
	}
	if err := s.deps.Session.Save(args[0]); err != nil {
		return nil, err
	}
	return fmt.Sprintf("saved %q", args[0]), nil
}

func (s *Service) handleLoad(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdLoad, args, 1); err != nil {
		return nil, err
	}
	if err := s.deps.Session.Load(args[0]); err != nil {
		return nil, err
	}
	return s.deps.Session.Snapshot(), nil
}

func (s *Service) handleLibrary(e dispatcher.Event) (any, error) {
	return s.deps.Session.Library()
}

func (s *Service) handleDelete(e dispatcher.Event) (any, error) {
	args := fixArgs(e.Args)
	if err := needArgs(CmdDelete, args, 1); err != nil {
		return nil, err
	}
	if err := s.deps.Session.Forget(args[0]); err != nil {
		return nil, err
	}
	return fmt.Sprintf("deleted %q", args[0]), nil
}

func (s *Service) handleRoute(e dispatcher.Event) (any, error) {
	return geo.RouteWKT(s.deps.Session.Snapshot().Markers)
}
