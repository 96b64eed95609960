package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/markershare/markershare/internal/codec"
	"github.com/markershare/markershare/internal/config"
	"github.com/markershare/markershare/internal/dispatcher"
	"github.com/markershare/markershare/internal/geo"
	"github.com/markershare/markershare/internal/handlers"
	"github.com/markershare/markershare/internal/logging"
	"github.com/markershare/markershare/internal/session"
	gormstorage "github.com/markershare/markershare/internal/storage/gorm"
	"github.com/markershare/markershare/internal/util"
	"github.com/markershare/markershare/pkg/core"
)

// cliEnv is what a subcommand runs against
type cliEnv struct {
	opts   options
	args   []string
	stdin  io.Reader
	stdout io.Writer
	codec  *codec.Codec
}

type command struct {
	name string
	help string
	run  func(env *cliEnv) error
}

var commands []command

func init() {
	commands = []command{
		{"detect", "[string|-]          print the dialect of a marker string", runDetect},
		{"decode", "[string|-]          print a marker string as JSON", runDecode},
		{"convert", "--to D [string|-]  re-encode a marker string in dialect D", runConvert},
		{"route", "[--extent] [string|-] print the markers as WKT", runRoute},
		{"edit", "                    interactive editor reading commands from stdin", runEdit},
		{"save", "<name> [string|-]     store a marker string in the library", runSave},
		{"load", "<name> [--to D|--json] print a stored set", runLoad},
		{"list", "                    list stored sets", runList},
		{"delete", "<name>              remove a stored set", runDelete},
		{"backup", "<path>              copy the SQLite library to path", runBackup},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
	}
	return command{}, false
}

// readInput takes the marker string from the arguments, or from stdin when
// none is given or the argument is "-".
func readInput(env *cliEnv, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(env.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// scratchSession is a session with no library, for one-shot conversions.
func scratchSession(env *cliEnv) *session.Session {
	opts := []session.Option{
		session.WithLogger(Logger),
		session.WithDefaultDialect(config.GetCodecConfig().DefaultDialect),
	}
	if Metrics != nil {
		opts = append(opts, session.WithRecorder(Metrics))
	}
	s := session.New(env.codec, nil, opts...)
	editSession = s
	return s
}

func printResult(w io.Writer, result any) error {
	switch v := result.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
}

func parseTarget(to string, fallback core.Dialect) (core.Dialect, error) {
	if to == "" {
		return fallback, nil
	}
	d, err := core.ParseDialect(to)
	if err != nil {
		return core.DialectUnknown, err
	}
	return d, nil
}

func runDetect(env *cliEnv) error {
	input, err := readInput(env, env.args)
	if err != nil {
		return err
	}
	return printResult(env.stdout, codec.Detect(input).String())
}

func runDecode(env *cliEnv) error {
	input, err := readInput(env, env.args)
	if err != nil {
		return err
	}
	s := scratchSession(env)
	if _, err := s.Import(input); err != nil {
		return err
	}
	return printResult(env.stdout, s.Snapshot())
}

func runConvert(env *cliEnv) error {
	input, err := readInput(env, env.args)
	if err != nil {
		return err
	}
	s := scratchSession(env)
	res, err := s.Import(input)
	if err != nil {
		return err
	}

	// without --to, convert to the other dialect
	fallback := core.DialectElms
	if res.Dialect == core.DialectElms {
		fallback = core.DialectMor
	}
	target, err := parseTarget(env.opts.to, fallback)
	if err != nil {
		return err
	}

	out, err := s.Export(target)
	if err != nil {
		var unmappable *codec.UnmappableIconError
		if errors.As(err, &unmappable) {
			for _, u := range unmappable.Markers {
				Logger.Warn("Marker has no Elms icon", "ordinal", u.Ordinal, "marker", u.Description, "reason", u.Reason)
			}
		}
		return err
	}
	return printResult(env.stdout, out)
}

func runRoute(env *cliEnv) error {
	input, err := readInput(env, env.args)
	if err != nil {
		return err
	}
	s := scratchSession(env)
	if _, err := s.Import(input); err != nil {
		return err
	}
	markers := s.Snapshot().Markers
	if env.opts.extent {
		wkt := geo.ExtentWKT(markers)
		if wkt == "" {
			return fmt.Errorf("markers have no extent")
		}
		return printResult(env.stdout, wkt)
	}
	wkt, err := geo.RouteWKT(markers)
	if err != nil {
		return err
	}
	return printResult(env.stdout, wkt)
}

func runSave(env *cliEnv) error {
	if len(env.args) < 1 {
		return fmt.Errorf("missing set name")
	}
	name := env.args[0]
	input, err := readInput(env, env.args[1:])
	if err != nil {
		return err
	}

	s, closeFn, err := newSession(env)
	if err != nil {
		return err
	}
	defer closeFn()

	warnIfVolatile("save")
	res, err := s.Import(input)
	if err != nil {
		return err
	}
	if err := s.Save(name); err != nil {
		return err
	}
	return printResult(env.stdout, fmt.Sprintf("saved %q (%d markers, zone %d)", name, len(res.Added), res.ZoneID))
}

func runLoad(env *cliEnv) error {
	if len(env.args) < 1 {
		return fmt.Errorf("missing set name")
	}
	s, closeFn, err := newSession(env)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.Load(env.args[0]); err != nil {
		return err
	}
	if env.opts.asJSON {
		return printResult(env.stdout, s.Snapshot())
	}
	target, err := parseTarget(env.opts.to, core.DialectUnknown)
	if err != nil {
		return err
	}
	out, err := s.Export(target)
	if err != nil {
		return err
	}
	return printResult(env.stdout, out)
}

func runList(env *cliEnv) error {
	s, closeFn, err := newSession(env)
	if err != nil {
		return err
	}
	defer closeFn()

	warnIfVolatile("list")
	sets, err := s.Library()
	if err != nil {
		return err
	}
	for _, info := range sets {
		fmt.Fprintf(env.stdout, "%-24s zone=%-6d %-5s markers=%-4d saved=%s\n",
			info.Name, info.ZoneID, info.Dialect, info.MarkerCount, info.SavedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDelete(env *cliEnv) error {
	if len(env.args) < 1 {
		return fmt.Errorf("missing set name")
	}
	s, closeFn, err := newSession(env)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := s.Forget(env.args[0]); err != nil {
		return err
	}
	return printResult(env.stdout, fmt.Sprintf("deleted %q", env.args[0]))
}

func runBackup(env *cliEnv) error {
	if len(env.args) < 1 {
		return fmt.Errorf("missing backup path")
	}
	storageCfg := config.GetStorageConfig()
	if !strings.EqualFold(storageCfg.Type, "sqlite") {
		return fmt.Errorf("backup needs --storage sqlite, not %q", storageCfg.Type)
	}
	backend, err := createStorageBackend(storageCfg, config.GetDBConfig(), ZLog)
	if err != nil {
		return err
	}
	defer backend.Close()

	gb, ok := backend.(*gormstorage.Backend)
	if !ok {
		return fmt.Errorf("backend %T cannot be backed up", backend)
	}
	if err := gb.Backup(env.args[0]); err != nil {
		return err
	}
	return printResult(env.stdout, fmt.Sprintf("library copied to %s", env.args[0]))
}

// runEdit reads commands line by line. A command is either a full
// :MARKERS:NAME: string or its short name ("place 1,2,3 text=hi").
func runEdit(env *cliEnv) error {
	s, closeFn, err := newSession(env)
	if err != nil {
		return err
	}
	defer closeFn()

	d, err := dispatcher.New(logging.NewDispatcherLogger(ZLog))
	if err != nil {
		return err
	}
	handlers.NewService(handlers.Dependencies{Session: s, Logger: Logger}).Register(d)

	scanner := bufio.NewScanner(env.stdin)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, rest, _ := strings.Cut(line, " ")
		switch strings.ToLower(name) {
		case "quit", "exit":
			return nil
		case "help":
			for _, c := range d.Commands() {
				fmt.Fprintf(env.stdout, "%-20s %s\n", c.Name, c.Usage)
			}
			continue
		}

		cmd := commandName(name)
		var args []string
		if cmd == handlers.CmdImport {
			// marker strings are taken verbatim
			args = []string{strings.TrimSpace(rest)}
		} else {
			args = util.SplitArgs(rest)
		}

		result, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args})
		if err != nil {
			fmt.Fprintf(env.stdout, "error: %v\n", err)
			continue
		}
		if err := printResult(env.stdout, result); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func commandName(name string) string {
	if strings.HasPrefix(name, ":") {
		return strings.ToUpper(name)
	}
	return ":MARKERS:" + strings.ToUpper(name) + ":"
}
