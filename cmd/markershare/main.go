package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/markershare/markershare/internal/codec"
	"github.com/markershare/markershare/internal/config"
	"github.com/markershare/markershare/internal/influx"
	"github.com/markershare/markershare/internal/logging"
	"github.com/markershare/markershare/internal/session"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "markershare"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ZLog is handed to the storage and metrics layers
	ZLog zerolog.Logger

	// LogFile is set when --log-file is given
	LogFile *os.File

	// Metrics is nil unless influx.enabled is set
	Metrics *influx.Manager

	SessionStartTime time.Time = time.Now()

	// editSession feeds the context handler once a command has created it
	editSession *session.Session
)

// options holds parsed command-line flags that are not config keys
type options struct {
	configDir string
	logToFile bool
	to        string
	asJSON    bool
	extent    bool
	version   bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.StringVar(&opts.configDir, "config-dir", ".", "directory containing "+config.ConfigFileName)
	fs.BoolVar(&opts.logToFile, "log-file", false, "write logs to a session file under --logs-dir instead of stderr")
	fs.StringVar(&opts.to, "to", "", "target dialect for convert and load (mor|elms)")
	fs.BoolVar(&opts.asJSON, "json", false, "print load results as JSON instead of a marker string")
	fs.BoolVar(&opts.extent, "extent", false, "print the bounding polygon instead of the route")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	fs.String("log-level", "info", "log level (debug|info|warn|error)")
	fs.String("logs-dir", "./markershare-logs", "directory for --log-file")
	fs.String("storage", "memory", "library backend (memory|sqlite|postgres)")
	fs.String("db-path", "./markershare.db", "SQLite library file")
	fs.String("dialect", "mor", "default dialect for new sets (mor|elms)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> [args]\n\nCommands:\n", AppName)
		for _, c := range commands {
			fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.help)
		}
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "%s %s (%s)\n", AppName, CurrentVersion, BuildDate)
		return 0
	}

	if err := config.LoadOptional(opts.configDir); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		return 1
	}
	if err := config.BindFlags(fs); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		return 1
	}

	if err := setupLogging(opts.logToFile); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		return 1
	}
	defer closeLogging()

	setupMetrics()
	defer func() {
		if Metrics != nil {
			if err := Metrics.Close(); err != nil {
				Logger.Warn("Failed to close metrics", "error", err)
			}
		}
	}()

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	cmd, ok := lookupCommand(rest[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", AppName, rest[0])
		fs.Usage()
		return 2
	}

	env := &cliEnv{
		opts:   opts,
		args:   rest[1:],
		stdin:  stdin,
		stdout: stdout,
		codec:  codec.New(Logger),
	}
	Logger.Debug("Running command", "command", cmd.name, "version", CurrentVersion)
	if err := cmd.run(env); err != nil {
		Logger.Error("Command failed", "command", cmd.name, "error", err)
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", AppName, cmd.name, err)
		return 1
	}
	return 0
}

// setupLogging builds the slog and zerolog loggers from config.
func setupLogging(toFile bool) error {
	level := viper.GetString("logLevel")
	SlogManager = logging.NewSlogManager()

	var zw io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	var fileWriter io.Writer
	if toFile {
		path := logging.LogFilePath(viper.GetString("logsDir"), AppName, SessionStartTime)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create logs dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		LogFile = f
		fileWriter = f
		zw = f
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		h, err := SlogManager.EnableGraylog(viper.GetString("graylog.address"), level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: graylog disabled: %v\n", AppName, err)
		} else {
			extra = append(extra, h)
		}
	}

	SlogManager.Setup(fileWriter, level, extra...)
	Logger = slog.New(logging.NewContextHandler(SlogManager.Logger().Handler(), func() []slog.Attr {
		if editSession == nil {
			return nil
		}
		return editSession.LogAttrs()
	}))
	ZLog = logging.NewZerolog(zw, level)
	return nil
}

func closeLogging() {
	if err := SlogManager.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: closing graylog: %v\n", AppName, err)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// setupMetrics connects to InfluxDB when enabled. Failures only disable metrics.
func setupMetrics() {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return
	}
	backup := filepath.Join(viper.GetString("logsDir"),
		fmt.Sprintf("%s_usage_%s.gz", AppName, SessionStartTime.Format("20060102_150405")))
	if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
		Logger.Warn("Usage metrics disabled", "error", err)
		return
	}

	m := influx.NewManager(ZLog, backup)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Connect(ctx, cfg); err != nil {
		Logger.Warn("Usage metrics disabled", "error", err)
		return
	}
	Metrics = m
}

// newSession opens the library backend and builds an editing session over it.
// The returned func closes the backend.
func newSession(env *cliEnv) (*session.Session, func(), error) {
	backend, err := createStorageBackend(config.GetStorageConfig(), config.GetDBConfig(), ZLog)
	if err != nil {
		return nil, nil, err
	}
	if err := backend.Init(); err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to initialize library: %w", err)
	}

	opts := []session.Option{
		session.WithLogger(Logger),
		session.WithDefaultDialect(config.GetCodecConfig().DefaultDialect),
	}
	if Metrics != nil {
		opts = append(opts, session.WithRecorder(Metrics))
	}
	s := session.New(env.codec, backend, opts...)
	editSession = s

	return s, func() {
		editSession = nil
		if err := backend.Close(); err != nil {
			Logger.Warn("Failed to close library", "error", err)
		}
	}, nil
}

// warnIfVolatile notes that a memory library forgets everything on exit.
func warnIfVolatile(command string) {
	if strings.EqualFold(config.GetStorageConfig().Type, "memory") {
		Logger.Warn("The memory library is discarded on exit; use --storage sqlite to keep sets",
			"command", command)
	}
}
