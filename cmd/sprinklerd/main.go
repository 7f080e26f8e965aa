// Command sprinklerd runs the sprinkler controller.
//
// It provides:
//   - the tick-driven zone scheduler with recurring cycles and holds
//   - an HTTP API with a server-sent-events status stream
//   - mDNS advertisement of the API
//   - a JSON state file, a CBOR event log and a SQLite run history
//   - an optional interactive console
//
// Usage:
//
//	sprinklerd [flags]
//
// Flags:
//
//	-config string     YAML configuration file
//	-zones int         Number of zones, 1-8 (default 7)
//	-logic string      Output logic: normal, inverted (default "normal")
//	-port int          HTTP port (default 8080)
//	-state string      State file path
//	-events string     Event log path
//	-db string         Run history database path
//	-tz string         Time zone, e.g. Europe/Berlin (default local)
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-no-mdns           Disable mDNS advertisement
//	-interactive       Start the interactive console
//
// Examples:
//
//	# Four zones with inverted relay boards
//	sprinklerd -zones 4 -logic inverted
//
//	# Use a config file and the console
//	sprinklerd -config /etc/sprinkler/sprinklerd.yaml -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/sprinkler-go/sprinkler-go/pkg/actuator"
	"github.com/sprinkler-go/sprinkler-go/pkg/clock"
	"github.com/sprinkler-go/sprinkler-go/pkg/controller"
	"github.com/sprinkler-go/sprinkler-go/pkg/discovery"
	"github.com/sprinkler-go/sprinkler-go/pkg/history"
	"github.com/sprinkler-go/sprinkler-go/pkg/log"
	"github.com/sprinkler-go/sprinkler-go/pkg/persistence"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := DefaultConfig()

	fs := flag.NewFlagSet("sprinklerd", flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file")
	zones := fs.Int("zones", 0, "Number of zones, 1-8")
	logic := fs.String("logic", "", "Output logic: normal, inverted")
	port := fs.Int("port", 0, "HTTP port")
	state := fs.String("state", "", "State file path")
	events := fs.String("events", "", "Event log path")
	db := fs.String("db", "", "Run history database path")
	tz := fs.String("tz", "", "Time zone, e.g. Europe/Berlin")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	noMDNS := fs.Bool("no-mdns", false, "Disable mDNS advertisement")
	interactive := fs.Bool("interactive", false, "Start the interactive console")
	showVersion := fs.Bool("version", false, "Show version information")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("sprinklerd %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	if cfg.ConfigFile != "" {
		if err := LoadConfigFile(cfg.ConfigFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	// Flags override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "zones":
			cfg.Zones = *zones
		case "logic":
			cfg.Logic = *logic
		case "port":
			cfg.Port = *port
		case "state":
			cfg.StateFile = *state
		case "events":
			cfg.EventLog = *events
		case "db":
			cfg.HistoryDB = *db
		case "tz":
			cfg.Timezone = *tz
		case "log-level":
			cfg.LogLevel = *logLevel
		case "no-mdns":
			cfg.NoMDNS = *noMDNS
		case "interactive":
			cfg.Interactive = *interactive
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, cancel, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cancel context.CancelFunc, cfg *Config) error {
	level, _ := parseLevel(cfg.LogLevel)
	loc, _ := cfg.Location()
	l, _ := actuator.ParseLogic(cfg.Logic)

	var console *Console

	osFs := afero.NewOsFs()

	eventLog, err := log.NewFileLogger(osFs, cfg.EventLog)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer eventLog.Close()

	runs, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer runs.Close()

	ctrlCfg := controller.Config{
		ZoneCount:      cfg.Zones,
		InterZoneDelay: cfg.InterZoneDelay,
		Adjustment:     cfg.Adjustment,
		Actuator:       actuator.NewRegister(l),
		Clock:          clock.System{Location: loc},
		Store:          persistence.NewStateStore(osFs, cfg.StateFile),
		History:        runs,
	}

	// The console needs the runner, and the logger must write through the
	// console, so the log output is switched once the console exists.
	logOut := &switchWriter{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctrlCfg.Logger = logger
	ctrlCfg.EventLog = log.NewMultiLogger(eventLog, log.NewSlogAdapter(logger).WithLevel(slog.LevelDebug))

	ctrl, err := controller.New(ctrlCfg)
	if err != nil {
		return err
	}
	if err := ctrl.Load(); err != nil {
		return err
	}

	runner, err := controller.NewRunner(ctrl, controller.RunnerConfig{
		Interval: cfg.TickInterval,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if cfg.Interactive {
		console, err = NewConsole(runner, eventLog, runs)
		if err != nil {
			return err
		}
		logOut.set(console.Stdout())
	}

	if cfg.HistoryDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -cfg.HistoryDays)
		if n, err := runs.Prune(cutoff); err != nil {
			logger.Warn("failed to prune run history", "error", err)
		} else if n > 0 {
			logger.Info("pruned run history", "runs", n)
		}
	}

	host, _ := os.Hostname()
	srv := NewServer(ServerConfig{Port: cfg.Port, Hostname: host, Version: Version}, runner, eventLog, runs)

	var adv discovery.Advertiser = discovery.NoopAdvertiser{}
	if !cfg.NoMDNS {
		adv = discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	}
	info := &discovery.ServiceInfo{
		Instance: cfg.InstanceName(),
		Port:     uint16(cfg.Port),
		Zones:    cfg.Zones,
		Name:     cfg.Name,
		Path:     "/",
	}
	if err := adv.Advertise(ctx, info); err != nil {
		logger.Warn("mDNS advertisement failed", "error", err)
	} else {
		defer adv.Stop()
	}

	errCh := make(chan error, 2)
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("HTTP API listening", "port", cfg.Port, "zones", cfg.Zones, "logic", l)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()

	if console != nil {
		go console.Run(ctx, cancel)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}

	// Leave every valve closed.
	_ = runner.Exec(func(c *controller.Controller) error {
		return c.ControlScheduler(controller.ActionCancel)
	})

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// switchWriter is an io.Writer whose target can be replaced.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}
