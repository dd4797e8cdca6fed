package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/pixel-agents/pixel-agents/internal/app"
	"github.com/pixel-agents/pixel-agents/internal/config"
	"github.com/pixel-agents/pixel-agents/internal/instance"
	"github.com/pixel-agents/pixel-agents/internal/monitor"
	"github.com/pixel-agents/pixel-agents/internal/session"
)

type options struct {
	configPath  string
	claudeDir   string
	pidFile     string
	headless    bool
	jsonOut     bool
	sessionHook bool
	noWatch     bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	flagSet := pflag.NewFlagSet("pixel-agents", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML or TOML config file")
	flagSet.StringVar(&opts.claudeDir, "claude-dir", "", "Claude data directory (default $HOME/.claude)")
	flagSet.StringVar(&opts.pidFile, "pid-file", "", "single-instance PID file")
	flagSet.BoolVar(&opts.headless, "headless", false, "log agent activity instead of drawing the dashboard")
	flagSet.BoolVar(&opts.jsonOut, "json", false, "with --headless, print a JSON snapshot on every change")
	flagSet.BoolVar(&opts.sessionHook, "session-hook", false, "launched from a session hook: exit quietly if already running")
	flagSet.BoolVar(&opts.noWatch, "no-watch", false, "disable filesystem notifications and rely on polling only")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return fmt.Errorf("unexpected argument: %s", extra[0])
	}

	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return err
	}
	if opts.claudeDir != "" {
		cfg.ClaudeDir = opts.claudeDir
	}
	if opts.pidFile != "" {
		cfg.PIDFile = opts.pidFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if opts.sessionHook {
		if _, running := instance.Running(cfg.PIDFile); running {
			return nil
		}
	}

	closeLog, err := setupLogging(cfg, opts.headless)
	if err != nil {
		return err
	}
	defer closeLog()

	lock, err := instance.Acquire(cfg.PIDFile)
	if err != nil {
		if opts.sessionHook && errors.Is(err, instance.ErrAlreadyRunning) {
			return nil
		}
		return err
	}
	defer lock.Release()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mon := monitor.NewMonitor(cfg, session.NewStore())

	var wake <-chan struct{}
	if !opts.noWatch {
		watcher, err := monitor.NewDirWatcher(cfg.ProjectsDir(), cfg.LogExt)
		if err != nil {
			log.Printf("[watch] Disabled: %v", err)
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
			wake = watcher.Wake()
		}
	}

	if opts.headless {
		mon.Start(ctx, wake, headlessReporter(mon.Store(), opts.jsonOut, os.Stdout))
		return nil
	}

	p := tea.NewProgram(app.New(mon, cfg.Monitor.TickRate, wake), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// setupLogging sends the standard logger to stderr in headless mode. The
// dashboard owns the terminal, so there logs go to the configured file or
// nowhere.
func setupLogging(cfg *config.Config, headless bool) (func(), error) {
	if headless {
		log.SetOutput(os.Stderr)
		return func() {}, nil
	}
	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "pixel-agents")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { f.Close() }, nil
}

// headlessReporter logs per-agent changes, or writes the whole collection as
// one JSON line to out when jsonOut is set.
func headlessReporter(store *session.Store, jsonOut bool, out io.Writer) func(monitor.TickReport) {
	enc := json.NewEncoder(out)
	return func(r monitor.TickReport) {
		if !r.Changed() {
			return
		}
		if jsonOut {
			if err := enc.Encode(store.GetAll()); err != nil {
				log.Printf("[headless] Encode snapshot: %v", err)
			}
			return
		}
		for _, id := range r.Updated {
			a, ok := store.Get(id)
			if !ok {
				continue
			}
			tool, _ := a.CurrentToolDisplay()
			log.Printf("[agent %d] %s %s tools=%d phase=%s tool=%q",
				a.ID, a.Status.Symbol(), a.Status, len(a.ActiveTools), a.Phase, tool)
		}
	}
}
