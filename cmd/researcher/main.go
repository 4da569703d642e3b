package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/researcher/pkg/engine"
	"github.com/germanamz/researcher/pkg/tools/mcpserver"
)

const version = "0.1.0"

// options holds the flags shared by every mode.
type options struct {
	configPath string
	envFile    string
	system     string
	logFile    string
	verbose    bool
}

func registerFlags(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.configPath, "config", "researcher.yaml", "path to configuration file (built-in defaults if missing)")
	fs.StringVar(&o.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&o.system, "system", "", "system prompt (overrides system_prompt in config)")
	fs.StringVar(&o.logFile, "log-file", "", "write logs to this file (default: discard)")
	fs.BoolVar(&o.verbose, "verbose", false, "log at debug level")
}

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "ask":
			var o options
			askCmd := flag.NewFlagSet("ask", flag.ExitOnError)
			askCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: researcher ask [flags] <prompt>\n\nRun one turn and print the answer.\n\nFlags:\n")
				askCmd.PrintDefaults()
			}
			registerFlags(askCmd, &o)
			_ = askCmd.Parse(os.Args[2:])

			exit(runAsk(o, strings.Join(askCmd.Args(), " "), os.Stdout))
			return
		case "mcp":
			var o options
			mcpCmd := flag.NewFlagSet("mcp", flag.ExitOnError)
			mcpCmd.Usage = func() {
				fmt.Fprintf(os.Stderr, "Usage: researcher mcp [flags]\n\nServe the research and save tools over MCP on stdio.\n\nFlags:\n")
				mcpCmd.PrintDefaults()
			}
			registerFlags(mcpCmd, &o)
			_ = mcpCmd.Parse(os.Args[2:])

			exit(runMCP(o))
			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: researcher [flags]\n       researcher <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  ask     Run one turn and print the answer\n  mcp     Serve the tools over MCP on stdio\n")
	}

	var o options
	registerFlags(flag.CommandLine, &o)
	flag.Parse()

	exit(runTUI(o))
}

func exit(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the environment and config and builds the engine. The returned
// cleanup closes the engine and the log file.
func setup(o options) (*engine.Engine, func(), error) {
	if err := loadDotEnv(o.envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := engine.LoadConfigOrDefault(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.system != "" {
		cfg.SystemPrompt = o.system
	}

	log, closeLog, err := newLogger(o.logFile, o.verbose)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		closeLog()
		return nil, nil, err
	}

	return eng, func() {
		_ = eng.Close()
		closeLog()
	}, nil
}

// newLogger writes to path when set. The terminal belongs to the TUI, so
// without a path logs are discarded.
func newLogger(path string, verbose bool) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path is a CLI flag
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, func() { _ = f.Close() }, nil
}

func runTUI(o options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, cleanup, err := setup(o)
	if err != nil {
		return err
	}
	defer cleanup()

	sess := eng.StartSession("")

	p := tea.NewProgram(newAppModel(ctx, sess, eng))

	// Send the program reference so the model can start the bridge goroutine.
	go func() {
		p.Send(programReadyMsg{program: p})
	}()

	_, err = p.Run()
	return err
}

func runAsk(o options, prompt string, out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, cleanup, err := setup(o)
	if err != nil {
		return err
	}
	defer cleanup()

	answer, err := eng.StartSession("").Submit(ctx, prompt)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, answer)
	return err
}

func runMCP(o options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, cleanup, err := setup(o)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcpserver.New("researcher", version)
	srv.Register(eng.Tools())

	return srv.Serve(ctx, os.Stdin, os.Stdout)
}
