package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/pdfsum/cli/config"
	"github.com/pdfsum/cli/internal/api"
	"github.com/pdfsum/cli/internal/lifecycle"
	"github.com/pdfsum/cli/internal/logging"
	"github.com/pdfsum/cli/internal/session"
	"github.com/pdfsum/cli/internal/tui"
)

const usage = `Usage: pdfsum [flags] [command]

Commands:
  (none)            start the interactive dashboard
  list              list documents and their status
  upload <file>     upload a PDF for processing
  summarize <id>    generate the summary of an extracted document
  show <id>         print the summary of a completed document
  login [token]     store an access token (reads stdin when omitted)
  logout            remove the stored token

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfsum", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	var (
		configPath = fs.String("config", config.Path(), "Path to the config file")
		baseURL    = fs.String("api", "", "Override the API base URL")
		verbose    = fs.Bool("v", false, "Log at debug level")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Load configuration
	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	level := cfg.LogLevel()
	if *verbose {
		level = zerolog.DebugLevel
	}

	cmd := fs.Arg(0)
	rest := fs.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}

	switch cmd {
	case "login":
		return runLogin(cfg, rest, stdin, stdout, stderr)
	case "logout":
		return runLogout(cfg, stdout, stderr)
	case "", "tui":
		return runTUI(ctx, cfg, level, stderr)
	case "list", "upload", "summarize", "show":
		logger := logging.Console(stderr, level)
		orch := newOrchestrator(cfg, &logger)
		defer orch.Close()
		return runHeadless(ctx, orch, cmd, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}
}

func newSession(cfg *config.Config) session.Session {
	if cfg.Auth.Token != "" {
		return session.NewStatic(cfg.Auth.Token)
	}
	return session.NewFileSession(cfg.Auth.TokenFile)
}

func newOrchestrator(cfg *config.Config, logger *zerolog.Logger) *lifecycle.Orchestrator {
	client := api.NewClient(api.Options{
		BaseURL: cfg.API.BaseURL,
		Session: newSession(cfg),
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	})
	return lifecycle.New(lifecycle.Options{
		Transport:          client,
		UploadRefreshDelay: cfg.Refresh.UploadDelay,
		Logger:             logger,
	})
}

func runTUI(ctx context.Context, cfg *config.Config, level zerolog.Level, stderr io.Writer) int {
	// the dashboard owns the terminal, so logs go to a file
	logger, closer, err := logging.File(cfg.Log.File, level)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening log: %v\n", err)
		return 1
	}
	defer closer.Close()

	logger.Info().Str("api", cfg.API.BaseURL).Msg("starting dashboard")
	orch := newOrchestrator(cfg, &logger)
	if err := tui.Run(ctx, orch, cfg, newSession(cfg)); err != nil {
		fmt.Fprintf(stderr, "Error running app: %v\n", err)
		return 1
	}
	return 0
}
