package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/stocker/internal/config"
	"github.com/hpungsan/stocker/internal/db"
	"github.com/hpungsan/stocker/internal/gallery"
	"github.com/hpungsan/stocker/internal/mcp"
	"github.com/hpungsan/stocker/internal/notify"
	"github.com/hpungsan/stocker/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "edit": true, "get": true, "list": true,
	"delete": true, "favorite": true, "tags": true, "image": true,
	"export": true, "import": true, "theme": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// Global flags and --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "--no-color" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _             _
  / __| |_ ___  __ _| |_____ _ _
  \__ \  _/ _ \/ _| / / -_) '_|
  |___/\__\___/\__|_\_\___|_|

  Prompt gallery with images

  Usage: stocker <command> [options]
         stocker serve      open the gallery in a browser
         stocker --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".stocker")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries JSON output or the MCP stream.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools entries", "tools", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	s := store.New(database, store.Options{
		DisableImages: cfg.DisableImages,
		Logger:        logger,
	})

	env := &appEnv{
		store:   s,
		cfg:     cfg,
		exports: filepath.Join(baseDir, "exports"),
		logger:  logger,
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(env)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'stocker --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	g := gallery.New(s, gallery.Options{
		Config:     cfg,
		Notifier:   notify.NewLog(logger),
		Logger:     logger,
		ExportsDir: env.exports,
	})
	if err := mcp.Run(g, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
