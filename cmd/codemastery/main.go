package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/felixgeelhaar/codemastery/internal/api"
	"github.com/felixgeelhaar/codemastery/internal/config"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// stdout carries MCP traffic, so logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "migrate":
		err = cmdMigrate()
	case "seed":
		err = cmdSeed(os.Args[2:])
	case "summary":
		err = cmdSummary(os.Args[2:])
	case "events":
		err = cmdEvents(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("codemastery %s\n", api.Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`CodeMastery - courses, exercises and progress tracking

Usage:
  codemastery <command> [arguments]

Database Commands:
  migrate             Apply pending schema migrations
  seed <file.yaml>    Create or update courses, modules and lessons from a file
  summary <user_id>   Show a user's module completion

Integration Commands:
  mcp                 Start MCP server on stdio
  events [pattern]    Print events from the event bus (default pattern: #)

Other:
  help                Show this help message
  version             Show version information

Configuration is read from the environment and an optional .env file
(DATABASE_DRIVER, DATABASE_URL, RABBITMQ_URL, EVENTS_EXCHANGE).

Examples:
  codemastery migrate
  codemastery seed catalog.yaml
  codemastery events "progress.*"`)
}

// openDatabase connects using the configured driver and applies migrations
func openDatabase(ctx context.Context) (*storage.DB, *config.Config, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	dialect, err := storage.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, dialect, cfg.DatabaseURL, storage.Options{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func cmdMigrate() error {
	db, _, err := openDatabase(context.Background())
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Printf("Database is at schema version %d\n", version)
	return nil
}
