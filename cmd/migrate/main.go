package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/revitview/internal/config"
	"github.com/JaimeStill/revitview/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "REVITVIEW_DB_DSN"

type options struct {
	up       bool
	down     bool
	steps    int
	version  bool
	force    int
	forceSet bool
}

func main() {
	var (
		dsn  = flag.String("dsn", "", "Database connection string (defaults to $REVITVIEW_DB_DSN, then REVITVIEW_DB_* settings)")
		opts options
	)
	flag.BoolVar(&opts.up, "up", false, "Run all up migrations")
	flag.BoolVar(&opts.down, "down", false, "Run all down migrations")
	flag.IntVar(&opts.steps, "steps", 0, "Number of migrations (positive=up, negative=down)")
	flag.BoolVar(&opts.version, "version", false, "Print current migration version")
	flag.IntVar(&opts.force, "force", -1, "Force set version (use with caution)")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})

	if !opts.any() {
		fmt.Println("usage: migrate [-dsn <connection-string>] -up|-down|-steps N|-version|-force N")
		flag.PrintDefaults()
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatalf("failed to resolve database connection: %v", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("failed to create migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	msg, err := run(m, opts)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(msg)
}

func (o options) any() bool {
	return o.up || o.down || o.steps != 0 || o.version || o.forceSet
}

// resolveDSN prefers an explicit flag, then REVITVIEW_DB_DSN, then the
// service's own database settings.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	var cfg database.Config
	if err := cfg.Finalize(config.DatabaseEnv); err != nil {
		return "", err
	}
	return cfg.URL(), nil
}

func run(m *migrate.Migrate, opts options) (string, error) {
	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if err != nil {
			return "", fmt.Errorf("failed to get version: %w", err)
		}
		return fmt.Sprintf("version: %d, dirty: %v", v, dirty), nil
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return "", fmt.Errorf("failed to force version: %w", err)
		}
		return fmt.Sprintf("forced to version %d", opts.force), nil
	case opts.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return "", fmt.Errorf("failed to run up migrations: %w", err)
		}
		return "migrations applied successfully", nil
	case opts.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return "", fmt.Errorf("failed to run down migrations: %w", err)
		}
		return "migrations reverted successfully", nil
	default:
		if err := ignoreNoChange(m.Steps(opts.steps)); err != nil {
			return "", fmt.Errorf("failed to run migrations: %w", err)
		}
		return fmt.Sprintf("applied %d migration steps", opts.steps), nil
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
