package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/greenhollow/envfetch/pkg/migrate"
	_ "modernc.org/sqlite"
)

func main() {
	var (
		dbPath         = flag.String("db", "", "Path to SQLite database file")
		migrationDir   = flag.String("dir", "migrations/config", "Migration directory")
		migrationTable = flag.String("table", "schema_migrations", "Migration table name")
		command        = flag.String("command", "up", "Migration command: up, down, to, version, status")
		targetVersion  = flag.String("target", "", "Target version for the to command")
		helpFlag       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -db flag is required\n")
		showHelp()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	provider := migrate.NewFileProvider(*migrationDir, *migrationTable)
	migrator := migrate.NewMigrator(db, provider)

	if err := runCommand(migrator, provider, *command, *targetVersion); err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}
}

func runCommand(migrator *migrate.Migrator, provider *migrate.FileProvider, command, targetVersion string) error {
	switch command {
	case "up":
		if err := migrator.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := migrator.MigrateDown(); err != nil {
			return err
		}
	case "to":
		if targetVersion == "" {
			return fmt.Errorf("-target flag is required for the to command")
		}
		target, err := strconv.Atoi(targetVersion)
		if err != nil {
			return fmt.Errorf("invalid target version: %w", err)
		}
		if err := migrator.MigrateTo(target); err != nil {
			return err
		}
	case "version":
		version, err := migrator.GetCurrentVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Current version: %d\n", version)
		return nil
	case "status":
		return showStatus(migrator, provider)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}

	fmt.Println("Migration completed successfully")
	return nil
}

func showStatus(migrator *migrate.Migrator, provider *migrate.FileProvider) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := provider.GetMigrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}

	var pending []migrate.Migration
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration)
		}
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))
	if len(pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}
	return nil
}

func showHelp() {
	fmt.Println("Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -db string         Path to SQLite database file (required)")
	fmt.Println("  -dir string        Migration directory (default: migrations/config)")
	fmt.Println("  -table string      Migration table name (default: schema_migrations)")
	fmt.Println("  -command string    Migration command (default: up)")
	fmt.Println("  -target string     Target version for the to command")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back the most recent migration")
	fmt.Println("  to                 Migrate to a specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show applied and pending migrations")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -db config.db -command up")
	fmt.Println("  migrate -db config.db -command to -target 0")
	fmt.Println("  migrate -db config.db -command status")
}
