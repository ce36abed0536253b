package migrate

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Migration filenames carry a numeric version and a direction, for example
// 0001_initial_schema.up.sql and 0001_initial_schema.down.sql.
var (
	upRegex   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downRegex = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

// FileProvider loads migrations from a directory of SQL files.
type FileProvider struct {
	dir            string
	migrationTable string
}

// NewFileProvider creates a file-based migration provider. An empty table
// name selects "schema_migrations".
func NewFileProvider(dir string, migrationTable string) *FileProvider {
	if migrationTable == "" {
		migrationTable = "schema_migrations"
	}
	return &FileProvider{
		dir:            dir,
		migrationTable: migrationTable,
	}
}

// GetMigrations loads all migrations from the directory, pairing up and down
// files that share a version.
func (fp *FileProvider) GetMigrations() ([]Migration, error) {
	byVersion := make(map[int]*Migration)

	err := filepath.WalkDir(fp.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if matches := upRegex.FindStringSubmatch(d.Name()); matches != nil {
			return addMigrationFile(byVersion, path, matches, true)
		}
		if matches := downRegex.FindStringSubmatch(d.Name()); matches != nil {
			return addMigrationFile(byVersion, path, matches, false)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", fp.dir, err)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, migration := range byVersion {
		migrations = append(migrations, *migration)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func addMigrationFile(byVersion map[int]*Migration, path string, matches []string, up bool) error {
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return fmt.Errorf("invalid version number in file %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", path, err)
	}

	if byVersion[version] == nil {
		byVersion[version] = &Migration{
			Version: version,
			Name:    strings.ReplaceAll(matches[2], "_", " "),
		}
	}
	if up {
		byVersion[version].Up = string(content)
	} else {
		byVersion[version].Down = string(content)
	}
	return nil
}

// CreateMigrationTable creates the migration tracking table.
func (fp *FileProvider) CreateMigrationTable(db *sql.DB) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, fp.migrationTable)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// GetCurrentVersion returns the highest applied migration version.
func (fp *FileProvider) GetCurrentVersion(db *sql.DB) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", fp.migrationTable)

	var version int
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion records the applied migration version, discarding any record of
// versions above it. Version 0 is the fully rolled back state.
func (fp *FileProvider) SetVersion(db DB, version int) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE version > ?", fp.migrationTable)
	if _, err := db.Exec(query, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	if version == 0 {
		return nil
	}

	query = fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (version, applied_at)
		VALUES (?, CURRENT_TIMESTAMP)
	`, fp.migrationTable)
	if _, err := db.Exec(query, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}
