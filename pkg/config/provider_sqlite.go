package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	store, err := s.GetStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load store config: %w", err)
	}
	config.Store = *store

	fetch, err := s.GetFetchConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load fetch config: %w", err)
	}
	config.Fetch = *fetch

	server, err := s.GetServerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = server

	logFile, err := s.getLogFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}
	config.Log = LogData{File: logFile}

	return config, nil
}

// GetStoreConfig returns the remote store configuration from the database
func (s *SQLiteProvider) GetStoreConfig() (*StoreData, error) {
	query := `
		SELECT backend, host, port, user, password, directory, timeout_seconds,
		       s3_access_key_id, s3_secret_access_key, s3_endpoint, s3_region,
		       s3_bucket, s3_prefix
		FROM store_config
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var backend, host, user, password, directory sql.NullString
	var port, timeoutSeconds sql.NullInt64
	var s3KeyID, s3Secret, s3Endpoint, s3Region, s3Bucket, s3Prefix sql.NullString

	err := s.db.QueryRow(query).Scan(
		&backend, &host, &port, &user, &password, &directory, &timeoutSeconds,
		&s3KeyID, &s3Secret, &s3Endpoint, &s3Region, &s3Bucket, &s3Prefix,
	)
	if err == sql.ErrNoRows {
		return &StoreData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query store config: %w", err)
	}

	store := &StoreData{
		Backend:   backend.String,
		Host:      host.String,
		User:      user.String,
		Password:  password.String,
		Directory: directory.String,
	}
	if port.Valid {
		store.Port = int(port.Int64)
	}
	if timeoutSeconds.Valid {
		store.TimeoutSeconds = int(timeoutSeconds.Int64)
	}
	if s3Bucket.Valid && s3Bucket.String != "" {
		store.S3 = &S3Data{
			AccessKeyID:     s3KeyID.String,
			SecretAccessKey: s3Secret.String,
			Endpoint:        s3Endpoint.String,
			Region:          s3Region.String,
			Bucket:          s3Bucket.String,
			Prefix:          s3Prefix.String,
		}
	}

	return store, nil
}

// GetFetchConfig returns the acquisition schedule configuration
func (s *SQLiteProvider) GetFetchConfig() (*FetchData, error) {
	query := `
		SELECT interval
		FROM fetch_config
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var interval sql.NullString
	err := s.db.QueryRow(query).Scan(&interval)
	if err == sql.ErrNoRows {
		return &FetchData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch config: %w", err)
	}

	return &FetchData{Interval: interval.String}, nil
}

// GetServerConfig returns the HTTP server configuration, or nil when the
// deployment has no server section
func (s *SQLiteProvider) GetServerConfig() (*ServerData, error) {
	query := `
		SELECT listen_addr, port
		FROM server_config
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var listenAddr sql.NullString
	var port sql.NullInt64

	err := s.db.QueryRow(query).Scan(&listenAddr, &port)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}

	server := &ServerData{ListenAddr: listenAddr.String}
	if port.Valid {
		server.Port = int(port.Int64)
	}
	return server, nil
}

func (s *SQLiteProvider) getLogFile() (string, error) {
	query := `
		SELECT file
		FROM log_config
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var file sql.NullString
	err := s.db.QueryRow(query).Scan(&file)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query log config: %w", err)
	}
	return file.String, nil
}

// SaveConfig writes the complete configuration to the database, replacing
// any existing default configuration.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO configs (name) VALUES ('default')`); err != nil {
		return fmt.Errorf("failed to create default config: %w", err)
	}

	var configID int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&configID); err != nil {
		return fmt.Errorf("failed to look up default config: %w", err)
	}

	for _, table := range []string{"store_config", "fetch_config", "server_config", "log_config"} {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE config_id = ?", table), configID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	store := config.Store
	var s3KeyID, s3Secret, s3Endpoint, s3Region, s3Bucket, s3Prefix string
	if store.S3 != nil {
		s3KeyID = store.S3.AccessKeyID
		s3Secret = store.S3.SecretAccessKey
		s3Endpoint = store.S3.Endpoint
		s3Region = store.S3.Region
		s3Bucket = store.S3.Bucket
		s3Prefix = store.S3.Prefix
	}
	if _, err := tx.Exec(`
		INSERT INTO store_config (config_id, backend, host, port, user, password, directory, timeout_seconds,
		                          s3_access_key_id, s3_secret_access_key, s3_endpoint, s3_region, s3_bucket, s3_prefix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		configID, store.Backend, store.Host, store.Port, store.User, store.Password,
		store.Directory, store.TimeoutSeconds, s3KeyID, s3Secret, s3Endpoint, s3Region,
		s3Bucket, s3Prefix,
	); err != nil {
		return fmt.Errorf("failed to save store config: %w", err)
	}

	if config.Fetch.Interval != "" {
		if _, err := tx.Exec(`INSERT INTO fetch_config (config_id, interval) VALUES (?, ?)`,
			configID, config.Fetch.Interval); err != nil {
			return fmt.Errorf("failed to save fetch config: %w", err)
		}
	}

	if config.Server != nil {
		if _, err := tx.Exec(`INSERT INTO server_config (config_id, listen_addr, port) VALUES (?, ?, ?)`,
			configID, config.Server.ListenAddr, config.Server.Port); err != nil {
			return fmt.Errorf("failed to save server config: %w", err)
		}
	}

	if config.Log.File != "" {
		if _, err := tx.Exec(`INSERT INTO log_config (config_id, file) VALUES (?, ?)`,
			configID, config.Log.File); err != nil {
			return fmt.Errorf("failed to save log config: %w", err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite configurations can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
