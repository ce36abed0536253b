// Package config provides configuration for the acquisition pipeline from
// pluggable sources: YAML files and SQLite databases.
package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStoreConfig() (*StoreData, error)
	GetFetchConfig() (*FetchData, error)
	GetServerConfig() (*ServerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Store  StoreData   `json:"store"`
	Fetch  FetchData   `json:"fetch,omitempty"`
	Server *ServerData `json:"server,omitempty"`
	Log    LogData     `json:"log,omitempty"`
}

// StoreData configures the remote file store holding the day files. Backend
// selects "ftp" (the default) or "s3".
type StoreData struct {
	Backend        string  `json:"backend,omitempty"`
	Host           string  `json:"host,omitempty"`
	Port           int     `json:"port,omitempty"`
	User           string  `json:"user,omitempty"`
	Password       string  `json:"password,omitempty"`
	Directory      string  `json:"directory,omitempty"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty"`
	S3             *S3Data `json:"s3,omitempty"`
}

// S3Data holds the object-store coordinates for the "s3" backend.
type S3Data struct {
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	Region          string `json:"region,omitempty"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix,omitempty"`
}

// FetchData configures the collector's acquisition schedule.
type FetchData struct {
	Interval string `json:"interval,omitempty"`
}

// ServerData configures the HTTP read surface.
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
}

// LogData configures optional log-file output.
type LogData struct {
	File string `json:"file,omitempty"`
}

// Timeout returns the configured store timeout as a duration, or zero when
// unset so callers fall back on their default.
func (s *StoreData) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// IntervalDuration parses the fetch interval. An unset interval returns
// zero with no error.
func (f *FetchData) IntervalDuration() (time.Duration, error) {
	if f.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch interval %q: %w", f.Interval, err)
	}
	return d, nil
}

// Validate checks the configuration for the pieces every deployment needs.
func (c *ConfigData) Validate() error {
	switch c.Store.Backend {
	case "", "ftp":
		if c.Store.Host == "" {
			return fmt.Errorf("store: ftp backend requires a host")
		}
	case "s3":
		if c.Store.S3 == nil || c.Store.S3.Bucket == "" {
			return fmt.Errorf("store: s3 backend requires a bucket")
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Store.Backend)
	}

	if _, err := c.Fetch.IntervalDuration(); err != nil {
		return err
	}
	return nil
}
