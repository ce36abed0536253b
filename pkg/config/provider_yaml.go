package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig struct {
		Store  StoreYAML   `yaml:"store"`
		Fetch  FetchYAML   `yaml:"fetch,omitempty"`
		Server *ServerYAML `yaml:"server,omitempty"`
		Log    LogYAML     `yaml:"log,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Store: StoreData{
			Backend:        yamlConfig.Store.Backend,
			Host:           yamlConfig.Store.Host,
			Port:           yamlConfig.Store.Port,
			User:           yamlConfig.Store.User,
			Password:       yamlConfig.Store.Password,
			Directory:      yamlConfig.Store.Directory,
			TimeoutSeconds: yamlConfig.Store.TimeoutSeconds,
		},
		Fetch: FetchData{
			Interval: yamlConfig.Fetch.Interval,
		},
		Log: LogData{
			File: yamlConfig.Log.File,
		},
	}

	if yamlConfig.Store.S3 != nil {
		config.Store.S3 = &S3Data{
			AccessKeyID:     yamlConfig.Store.S3.AccessKeyID,
			SecretAccessKey: yamlConfig.Store.S3.SecretAccessKey,
			Endpoint:        yamlConfig.Store.S3.Endpoint,
			Region:          yamlConfig.Store.S3.Region,
			Bucket:          yamlConfig.Store.S3.Bucket,
			Prefix:          yamlConfig.Store.S3.Prefix,
		}
	}

	if yamlConfig.Server != nil {
		config.Server = &ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Port:       yamlConfig.Server.Port,
		}
	}

	y.config = config
	return config, nil
}

// GetStoreConfig returns the remote store configuration
func (y *YAMLProvider) GetStoreConfig() (*StoreData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Store, nil
}

// GetFetchConfig returns the acquisition schedule configuration
func (y *YAMLProvider) GetFetchConfig() (*FetchData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Fetch, nil
}

// GetServerConfig returns the HTTP server configuration
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Server, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags
type StoreYAML struct {
	Backend        string  `yaml:"backend,omitempty"`
	Host           string  `yaml:"host,omitempty"`
	Port           int     `yaml:"port,omitempty"`
	User           string  `yaml:"user,omitempty"`
	Password       string  `yaml:"password,omitempty"`
	Directory      string  `yaml:"directory,omitempty"`
	TimeoutSeconds int     `yaml:"timeout-seconds,omitempty"`
	S3             *S3YAML `yaml:"s3,omitempty"`
}

type S3YAML struct {
	AccessKeyID     string `yaml:"access-key-id,omitempty"`
	SecretAccessKey string `yaml:"secret-access-key,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix,omitempty"`
}

type FetchYAML struct {
	Interval string `yaml:"interval,omitempty"`
}

type ServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Port       int    `yaml:"port,omitempty"`
}

type LogYAML struct {
	File string `yaml:"file,omitempty"`
}
