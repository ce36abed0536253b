// Package app wires the configuration, the day cache, the acquisition worker,
// the fetch scheduler and the REST server into one runnable collector.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenhollow/envfetch/internal/catalog"
	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/fetcher"
	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/internal/restserver"
	"github.com/greenhollow/envfetch/pkg/config"
)

// defaultFetchInterval is used when the configuration does not set one.
const defaultFetchInterval = 15 * time.Minute

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	cache          *daycache.Cache
	worker         *fetcher.Worker
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// LoadProvider selects the configuration backend named by the -config-backend
// flag and points it at the given file.
func LoadProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}

// ApplyEnvOverrides lets store credentials come from the environment or a
// .env file instead of the checked-in configuration.
func ApplyEnvOverrides(store *config.StoreData) {
	// Ignore error if the .env file doesn't exist (expected in production)
	_ = godotenv.Load()

	if v := os.Getenv("ENVFETCH_STORE_USER"); v != "" {
		store.User = v
	}
	if v := os.Getenv("ENVFETCH_STORE_PASSWORD"); v != "" {
		store.Password = v
	}
	if store.S3 != nil {
		if v := os.Getenv("ENVFETCH_S3_ACCESS_KEY_ID"); v != "" {
			store.S3.AccessKeyID = v
		}
		if v := os.Getenv("ENVFETCH_S3_SECRET_ACCESS_KEY"); v != "" {
			store.S3.SecretAccessKey = v
		}
	}
}

// NewDialer builds the catalog dialer described by the store configuration.
func NewDialer(store config.StoreData) (catalog.Dialer, error) {
	switch store.Backend {
	case "", "ftp":
		return &catalog.FTPDialer{
			Host:      store.Host,
			Port:      store.Port,
			User:      store.User,
			Password:  store.Password,
			Directory: store.Directory,
			Timeout:   store.Timeout(),
		}, nil
	case "s3":
		if store.S3 == nil {
			return nil, fmt.Errorf("store backend is s3 but no s3 section is configured")
		}
		return &catalog.S3Dialer{
			AccessKeyID:     store.S3.AccessKeyID,
			SecretAccessKey: store.S3.SecretAccessKey,
			Endpoint:        store.S3.Endpoint,
			Region:          store.S3.Region,
			Bucket:          store.S3.Bucket,
			Prefix:          store.S3.Prefix,
			Timeout:         store.Timeout(),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s. Use 'ftp' or 's3'", store.Backend)
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %v", err)
	}
	if err := cfgData.Validate(); err != nil {
		return err
	}

	ApplyEnvOverrides(&cfgData.Store)

	dialer, err := NewDialer(cfgData.Store)
	if err != nil {
		return err
	}

	a.cache = daycache.New()
	a.worker = fetcher.New(dialer, a.cache)

	// Initialize the REST server controller
	var serverConfig config.ServerData
	if cfgData.Server != nil {
		serverConfig = *cfgData.Server
	}
	controller, err := restserver.NewController(ctx, &wg, serverConfig, a.cache, a.worker, a.logger)
	if err != nil {
		return err
	}
	if err := controller.StartController(); err != nil {
		return err
	}

	// Initialize the acquisition schedule
	interval, err := cfgData.Fetch.IntervalDuration()
	if err != nil {
		return err
	}
	if interval <= 0 {
		a.logger.Infof("fetch.interval not provided; defaulting to %v", defaultFetchInterval)
		interval = defaultFetchInterval
	}

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(interval).Do(a.triggerRun); err != nil {
		return fmt.Errorf("error scheduling acquisition job: %w", err)
	}
	scheduler.StartAsync()

	// The first acquisition happens right away rather than one interval out
	go a.triggerRun()

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Stop scheduling new runs, then shut everything down
	scheduler.Stop()
	cancel()

	// A run in flight has no cancellation; wait for its terminal event
	a.waitForIdleWorker()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// triggerRun starts one acquisition run and logs its events until the
// terminal one. A run still in flight from the previous tick makes the
// worker reject this one; the tick is skipped, never queued.
func (a *App) triggerRun() {
	events, err := a.worker.Start()
	if err != nil {
		a.logger.Warnf("skipping scheduled acquisition: %v", err)
		return
	}

	for event := range events {
		if event.Type == fetcher.EventStatus {
			a.logger.Infof("acquisition %s: %s", event.RunID, event.Message)
		}
	}
}

// waitForIdleWorker blocks until no acquisition run is in flight.
func (a *App) waitForIdleWorker() {
	for {
		switch state, _ := a.worker.Status(); state {
		case fetcher.StateConnecting, fetcher.StateListing, fetcher.StateDownloading:
			time.Sleep(100 * time.Millisecond)
		default:
			return
		}
	}
}
