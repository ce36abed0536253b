// Package restserver exposes the day cache and the acquisition worker over
// HTTP: status, cached dates, aggregated ranges, CSV export, and a refresh
// trigger.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/fetcher"
	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	Server       http.Server
	cache        *daycache.Cache
	worker       *fetcher.Worker
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, sc config.ServerData, cache *daycache.Cache, worker *fetcher.Worker, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		cache:        cache,
		worker:       worker,
		logger:       logger,
	}

	if cache == nil {
		return nil, fmt.Errorf("no day cache was provided to the REST server")
	}
	if worker == nil {
		return nil, fmt.Errorf("no acquisition worker was provided to the REST server")
	}

	// If a listen address was not provided, listen on all interfaces
	if ctrl.serverConfig.ListenAddr == "" {
		logger.Info("server.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.serverConfig.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if ctrl.serverConfig.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		ctrl.serverConfig.Port = 8080
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverConfig.ListenAddr, ctrl.serverConfig.Port)
	ctrl.Server.Handler = handlers.CompressHandler(handlers.CombinedLoggingHandler(os.Stdout, router))

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/status", c.handlers.GetStatus)
	router.HandleFunc("/dates", c.handlers.GetDates)
	router.HandleFunc("/records", c.handlers.GetRecords)
	router.HandleFunc("/export", c.handlers.GetExport)

	// Refresh mutates worker state, so it only accepts POST.
	router.HandleFunc("/refresh", c.handlers.PostRefresh).Methods(http.MethodPost)

	return router
}
