package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/greenhollow/envfetch/internal/constants"
	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/fetcher"
	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/internal/types"
	"github.com/greenhollow/envfetch/pkg/export"
	"github.com/greenhollow/envfetch/pkg/responseformat"
)

// queryDateLayout is the DD-MM-YYYY form accepted by the start and end query
// parameters.
const queryDateLayout = "02-01-2006"

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// StatusResponse is the body returned by the /status endpoint.
type StatusResponse struct {
	State         string  `json:"state"`
	Fraction      float64 `json:"fraction"`
	LastError     string  `json:"last_error,omitempty"`
	PrimaryDays   int     `json:"primary_days"`
	SecondaryDays int     `json:"secondary_days"`
	FirstDate     string  `json:"first_date,omitempty"`
	LastDate      string  `json:"last_date,omitempty"`
	Version       string  `json:"version"`
}

// GetStatus handles requests for the worker state and cache extent
func (h *Handlers) GetStatus(w http.ResponseWriter, req *http.Request) {
	state, fraction := h.controller.worker.Status()

	resp := StatusResponse{
		State:    state.String(),
		Fraction: fraction,
		Version:  constants.Version,
	}
	if err := h.controller.worker.LastError(); err != nil {
		resp.LastError = err.Error()
	}

	resp.PrimaryDays, resp.SecondaryDays = h.controller.cache.Counts()
	if first, last, ok := h.controller.cache.Bounds(); ok {
		resp.FirstDate = first.String()
		resp.LastDate = last.String()
	}

	headers := map[string]string{
		"Cache-Control": "no-cache, no-store, must-revalidate",
	}
	if err := h.formatter.WriteResponse(w, req, resp, headers); err != nil {
		log.Errorf("error encoding status response: %v", err)
	}
}

// GetDates handles requests for the sorted list of cached days
func (h *Handlers) GetDates(w http.ResponseWriter, req *http.Request) {
	dates := h.controller.cache.Dates()

	out := make([]string, 0, len(dates))
	for _, date := range dates {
		out = append(out, date.String())
	}

	if err := h.formatter.WriteResponse(w, req, out, nil); err != nil {
		log.Errorf("error encoding date list: %v", err)
	}
}

// GetRecords handles requests for the aggregated records of a date range
func (h *Handlers) GetRecords(w http.ResponseWriter, req *http.Request) {
	start, end, err := h.rangeFromQuery(req)
	if err != nil {
		writeRangeError(w, err)
		return
	}

	result, err := h.controller.cache.Aggregate(start, end)
	if err != nil {
		writeRangeError(w, err)
		return
	}

	headers := map[string]string{
		"Cache-Control": "no-cache, no-store, must-revalidate",
	}
	if err := h.formatter.WriteResponse(w, req, result, headers); err != nil {
		log.Errorf("error encoding range records: %v", err)
	}
}

// GetExport handles requests for the CSV rendition of a date range
func (h *Handlers) GetExport(w http.ResponseWriter, req *http.Request) {
	start, end, err := h.rangeFromQuery(req)
	if err != nil {
		writeRangeError(w, err)
		return
	}

	result, err := h.controller.cache.Aggregate(start, end)
	if err != nil {
		writeRangeError(w, err)
		return
	}

	filename := fmt.Sprintf("environmental_%s_%s.csv",
		start.Time().Format(queryDateLayout), end.Time().Format(queryDateLayout))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.Write(w, result.Primary, result.Secondary); err != nil {
		log.Errorf("error writing CSV export: %v", err)
	}
}

// PostRefresh starts an acquisition run unless one is already active
func (h *Handlers) PostRefresh(w http.ResponseWriter, req *http.Request) {
	events, err := h.controller.worker.Start()
	if err != nil {
		// ErrBusy is the only failure Start can report
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	// The handler returns immediately; the run's events are drained here so
	// the channel never backs up.
	go func() {
		for event := range events {
			if event.Type == fetcher.EventStatus {
				log.Infof("acquisition %s: %s", event.RunID, event.Message)
			}
		}
	}()

	w.WriteHeader(http.StatusAccepted)
	h.formatter.WriteResponse(w, req, map[string]string{
		"status": "acquisition started",
	}, nil)
}

// rangeFromQuery resolves the start and end query parameters, defaulting
// either missing end to the bounds of the cache.
func (h *Handlers) rangeFromQuery(req *http.Request) (types.DateKey, types.DateKey, error) {
	startParam := req.URL.Query().Get("start")
	endParam := req.URL.Query().Get("end")

	first, last, ok := h.controller.cache.Bounds()
	if !ok && (startParam == "" || endParam == "") {
		return types.DateKey{}, types.DateKey{}, fmt.Errorf("%w: nothing has been fetched yet", daycache.ErrEmptyResult)
	}

	start, end := first, last
	if startParam != "" {
		t, err := time.Parse(queryDateLayout, startParam)
		if err != nil {
			return types.DateKey{}, types.DateKey{}, fmt.Errorf("invalid start date %q, expected DD-MM-YYYY", startParam)
		}
		start = types.DateKeyFromTime(t)
	}
	if endParam != "" {
		t, err := time.Parse(queryDateLayout, endParam)
		if err != nil {
			return types.DateKey{}, types.DateKey{}, fmt.Errorf("invalid end date %q, expected DD-MM-YYYY", endParam)
		}
		end = types.DateKeyFromTime(t)
	}
	return start, end, nil
}

// writeRangeError maps range failures onto client status codes; a range
// request never produces a 500.
func writeRangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, daycache.ErrEmptyResult):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}
