package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/greenhollow/envfetch/internal/app"
	"github.com/greenhollow/envfetch/internal/constants"
	"github.com/greenhollow/envfetch/internal/daycache"
	"github.com/greenhollow/envfetch/internal/fetcher"
	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/internal/types"
	"github.com/greenhollow/envfetch/pkg/export"
)

// flagDateLayout is the DD-MM-YYYY form accepted by -start and -end.
const flagDateLayout = "02-01-2006"

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	startDate := flag.String("start", "", "Start of the export range (DD-MM-YYYY, default: first fetched day)")
	endDate := flag.String("end", "", "End of the export range (DD-MM-YYYY, default: last fetched day)")
	outFile := flag.String("o", "", "Write the CSV export to this file (default: stdout)")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("envfetch %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, err := app.LoadProvider(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		log.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %v", err)
		os.Exit(1)
	}
	if err := cfgData.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}
	app.ApplyEnvOverrides(&cfgData.Store)

	dialer, err := app.NewDialer(cfgData.Store)
	if err != nil {
		log.Errorf("Failed to build store client: %v", err)
		os.Exit(1)
	}

	cache := daycache.New()
	result := fetchAll(fetcher.New(dialer, cache))

	start, end, err := exportRange(cache, *startDate, *endDate)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	ranged, err := cache.Aggregate(start, end)
	if err != nil {
		log.Errorf("Failed to aggregate %s..%s: %v", start, end, err)
		os.Exit(1)
	}

	if err := writeExport(*outFile, ranged); err != nil {
		log.Errorf("Failed to write export: %v", err)
		os.Exit(1)
	}

	s := ranged.Summary()
	log.Infof("exported %d records from %d fetched days; temperature %.1f..%.1f (mean %.1f)",
		s.Records, len(result.Dates), s.Temperature.Min, s.Temperature.Max, s.Temperature.Mean)
}

// fetchAll runs one acquisition to completion, logging its events, and exits
// the process if the run fails.
func fetchAll(worker *fetcher.Worker) *types.Snapshot {
	events, err := worker.Start()
	if err != nil {
		log.Errorf("Failed to start acquisition: %v", err)
		os.Exit(1)
	}

	for event := range events {
		switch event.Type {
		case fetcher.EventStatus:
			log.Info(event.Message)
		case fetcher.EventProgress:
			log.Debugf("progress %.0f%%", event.Fraction*100)
		case fetcher.EventFailed:
			log.Errorf("Acquisition failed: %v", event.Err)
			os.Exit(1)
		case fetcher.EventCompleted:
			return event.Result
		}
	}

	log.Errorf("acquisition ended without a result")
	os.Exit(1)
	return nil
}

// exportRange resolves the -start and -end flags, defaulting either end to
// the bounds of what was fetched.
func exportRange(cache *daycache.Cache, startFlag, endFlag string) (types.DateKey, types.DateKey, error) {
	first, last, ok := cache.Bounds()
	if !ok {
		return types.DateKey{}, types.DateKey{}, errors.New("nothing was fetched, so there is nothing to export")
	}

	start, end := first, last
	if startFlag != "" {
		t, err := time.Parse(flagDateLayout, startFlag)
		if err != nil {
			return types.DateKey{}, types.DateKey{}, fmt.Errorf("invalid -start date %q, expected DD-MM-YYYY", startFlag)
		}
		start = types.DateKeyFromTime(t)
	}
	if endFlag != "" {
		t, err := time.Parse(flagDateLayout, endFlag)
		if err != nil {
			return types.DateKey{}, types.DateKey{}, fmt.Errorf("invalid -end date %q, expected DD-MM-YYYY", endFlag)
		}
		end = types.DateKeyFromTime(t)
	}
	return start, end, nil
}

// writeExport writes the CSV to the named file, or stdout when name is empty.
func writeExport(name string, ranged *daycache.RangeResult) error {
	var out io.Writer = os.Stdout
	if name != "" {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return export.Write(out, ranged.Primary, ranged.Secondary)
}
