// Package records parses day-file text into typed environmental records.
//
// The day files are comma-separated with a repeating header line and the
// occasional truncated or garbled row, so parsing is deliberately tolerant:
// a line that cannot be parsed is logged and dropped, never fatal.
package records

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/greenhollow/envfetch/internal/log"
	"github.com/greenhollow/envfetch/internal/types"
)

// headerPrefix marks the column-header lines the producer writes at the top
// of every file (and again after restarts).
const headerPrefix = "Date,Sample"

// Parse converts the text of one day file into records, preserving source
// order. Blank lines and header lines are skipped silently; malformed lines
// are logged at warn level and skipped.
func Parse(content string) []types.Record {
	var recs []types.Record

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, headerPrefix) {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			log.GetSugaredLogger().Warnf("skipping malformed record on line %d: %v", i+1, err)
			continue
		}
		recs = append(recs, rec)
	}

	return recs
}

func parseLine(line string) (types.Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return types.Record{}, fmt.Errorf("expected at least 5 fields, got %d", len(fields))
	}

	ts, err := time.Parse(types.TimestampLayout, strings.TrimSpace(fields[0]))
	if err != nil {
		return types.Record{}, fmt.Errorf("bad timestamp: %w", err)
	}

	sampleSize, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return types.Record{}, fmt.Errorf("bad sample size: %w", err)
	}

	temperature, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("bad temperature: %w", err)
	}

	pressure, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("bad pressure: %w", err)
	}

	humidity, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("bad humidity: %w", err)
	}

	return types.Record{
		Timestamp:   ts,
		SampleSize:  sampleSize,
		Temperature: temperature,
		Pressure:    pressure,
		Humidity:    humidity,
	}, nil
}
