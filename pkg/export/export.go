// Package export renders aggregated record sets as CSV, matching the column
// layout the producer's original export tooling used.
package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/greenhollow/envfetch/internal/types"
)

var baseHeader = []string{
	"Date/Time",
	"Sample Size",
	"Indoor Temperature (°C)",
	"Indoor Pressure (hPa)",
	"Humidity (%RH)",
	"Feels Like (°C)",
}

var outdoorHeader = []string{
	"Outdoor Temperature (°C)",
	"Outdoor Pressure (hPa)",
}

// Write emits one CSV row per primary record, sorted ascending by timestamp.
// When the secondary series is non-empty, the header grows the outdoor
// columns and each row left-joins the secondary temperature and pressure by
// exact minute; rows with no match at that minute get empty cells. When the
// same minute appears more than once in the secondary series, the last
// occurrence wins.
func Write(w io.Writer, primary, secondary []types.Record) error {
	cw := csv.NewWriter(w)

	withOutdoor := len(secondary) > 0
	header := baseHeader
	if withOutdoor {
		header = append(append([]string{}, baseHeader...), outdoorHeader...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	recs := make([]types.Record, len(primary))
	copy(recs, primary)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})

	join := make(map[string]types.Record, len(secondary))
	for _, rec := range secondary {
		join[rec.Timestamp.Format(types.TimestampLayout)] = rec
	}

	for _, rec := range recs {
		ts := rec.Timestamp.Format(types.TimestampLayout)
		row := []string{
			ts,
			strconv.Itoa(rec.SampleSize),
			formatFloat(rec.Temperature),
			formatFloat(rec.Pressure),
			formatFloat(rec.Humidity),
			formatFloat(rec.FeelsLike),
		}
		if withOutdoor {
			if outdoor, ok := join[ts]; ok {
				row = append(row, formatFloat(outdoor.Temperature), formatFloat(outdoor.Pressure))
			} else {
				row = append(row, "", "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
