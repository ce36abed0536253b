package daycache

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/greenhollow/envfetch/internal/records"
	"github.com/greenhollow/envfetch/internal/types"
	"github.com/greenhollow/envfetch/pkg/heatindex"
)

// RangeResult is the ordered record set for one aggregated date range.
// Primary records carry a derived feels-like temperature; the secondary
// series may be empty when no outdoor files exist for the range.
type RangeResult struct {
	Start     types.DateKey  `json:"start"`
	End       types.DateKey  `json:"end"`
	Primary   []types.Record `json:"primary"`
	Secondary []types.Record `json:"secondary,omitempty"`
}

// SeriesStats summarizes one measurement column over a range.
type SeriesStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary carries per-column statistics for the primary series of a range.
type Summary struct {
	Records     int         `json:"records"`
	Temperature SeriesStats `json:"temperature"`
	Pressure    SeriesStats `json:"pressure"`
	Humidity    SeriesStats `json:"humidity"`
	FeelsLike   SeriesStats `json:"feels_like"`
}

// Aggregate parses every cached day in the inclusive range start..end and
// returns both series ordered by timestamp ascending. Days missing from the
// cache are skipped. Ordering is stable, so records sharing a timestamp keep
// their source order. Returns ErrInvalidRange when start falls after end and
// ErrEmptyResult when the range yields no parseable primary records; a
// missing secondary series is normal and not an error.
func (c *Cache) Aggregate(start, end types.DateKey) (*RangeResult, error) {
	primaryDays, err := c.GetRange(start, end, types.VariantPrimary)
	if err != nil {
		return nil, err
	}
	secondaryDays, err := c.GetRange(start, end, types.VariantSecondary)
	if err != nil {
		return nil, err
	}

	result := &RangeResult{Start: start, End: end}
	for _, day := range primaryDays {
		result.Primary = append(result.Primary, records.Parse(day.Content)...)
	}
	for _, day := range secondaryDays {
		result.Secondary = append(result.Secondary, records.Parse(day.Content)...)
	}

	if len(result.Primary) == 0 {
		return nil, ErrEmptyResult
	}

	sortByTimestamp(result.Primary)
	sortByTimestamp(result.Secondary)

	for i := range result.Primary {
		rec := &result.Primary[i]
		rec.FeelsLike = heatindex.FeelsLike(rec.Temperature, rec.Humidity)
	}

	return result, nil
}

// Summary computes min/max/mean statistics over the primary series.
func (r *RangeResult) Summary() Summary {
	n := len(r.Primary)
	if n == 0 {
		return Summary{}
	}

	temps := make([]float64, n)
	pressures := make([]float64, n)
	humidities := make([]float64, n)
	feels := make([]float64, n)
	for i, rec := range r.Primary {
		temps[i] = rec.Temperature
		pressures[i] = rec.Pressure
		humidities[i] = rec.Humidity
		feels[i] = rec.FeelsLike
	}

	return Summary{
		Records:     n,
		Temperature: seriesStats(temps),
		Pressure:    seriesStats(pressures),
		Humidity:    seriesStats(humidities),
		FeelsLike:   seriesStats(feels),
	}
}

func seriesStats(values []float64) SeriesStats {
	return SeriesStats{
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		Mean: stat.Mean(values, nil),
	}
}

func sortByTimestamp(recs []types.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
}
