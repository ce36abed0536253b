package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/greenhollow/envfetch/internal/types"
)

func rec(hour, minute int, temp float64) types.Record {
	return types.Record{
		Timestamp:   time.Date(2025, 3, 7, hour, minute, 0, 0, time.UTC),
		SampleSize:  60,
		Temperature: temp,
		Pressure:    1010.5,
		Humidity:    45.0,
		FeelsLike:   temp,
	}
}

func parseCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back CSV: %v", err)
	}
	return rows
}

func TestWriteWithoutSecondary(t *testing.T) {
	var buf bytes.Buffer
	primary := []types.Record{rec(10, 0, 20.0), rec(10, 5, 20.5)}

	if err := Write(&buf, primary, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, &buf)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, expected header + 2", len(rows))
	}
	if len(rows[0]) != 6 {
		t.Errorf("header has %d columns, expected 6 without secondary data", len(rows[0]))
	}
	if rows[0][0] != "Date/Time" || rows[0][5] != "Feels Like (°C)" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "07/03/2025 10:00" {
		t.Errorf("timestamp cell = %q, expected formatted minute", rows[1][0])
	}
	if rows[1][1] != "60" || rows[1][2] != "20" {
		t.Errorf("row cells = %v, expected sample size 60 and temperature 20", rows[1])
	}
}

func TestWriteLeftJoin(t *testing.T) {
	var buf bytes.Buffer
	primary := []types.Record{rec(10, 0, 20.0), rec(10, 5, 20.5), rec(10, 10, 21.0)}
	secondary := []types.Record{
		{Timestamp: time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC), Temperature: 5.0, Pressure: 1009.0},
		{Timestamp: time.Date(2025, 3, 7, 10, 10, 0, 0, time.UTC), Temperature: 5.5, Pressure: 1009.5},
	}

	if err := Write(&buf, primary, secondary); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, &buf)
	if len(rows[0]) != 8 {
		t.Fatalf("header has %d columns, expected 8 with secondary data", len(rows[0]))
	}
	if rows[0][6] != "Outdoor Temperature (°C)" || rows[0][7] != "Outdoor Pressure (hPa)" {
		t.Errorf("outdoor header cells = %v", rows[0][6:])
	}

	// 10:00 and 10:10 match, 10:05 does not
	if rows[1][6] != "5" || rows[1][7] != "1009" {
		t.Errorf("matched row cells = %v, expected outdoor 5/1009", rows[1][6:])
	}
	if rows[2][6] != "" || rows[2][7] != "" {
		t.Errorf("unmatched row cells = %v, expected empty", rows[2][6:])
	}
	if rows[3][6] != "5.5" || rows[3][7] != "1009.5" {
		t.Errorf("matched row cells = %v, expected outdoor 5.5/1009.5", rows[3][6:])
	}
}

func TestWriteSortsRows(t *testing.T) {
	var buf bytes.Buffer
	primary := []types.Record{rec(12, 0, 22.0), rec(9, 0, 19.0), rec(10, 30, 20.0)}

	if err := Write(&buf, primary, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, &buf)
	want := []string{"07/03/2025 09:00", "07/03/2025 10:30", "07/03/2025 12:00"}
	for i, ts := range want {
		if rows[i+1][0] != ts {
			t.Errorf("row %d timestamp = %q, expected %q", i, rows[i+1][0], ts)
		}
	}
}

func TestWriteDuplicateSecondaryMinute(t *testing.T) {
	var buf bytes.Buffer
	primary := []types.Record{rec(10, 0, 20.0)}
	secondary := []types.Record{
		{Timestamp: time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC), Temperature: 4.0, Pressure: 1008.0},
		{Timestamp: time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC), Temperature: 4.5, Pressure: 1008.5},
	}

	if err := Write(&buf, primary, secondary); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := parseCSV(t, &buf)
	if rows[1][6] != "4.5" {
		t.Errorf("duplicate minute cell = %q, expected the later reading", rows[1][6])
	}
}

func TestWriteEmptyPrimary(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rows := parseCSV(t, &buf)
	if len(rows) != 1 {
		t.Errorf("got %d rows for empty input, expected header only", len(rows))
	}
}
