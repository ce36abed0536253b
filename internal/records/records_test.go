package records

import (
	"testing"
	"time"
)

func TestParseWellFormedFile(t *testing.T) {
	content := "Date,Sample Size,Temp (°C),Pressure (hPa),Humidity (RH%)\n" +
		"07/03/2025 00:00,60,21.5,1013.2,45.0\n" +
		"07/03/2025 00:01,60,21.6,1013.1,45.2\n" +
		"07/03/2025 00:02,59,21.7,1013.0,45.1\n"

	recs := Parse(content)
	if len(recs) != 3 {
		t.Fatalf("Parse returned %d records, expected 3", len(recs))
	}

	first := recs[0]
	wantTS := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTS) {
		t.Errorf("Timestamp = %v, expected %v", first.Timestamp, wantTS)
	}
	if first.SampleSize != 60 {
		t.Errorf("SampleSize = %d, expected 60", first.SampleSize)
	}
	if first.Temperature != 21.5 {
		t.Errorf("Temperature = %v, expected 21.5", first.Temperature)
	}
	if first.Pressure != 1013.2 {
		t.Errorf("Pressure = %v, expected 1013.2", first.Pressure)
	}
	if first.Humidity != 45.0 {
		t.Errorf("Humidity = %v, expected 45.0", first.Humidity)
	}

	// Source order is preserved
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp.Before(recs[i-1].Timestamp) {
			t.Errorf("records out of source order at index %d", i)
		}
	}
}

func TestParseTolerance(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected int
	}{
		{
			name:     "empty content",
			content:  "",
			expected: 0,
		},
		{
			name:     "whitespace only",
			content:  "\n   \n\t\n",
			expected: 0,
		},
		{
			name:     "header only",
			content:  "Date,Sample Size,Temp (°C),Pressure (hPa),Humidity (RH%)\n",
			expected: 0,
		},
		{
			name: "header repeated mid file",
			content: "07/03/2025 10:00,60,20.0,1010.0,50.0\n" +
				"Date,Sample Size,Temp (°C),Pressure (hPa),Humidity (RH%)\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 2,
		},
		{
			name: "too few fields dropped",
			content: "07/03/2025 10:00,60,20.0\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 1,
		},
		{
			name: "bad sample size dropped",
			content: "07/03/2025 10:00,sixty,20.0,1010.0,50.0\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 1,
		},
		{
			name: "bad float dropped",
			content: "07/03/2025 10:00,60,warm,1010.0,50.0\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 1,
		},
		{
			name: "bad timestamp dropped",
			content: "2025-03-07 10:00,60,20.0,1010.0,50.0\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 1,
		},
		{
			name: "impossible date dropped",
			content: "31/02/2025 10:00,60,20.0,1010.0,50.0\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\n",
			expected: 1,
		},
		{
			name:     "extra trailing fields tolerated",
			content:  "07/03/2025 10:00,60,20.0,1010.0,50.0,extra,fields\n",
			expected: 1,
		},
		{
			name: "crlf line endings",
			content: "Date,Sample Size,Temp (°C),Pressure (hPa),Humidity (RH%)\r\n" +
				"07/03/2025 10:00,60,20.0,1010.0,50.0\r\n" +
				"07/03/2025 10:01,60,20.1,1010.1,50.1\r\n",
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Parse(tt.content)
			if len(recs) != tt.expected {
				t.Errorf("Parse returned %d records, expected %d", len(recs), tt.expected)
			}
		})
	}
}

func TestParseNeverAbortsOnCorruptLine(t *testing.T) {
	// A corrupt line in the middle must not take the rest of the file with it
	content := "07/03/2025 10:00,60,20.0,1010.0,50.0\n" +
		"\x00\x01 garbage that is not a record at all\n" +
		"07/03/2025 10:02,60,20.2,1010.2,50.2\n"

	recs := Parse(content)
	if len(recs) != 2 {
		t.Fatalf("Parse returned %d records, expected 2", len(recs))
	}
	if recs[0].Timestamp.Minute() != 0 || recs[1].Timestamp.Minute() != 2 {
		t.Errorf("surviving records have wrong timestamps: %v, %v",
			recs[0].Timestamp, recs[1].Timestamp)
	}
}
