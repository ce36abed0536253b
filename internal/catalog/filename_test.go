package catalog

import (
	"reflect"
	"testing"
	"time"

	"github.com/greenhollow/envfetch/internal/types"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantDate    types.DateKey
		wantVariant types.Variant
		wantOK      bool
	}{
		{
			name:        "primary day file",
			filename:    "07_03_2025.csv",
			wantDate:    types.NewDateKey(2025, time.March, 7),
			wantVariant: types.VariantPrimary,
			wantOK:      true,
		},
		{
			name:        "secondary day file",
			filename:    "07_03_2025_outside.csv",
			wantDate:    types.NewDateKey(2025, time.March, 7),
			wantVariant: types.VariantSecondary,
			wantOK:      true,
		},
		{
			name:     "unrelated file",
			filename: "notes.txt",
			wantOK:   false,
		},
		{
			name:     "unpadded digits",
			filename: "7_3_2025.csv",
			wantOK:   false,
		},
		{
			name:     "year first ordering",
			filename: "2025_03_07.csv",
			wantOK:   false,
		},
		{
			name:     "wrong extension",
			filename: "07_03_2025.dat",
			wantOK:   false,
		},
		{
			name:     "trailing garbage",
			filename: "07_03_2025.csv.bak",
			wantOK:   false,
		},
		{
			name:     "leading garbage",
			filename: "old_07_03_2025.csv",
			wantOK:   false,
		},
		{
			name:     "month thirteen",
			filename: "01_13_2025.csv",
			wantOK:   false,
		},
		{
			name:     "day zero",
			filename: "00_03_2025.csv",
			wantOK:   false,
		},
		{
			name:     "impossible february day",
			filename: "30_02_2025_outside.csv",
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, variant, ok := ParseFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ParseFilename(%q) ok = %v, expected %v", tt.filename, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if date != tt.wantDate {
				t.Errorf("date = %v, expected %v", date, tt.wantDate)
			}
			if variant != tt.wantVariant {
				t.Errorf("variant = %v, expected %v", variant, tt.wantVariant)
			}
		})
	}
}

func TestFilterListing(t *testing.T) {
	listing := []string{
		"09_03_2025.csv",
		"readme.md",
		"07_03_2025_outside.csv",
		"07_03_2025.csv",
		"backup.tar.gz",
		"08_03_2025.csv",
		"01_13_2025.csv",
	}

	want := []string{
		"07_03_2025.csv",
		"07_03_2025_outside.csv",
		"08_03_2025.csv",
		"09_03_2025.csv",
	}

	got := FilterListing(listing)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterListing = %v, expected %v", got, want)
	}
}

func TestFilterListingEmpty(t *testing.T) {
	if got := FilterListing(nil); len(got) != 0 {
		t.Errorf("FilterListing(nil) = %v, expected empty", got)
	}
	if got := FilterListing([]string{"a.txt", "b.txt"}); len(got) != 0 {
		t.Errorf("FilterListing with no matches = %v, expected empty", got)
	}
}
