package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/greenhollow/envfetch/internal/types"
)

// The producer writes one file per day and variant:
//
//	DD_MM_YYYY.csv          indoor (primary) series
//	DD_MM_YYYY_outside.csv  outdoor (secondary) series
//
// Anything else in the directory is not ours and is ignored.
var (
	primaryName   = regexp.MustCompile(`^(\d{2})_(\d{2})_(\d{4})\.csv$`)
	secondaryName = regexp.MustCompile(`^(\d{2})_(\d{2})_(\d{4})_outside\.csv$`)
)

// ParseFilename maps an archive filename onto its calendar day and variant.
// Names outside the contract, including digit patterns that are not real
// calendar dates, return ok == false.
func ParseFilename(name string) (types.DateKey, types.Variant, bool) {
	variant := types.VariantPrimary
	m := primaryName.FindStringSubmatch(name)
	if m == nil {
		m = secondaryName.FindStringSubmatch(name)
		variant = types.VariantSecondary
	}
	if m == nil {
		return types.DateKey{}, 0, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	key := types.NewDateKey(year, time.Month(month), day)
	if !key.Valid() {
		return types.DateKey{}, 0, false
	}
	return key, variant, true
}

// FilterListing keeps the names that match the day-file contract and returns
// them in ascending filename order, which is the order downloads proceed in.
func FilterListing(names []string) []string {
	var out []string
	for _, name := range names {
		if _, _, ok := ParseFilename(name); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
