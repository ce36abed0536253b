// Package heatindex provides the "feels like" temperature calculation
// based on the NWS Rothfusz regression of apparent temperature
package heatindex

import "math"

// FeelsLike calculates the apparent temperature from air temperature (°C)
// and relative humidity (%). Below the regression's 80°F validity floor the
// input temperature is returned unchanged, and the input temperature is also
// the fallback if the computation does not produce a finite value.
func FeelsLike(tempC float64, humidity float64) float64 {
	// The regression works in Fahrenheit
	t := tempC*9.0/5.0 + 32.0
	if t < 80 {
		return tempC
	}

	r := humidity

	c1 := -42.379
	c2 := 2.04901523
	c3 := 10.14333127
	c4 := 0.22475541
	c5 := 0.00683783
	c6 := 0.05481717
	c7 := 0.00122874
	c8 := 0.00085282
	c9 := 0.00000199

	hi := c1 + (c2 * t) + (c3 * r) - (c4 * t * r) - (c5 * math.Pow(t, 2)) - (c6 * math.Pow(r, 2)) + (c7 * math.Pow(t, 2) * r) + (c8 * t * math.Pow(r, 2)) - (c9 * math.Pow(t, 2) * math.Pow(r, 2))

	// If RH < 13% and temperature is between 80 and 112, subtract an adjustment
	if r < 13 && t >= 80 && t <= 112 {
		adj := ((13 - r) / 4) * math.Sqrt((17-math.Abs(t-95.0))/17)
		hi = hi - adj
	} else if r > 85 && t >= 80 && t <= 87 {
		// Likewise, if RH > 85% and temperature is between 80 and 87, add an adjustment
		adj := ((r - 85.0) / 10) * ((87.0 - t) / 5)
		hi = hi + adj
	}

	if math.IsNaN(hi) || math.IsInf(hi, 0) {
		return tempC
	}

	// Back to Celsius
	return (hi - 32.0) * 5.0 / 9.0
}
