package domain

import (
	"math"
	"time"
)

// JulianDayUT converts a UTC instant to a Universal-Time Julian Day using the
// standard Gregorian-calendar formula (Fliegel & Van Flandern). The ephemeris
// provider remains authoritative for chart output; this closed form backs the
// lunar-phase search and serves as an independent cross-check in tests.
func JulianDayUT(t time.Time) float64 {
	t = t.UTC()
	y, m, d := t.Date()
	a := (14 - int(m)) / 12
	yy := y + 4800 - a
	mm := int(m) + 12*a - 3

	jdn := d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045

	h, min, s := t.Clock()
	dayFrac := (float64(h)-12.0)/24.0 + float64(min)/1440.0 + float64(s)/86400.0
	return float64(jdn) + dayFrac
}

// TimeFromJulianDay converts a Universal-Time Julian Day back to a UTC
// instant, rounded to the nearest second.
func TimeFromJulianDay(jd float64) time.Time {
	z, f := math.Modf(jd + 0.5)

	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := int(b - d - math.Floor(30.6001*e))

	month := int(e) - 1
	if e >= 14 {
		month = int(e) - 13
	}
	year := int(c) - 4716
	if month <= 2 {
		year = int(c) - 4715
	}

	secs := math.Round(f * 86400.0)
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).
		Add(time.Duration(secs) * time.Second)
}
