// Package swisseph adapts the Swiss Ephemeris C library (via the swephgo
// binding) to the ports.Ephemeris contract the chart core depends on.
package swisseph

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/mshafiee/swephgo"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/ports"
)

// calcFlags = SEFLG_SWIEPH | SEFLG_SPEED: use the Swiss Ephemeris data files
// and have swe_calc_ut fill in daily speeds alongside positions.
const calcFlags = 2 | 256

// gregorianCalendar = SE_GREG_CAL for swe_julday.
const gregorianCalendar = 1

var initOnce sync.Once

// Init points the Swiss Ephemeris at its data directory. It must run once
// before any computation; the path is process-wide and treated as immutable
// for the process lifetime.
func Init(dataPath string) {
	initOnce.Do(func() {
		swephgo.SetEphePath([]byte(dataPath))
	})
}

// Close releases the library's internal buffers. Call once on shutdown.
func Close() {
	swephgo.Close()
}

// Ephemeris implements ports.Ephemeris. The underlying library is synchronous
// with no cancellation points; ctx is accepted for interface symmetry only.
// After Init, all calls are read-only against the ephemeris data files.
type Ephemeris struct{}

// New returns the ephemeris adapter. Call Init before first use.
func New() *Ephemeris {
	return &Ephemeris{}
}

var _ ports.Ephemeris = (*Ephemeris)(nil)

// JulianDayUT converts a Gregorian calendar date plus fractional hour to a
// Universal-Time Julian Day via swe_julday.
func (e *Ephemeris) JulianDayUT(_ context.Context, year, month, day int, hour float64) (float64, error) {
	// swe_julday happily extrapolates nonsense dates, so guard here.
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, fmt.Errorf("calendar date %04d-%02d-%02d out of range", year, month, day)
	}
	return swephgo.Julday(year, month, day, hour, gregorianCalendar), nil
}

// BodyPosition computes one body via swe_calc_ut and normalizes the C result
// (return flag + xx array) into the fixed (lon, lat, dist, speed) record.
func (e *Ephemeris) BodyPosition(_ context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
	// xx holds (lon, lat, dist, lon-speed, lat-speed, dist-speed); only the
	// first four are part of the provider contract.
	xx := make([]float64, 6)
	serr := make([]byte, 256)
	if ret := swephgo.CalcUt(jd, int(body), calcFlags, xx, serr); ret < 0 {
		return ports.BodyPosition{}, fmt.Errorf("swe_calc_ut(%s): %s", body, cstring(serr))
	}
	return ports.BodyPosition{
		Longitude:  xx[0],
		Latitude:   xx[1],
		DistanceAU: xx[2],
		Speed:      xx[3],
	}, nil
}

// Houses computes cusps and the ascmc block via swe_houses.
// ascmc[0] is the Ascendant, ascmc[1] the Midheaven.
func (e *Ephemeris) Houses(_ context.Context, jd, lat, lon float64, system rune) ([]float64, []float64, error) {
	cusps := make([]float64, 13)
	ascmc := make([]float64, 10)
	if ret := swephgo.Houses(jd, lat, lon, int(system), cusps, ascmc); ret < 0 {
		return nil, nil, fmt.Errorf("swe_houses('%c') failed for lat %.4f lon %.4f at jd %.6f", system, lat, lon, jd)
	}
	return cusps, ascmc, nil
}

// BodyName returns the library's display name for a body (swe_get_planet_name),
// e.g. "Sun", "mean Node", "mean Apogee".
func (e *Ephemeris) BodyName(body domain.Body) string {
	buf := make([]byte, 64)
	swephgo.GetPlanetName(int(body), buf)
	return cstring(buf)
}

// cstring converts a NUL-terminated C buffer to a Go string.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
