package ports

import (
	"context"

	"github.com/astrozaddy/astrochart/internal/core/domain"
)

// BodyPosition is the normalized per-body answer from the ephemeris:
// always exactly (longitude, latitude, distance, speed), in that order,
// regardless of how the underlying library shapes its return value.
type BodyPosition struct {
	Longitude  float64 // ecliptic longitude, degrees
	Latitude   float64 // ecliptic latitude, degrees
	DistanceAU float64 // distance from Earth, AU
	Speed      float64 // longitudinal speed, degrees/day
}

// Ephemeris is the astronomical capability the chart core requires.
// Implementations are expected to be configured once at process start
// (data path) and to be safe for concurrent read-only use afterwards.
type Ephemeris interface {
	// JulianDayUT converts a calendar date plus fractional hour to a
	// Universal-Time Julian Day.
	JulianDayUT(ctx context.Context, year, month, day int, hour float64) (float64, error)

	// BodyPosition computes the position of one body at the given Julian Day.
	BodyPosition(ctx context.Context, jd float64, body domain.Body) (BodyPosition, error)

	// Houses computes house cusps and the ascmc angle block for a location.
	// ascmc[0] is the Ascendant and ascmc[1] the Midheaven.
	Houses(ctx context.Context, jd, lat, lon float64, system rune) (cusps, ascmc []float64, err error)

	// BodyName returns the display name used as the placement key.
	BodyName(body domain.Body) string
}
