package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/ports"
)

// Accepted wire formats for datetime_utc once the trailing 'Z' is stripped.
// Fractional seconds are accepted but truncated; numeric UTC offsets are not.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Validate normalizes a raw ChartRequest into a ChartInput, or fails with a
// *domain.ValidationError naming the offending field. It is a pure function:
// once it succeeds, nothing downstream validates again.
func Validate(req domain.ChartRequest) (domain.ChartInput, error) {
	t, err := ParseDatetimeUTC(req.DatetimeUTC)
	if err != nil {
		return domain.ChartInput{}, err
	}

	if req.Latitude == nil {
		return domain.ChartInput{}, &domain.ValidationError{
			Field: "latitude", Value: nil, Reason: "is required",
		}
	}
	lat := *req.Latitude
	// NaN and ±Inf fail this comparison too, so one branch covers
	// "not a finite float" and "out of range".
	if !(lat >= -90.0 && lat <= 90.0) {
		return domain.ChartInput{}, &domain.ValidationError{
			Field: "latitude", Value: lat, Reason: "must be between -90 and 90",
		}
	}

	if req.Longitude == nil {
		return domain.ChartInput{}, &domain.ValidationError{
			Field: "longitude", Value: nil, Reason: "is required",
		}
	}
	lon := *req.Longitude
	if !(lon >= -180.0 && lon <= 180.0) {
		return domain.ChartInput{}, &domain.ValidationError{
			Field: "longitude", Value: lon, Reason: "must be between -180 and 180",
		}
	}

	return domain.ChartInput{
		Name:      req.Name,
		Time:      t,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// ParseDatetimeUTC parses the wire datetime format shared by the chart and
// phase endpoints: ISO-8601 with a mandatory trailing 'Z'.
func ParseDatetimeUTC(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &domain.ValidationError{
			Field: "datetime_utc", Value: raw, Reason: "is required",
		}
	}
	if !strings.HasSuffix(raw, "Z") {
		return time.Time{}, &domain.ValidationError{
			Field: "datetime_utc", Value: raw,
			Reason: "must be an ISO-8601 UTC instant ending in 'Z'",
		}
	}
	s := strings.TrimSuffix(raw, "Z")
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &domain.ValidationError{
		Field: "datetime_utc", Value: raw,
		Reason: "must match 'YYYY-MM-DDTHH:MM:SSZ'",
	}
}

// ChartService computes natal charts against an ephemeris provider.
type ChartService struct {
	eph ports.Ephemeris
}

// NewChartService creates a new ChartService.
func NewChartService(eph ports.Ephemeris) *ChartService {
	return &ChartService{eph: eph}
}

// BuildChart validates the raw request and builds the chart in one call.
func (s *ChartService) BuildChart(ctx context.Context, req domain.ChartRequest) (*domain.ChartResult, error) {
	in, err := Validate(req)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, in)
}

// Build computes the full chart for a validated input: Julian Day, the 13
// fixed bodies, then the four Placidus-derived angles. Any ephemeris failure
// aborts the whole build; there is no partial result.
func (s *ChartService) Build(ctx context.Context, in domain.ChartInput) (*domain.ChartResult, error) {
	year, month, day := in.Time.Date()
	jd, err := s.eph.JulianDayUT(ctx, year, int(month), day, in.FractionalHour())
	if err != nil {
		return nil, &domain.ComputationError{Step: "Julian Day", Err: err}
	}

	placements := make(domain.PlacementList, 0, len(domain.ChartBodies)+len(domain.ChartAngles))
	for _, body := range domain.ChartBodies {
		pos, err := s.eph.BodyPosition(ctx, jd, body)
		if err != nil {
			return nil, &domain.ComputationError{Step: s.bodyName(body), Err: err}
		}
		placements = append(placements, domain.NamedPlacement{
			Name: s.bodyName(body),
			Placement: domain.BodyPlacement{
				Longitude:  pos.Longitude,
				Latitude:   pos.Latitude,
				DistanceAU: pos.DistanceAU,
				Speed:      pos.Speed,
				Retrograde: pos.Speed < 0,
			},
		})
	}

	_, ascmc, err := s.eph.Houses(ctx, jd, in.Latitude, in.Longitude, domain.HouseSystemPlacidus)
	if err != nil {
		return nil, &domain.ComputationError{Step: "houses and angles", Err: err}
	}
	if len(ascmc) < 2 {
		return nil, &domain.ComputationError{
			Step: "houses and angles",
			Err:  fmt.Errorf("ephemeris returned %d ascmc values, need at least 2", len(ascmc)),
		}
	}

	asc, mc := ascmc[0], ascmc[1]
	dc := math.Mod(asc+180.0, 360.0)
	ic := math.Mod(mc+180.0, 360.0)

	// Angles are directional markers, not moving bodies: latitude, distance
	// and speed stay zero and they are never retrograde.
	for _, a := range []struct {
		name string
		lon  float64
	}{
		{domain.AngleAscendant, asc},
		{domain.AngleMidheaven, mc},
		{domain.AngleDescendant, dc},
		{domain.AngleIC, ic},
	} {
		placements = append(placements, domain.NamedPlacement{
			Name:      a.name,
			Placement: anglePlacement(a.lon),
		})
	}

	return &domain.ChartResult{
		Name:        in.Name,
		DatetimeUTC: in.Time.Format(domain.UTCFormat),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		JulianDay:   jd,
		Placements:  placements,
	}, nil
}

func (s *ChartService) bodyName(body domain.Body) string {
	if name := s.eph.BodyName(body); name != "" {
		return name
	}
	return body.String()
}

func anglePlacement(longitude float64) domain.BodyPlacement {
	return domain.BodyPlacement{Longitude: longitude}
}
