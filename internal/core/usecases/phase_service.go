package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/ports"
)

// phaseSearchWindowDays bounds the forward scan. A lunation is ~29.53 days,
// so both the next New Moon and the next Full Moon always fall inside it.
const phaseSearchWindowDays = 45.0

// PhaseService finds upcoming lunar phases against an ephemeris provider.
// Phase instants are immutable facts, so results are cached read-through.
type PhaseService struct {
	eph   ports.Ephemeris
	cache ports.CacheService
}

// NewPhaseService creates a new PhaseService.
func NewPhaseService(eph ports.Ephemeris, cache ports.CacheService) *PhaseService {
	return &PhaseService{eph: eph, cache: cache}
}

// NextPhases returns the next New Moon (Sun-Moon elongation 0°) and Full Moon
// (elongation 180°) strictly after the given UTC instant.
func (s *PhaseService) NextPhases(ctx context.Context, after time.Time) (*domain.LunarPhases, error) {
	after = after.UTC().Truncate(time.Second)

	cacheKey := "phases:next:" + after.Format(domain.UTCFormat)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var phases domain.LunarPhases
			if err := json.Unmarshal(data, &phases); err == nil {
				return &phases, nil
			}
		}
	}

	year, month, day := after.Date()
	h, m, sec := after.Clock()
	startJD, err := s.eph.JulianDayUT(ctx, year, int(month), day,
		float64(h)+float64(m)/60.0+float64(sec)/3600.0)
	if err != nil {
		return nil, &domain.ComputationError{Step: "Julian Day", Err: err}
	}

	newJD, err := s.nextElongationCrossing(ctx, startJD, 0)
	if err != nil {
		return nil, &domain.ComputationError{Step: "New Moon", Err: err}
	}
	fullJD, err := s.nextElongationCrossing(ctx, startJD, 180)
	if err != nil {
		return nil, &domain.ComputationError{Step: "Full Moon", Err: err}
	}

	phases := &domain.LunarPhases{
		After:       after.Format(domain.UTCFormat),
		NewMoonUTC:  domain.TimeFromJulianDay(newJD).Format(domain.UTCFormat),
		NewMoonJD:   newJD,
		FullMoonUTC: domain.TimeFromJulianDay(fullJD).Format(domain.UTCFormat),
		FullMoonJD:  fullJD,
	}

	// Past phase instants never change; a day of TTL just bounds the keyspace.
	if s.cache != nil {
		if data, err := json.Marshal(phases); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 86400)
		}
	}

	return phases, nil
}

// nextElongationCrossing scans forward in half-day steps for the first
// ascending crossing of the Sun-Moon elongation through target degrees,
// then bisects the bracket down to ~1e-7 days.
func (s *PhaseService) nextElongationCrossing(ctx context.Context, startJD, target float64) (float64, error) {
	offset := func(jd float64) (float64, error) {
		sun, err := s.eph.BodyPosition(ctx, jd, domain.Sun)
		if err != nil {
			return 0, err
		}
		moon, err := s.eph.BodyPosition(ctx, jd, domain.Moon)
		if err != nil {
			return 0, err
		}
		elong := math.Mod(moon.Longitude-sun.Longitude+360.0, 360.0)
		// Signed distance to target in (-180, 180].
		return math.Mod(elong-target+540.0, 360.0) - 180.0, nil
	}

	const step = 0.5
	prevJD := startJD
	prev, err := offset(prevJD)
	if err != nil {
		return 0, err
	}

	for jd := startJD + step; jd <= startJD+phaseSearchWindowDays; jd += step {
		cur, err := offset(jd)
		if err != nil {
			return 0, err
		}
		// The elongation advances ~12°/day, so the crossing shows up as the
		// offset rising through zero. The wrap at ±180 jumps downward and
		// never matches this bracket.
		if prev < 0 && cur >= 0 && cur-prev < 180 {
			lo, hi := prevJD, jd
			for i := 0; i < 60 && hi-lo > 1e-7; i++ {
				mid := lo + (hi-lo)/2
				v, err := offset(mid)
				if err != nil {
					return 0, err
				}
				if v < 0 {
					lo = mid
				} else {
					hi = mid
				}
			}
			return lo + (hi-lo)/2, nil
		}
		prev, prevJD = cur, jd
	}

	return 0, fmt.Errorf("no elongation crossing of %g° within %g days", target, phaseSearchWindowDays)
}
