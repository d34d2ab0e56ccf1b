package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/ports"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
)

// --- Mock cache ---

type mockCache struct {
	store map[string][]byte
	gets  int
	sets  int
}

func newMockCache() *mockCache {
	return &mockCache{store: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.sets++
	m.store[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	delete(m.store, key)
	return nil
}

// linearMoonEphemeris models a stationary Sun at 0° and a Moon advancing
// 12°/day from a chosen elongation at the reference instant, which makes
// phase instants exactly predictable.
func linearMoonEphemeris(refJD, elongAtRef float64, calls *int) *mockEphemeris {
	return &mockEphemeris{
		bodyPositionFn: func(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
			if calls != nil {
				*calls++
			}
			if body == domain.Sun {
				return ports.BodyPosition{Longitude: 0, Speed: 1}, nil
			}
			if body == domain.Moon {
				lon := math.Mod(elongAtRef+12.0*(jd-refJD)+360.0, 360.0)
				return ports.BodyPosition{Longitude: lon, Speed: 12}, nil
			}
			return ports.BodyPosition{}, fmt.Errorf("unexpected body %v in phase search", body)
		},
	}
}

func TestPhaseService_NextPhases(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	refJD := domain.JulianDayUT(after) // 2460310.5

	// Elongation 300° at the reference: New Moon (360°) after 5 days,
	// Full Moon (180°+360°) after 20 days.
	svc := usecases.NewPhaseService(linearMoonEphemeris(refJD, 300, nil), nil)

	phases, err := svc.NextPhases(context.Background(), after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(phases.NewMoonJD-(refJD+5)) > 1e-4 {
		t.Errorf("expected New Moon at JD %v, got %v", refJD+5, phases.NewMoonJD)
	}
	if math.Abs(phases.FullMoonJD-(refJD+20)) > 1e-4 {
		t.Errorf("expected Full Moon at JD %v, got %v", refJD+20, phases.FullMoonJD)
	}
	if phases.NewMoonJD <= refJD || phases.FullMoonJD <= refJD {
		t.Error("expected both phases strictly after the query instant")
	}
	if phases.NewMoonUTC != "2024-01-06T00:00:00Z" {
		t.Errorf("expected New Moon at 2024-01-06T00:00:00Z, got %s", phases.NewMoonUTC)
	}
	if phases.FullMoonUTC != "2024-01-21T00:00:00Z" {
		t.Errorf("expected Full Moon at 2024-01-21T00:00:00Z, got %s", phases.FullMoonUTC)
	}
}

func TestPhaseService_NextPhases_CacheReadThrough(t *testing.T) {
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	refJD := domain.JulianDayUT(after)

	calls := 0
	cache := newMockCache()
	svc := usecases.NewPhaseService(linearMoonEphemeris(refJD, 300, &calls), cache)

	first, err := svc.NextPhases(context.Background(), after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("expected one cache write, got %d", cache.sets)
	}

	callsAfterFirst := calls
	second, err := svc.NextPhases(context.Background(), after)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != callsAfterFirst {
		t.Errorf("expected cached result to skip the ephemeris, got %d extra calls", calls-callsAfterFirst)
	}
	if *second != *first {
		t.Errorf("expected cached result to match, got %+v vs %+v", second, first)
	}
}

func TestPhaseService_NextPhases_EphemerisFailure(t *testing.T) {
	eph := &mockEphemeris{
		bodyPositionFn: func(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
			return ports.BodyPosition{}, fmt.Errorf("ephemeris unavailable")
		},
	}
	svc := usecases.NewPhaseService(eph, nil)

	_, err := svc.NextPhases(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var cErr *domain.ComputationError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ComputationError, got %v", err)
	}
	if cErr.Step != "New Moon" {
		t.Errorf("expected failing step named, got %q", cErr.Step)
	}
}
