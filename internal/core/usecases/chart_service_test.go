package usecases_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/ports"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
)

// --- Mock Ephemeris ---

type mockEphemeris struct {
	julianDayFn    func(ctx context.Context, year, month, day int, hour float64) (float64, error)
	bodyPositionFn func(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error)
	housesFn       func(ctx context.Context, jd, lat, lon float64, system rune) ([]float64, []float64, error)
	bodyNameFn     func(body domain.Body) string
}

func (m *mockEphemeris) JulianDayUT(ctx context.Context, year, month, day int, hour float64) (float64, error) {
	if m.julianDayFn != nil {
		return m.julianDayFn(ctx, year, month, day, hour)
	}
	// Independent closed-form Julian Day, so chart output can be
	// cross-checked without the real ephemeris.
	a := (14 - month) / 12
	y := year + 4800 - a
	mm := month + 12*a - 3
	jdn := day + (153*mm+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
	return float64(jdn) + (hour-12.0)/24.0, nil
}

func (m *mockEphemeris) BodyPosition(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
	if m.bodyPositionFn != nil {
		return m.bodyPositionFn(ctx, jd, body)
	}
	b := float64(body)
	return ports.BodyPosition{
		Longitude:  math.Mod(b*27.5+12.25, 360),
		Latitude:   b / 10,
		DistanceAU: 1 + b/100,
		Speed:      0.5 + b/50,
	}, nil
}

func (m *mockEphemeris) Houses(ctx context.Context, jd, lat, lon float64, system rune) ([]float64, []float64, error) {
	if m.housesFn != nil {
		return m.housesFn(ctx, jd, lat, lon, system)
	}
	return make([]float64, 13), []float64{100.0, 10.0, 0, 0, 0, 0, 0, 0, 0, 0}, nil
}

func (m *mockEphemeris) BodyName(body domain.Body) string {
	if m.bodyNameFn != nil {
		return m.bodyNameFn(body)
	}
	return body.String()
}

func floatPtr(v float64) *float64 { return &v }

func validRequest() domain.ChartRequest {
	return domain.ChartRequest{
		DatetimeUTC: "2024-03-20T03:06:00Z",
		Latitude:    floatPtr(0),
		Longitude:   floatPtr(0),
	}
}

// --- Validation ---

func TestValidate_LatitudeOutOfRange(t *testing.T) {
	req := validRequest()
	req.Latitude = floatPtr(91)

	_, err := usecases.Validate(req)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "latitude" {
		t.Errorf("expected field latitude, got %s", vErr.Field)
	}
	if !strings.Contains(err.Error(), "91") {
		t.Errorf("expected rejected value echoed, got %q", err.Error())
	}
}

func TestValidate_LongitudeOutOfRange(t *testing.T) {
	req := validRequest()
	req.Longitude = floatPtr(-181)

	_, err := usecases.Validate(req)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "longitude" {
		t.Errorf("expected field longitude, got %s", vErr.Field)
	}
	if !strings.Contains(err.Error(), "-181") {
		t.Errorf("expected rejected value echoed, got %q", err.Error())
	}
}

func TestValidate_NonFiniteLatitude(t *testing.T) {
	req := validRequest()
	req.Latitude = floatPtr(math.NaN())

	_, err := usecases.Validate(req)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "latitude" {
		t.Fatalf("expected ValidationError on latitude, got %v", err)
	}
}

func TestValidate_MissingCoordinates(t *testing.T) {
	req := validRequest()
	req.Latitude = nil
	if _, err := usecases.Validate(req); err == nil {
		t.Error("expected error for missing latitude")
	}

	req = validRequest()
	req.Longitude = nil
	if _, err := usecases.Validate(req); err == nil {
		t.Error("expected error for missing longitude")
	}
}

func TestValidate_MissingDatetime(t *testing.T) {
	req := validRequest()
	req.DatetimeUTC = ""

	_, err := usecases.Validate(req)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "datetime_utc" {
		t.Fatalf("expected ValidationError on datetime_utc, got %v", err)
	}
}

func TestValidate_MalformedDatetime(t *testing.T) {
	req := validRequest()
	req.DatetimeUTC = "not-a-dateZ"

	_, err := usecases.Validate(req)
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "datetime_utc" {
		t.Errorf("expected field datetime_utc, got %s", vErr.Field)
	}
	if !strings.Contains(err.Error(), "not-a-dateZ") {
		t.Errorf("expected raw value echoed, got %q", err.Error())
	}
}

func TestValidate_RejectsNumericOffset(t *testing.T) {
	req := validRequest()
	req.DatetimeUTC = "2024-03-20T03:06:00+00:00"

	if _, err := usecases.Validate(req); err == nil {
		t.Error("expected error: only the trailing 'Z' marker is accepted")
	}
}

func TestValidate_FractionalSecondsTruncated(t *testing.T) {
	req := validRequest()
	req.DatetimeUTC = "2024-03-20T03:06:07.923Z"

	in, err := usecases.Validate(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := in.Time.Format(domain.UTCFormat); got != "2024-03-20T03:06:07Z" {
		t.Errorf("expected seconds truncated, got %s", got)
	}
	// 03:06:07 -> 3 + 6/60 + 7/3600, sub-second dropped
	want := 3.0 + 6.0/60.0 + 7.0/3600.0
	if math.Abs(in.FractionalHour()-want) > 1e-12 {
		t.Errorf("expected fractional hour %v, got %v", want, in.FractionalHour())
	}
}

// --- Chart building ---

var wantKeys = []string{
	"Sun", "Moon", "Mercury", "Venus", "Mars",
	"Jupiter", "Saturn", "Uranus", "Neptune", "Pluto",
	"Chiron", "mean Node", "mean Apogee",
	"Ascendant", "Midheaven", "Descendant", "IC",
}

func TestChartService_Build_FixedPlacementOrder(t *testing.T) {
	svc := usecases.NewChartService(&mockEphemeris{})

	result, err := svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys := result.Placements.Keys()
	if len(keys) != 17 {
		t.Fatalf("expected 17 placements, got %d", len(keys))
	}
	for i, want := range wantKeys {
		if keys[i] != want {
			t.Errorf("placement %d: expected %s, got %s", i, want, keys[i])
		}
	}
}

func TestChartService_Build_JulianDay_Equinox(t *testing.T) {
	svc := usecases.NewChartService(&mockEphemeris{})

	result, err := svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2024-03-20T03:06:00Z = JDN 2460390 at noon, minus 8.9h
	const want = 2460389.6291666667
	if math.Abs(result.JulianDay-want) > 1e-6 {
		t.Errorf("expected julian day %v, got %v", want, result.JulianDay)
	}
	if result.DatetimeUTC != "2024-03-20T03:06:00Z" {
		t.Errorf("expected canonical datetime echo, got %s", result.DatetimeUTC)
	}
}

func TestChartService_Build_RetrogradeTracksSpeed(t *testing.T) {
	speed := -0.31
	eph := &mockEphemeris{
		bodyPositionFn: func(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
			s := 1.0
			if body == domain.Mercury {
				s = speed
			}
			return ports.BodyPosition{Longitude: 120, Speed: s}, nil
		},
	}
	svc := usecases.NewChartService(eph)

	result, err := svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := result.Placements.Get("Mercury")
	if !ok {
		t.Fatal("Mercury placement missing")
	}
	if !p.Retrograde {
		t.Error("expected Mercury retrograde at negative speed")
	}

	// Flipping the stubbed speed must flip the derived flag.
	speed = 0.31
	result, err = svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, _ = result.Placements.Get("Mercury")
	if p.Retrograde {
		t.Error("expected Mercury direct at positive speed")
	}
}

func TestChartService_Build_DerivedAngles(t *testing.T) {
	eph := &mockEphemeris{
		housesFn: func(ctx context.Context, jd, lat, lon float64, system rune) ([]float64, []float64, error) {
			if system != 'P' {
				t.Errorf("expected Placidus house system, got %c", system)
			}
			return make([]float64, 13), []float64{350.5, 260.25, 0, 0, 0, 0, 0, 0, 0, 0}, nil
		},
	}
	svc := usecases.NewChartService(eph)

	result, err := svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	asc, _ := result.Placements.Get(domain.AngleAscendant)
	mc, _ := result.Placements.Get(domain.AngleMidheaven)
	dc, _ := result.Placements.Get(domain.AngleDescendant)
	ic, _ := result.Placements.Get(domain.AngleIC)

	if asc.Longitude != 350.5 || mc.Longitude != 260.25 {
		t.Errorf("expected ASC/MC passed through, got %v/%v", asc.Longitude, mc.Longitude)
	}
	if dc.Longitude != math.Mod(350.5+180.0, 360.0) {
		t.Errorf("expected DC = (ASC+180) mod 360, got %v", dc.Longitude)
	}
	if ic.Longitude != math.Mod(260.25+180.0, 360.0) {
		t.Errorf("expected IC = (MC+180) mod 360, got %v", ic.Longitude)
	}
}

func TestChartService_Build_AngleFieldsZeroed(t *testing.T) {
	svc := usecases.NewChartService(&mockEphemeris{})

	result, err := svc.BuildChart(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range domain.ChartAngles {
		p, ok := result.Placements.Get(name)
		if !ok {
			t.Fatalf("%s placement missing", name)
		}
		if p.Latitude != 0 || p.DistanceAU != 0 || p.Speed != 0 || p.Retrograde {
			t.Errorf("%s: expected zeroed ancillary fields, got %+v", name, p)
		}
	}
}

func TestChartService_Build_BodyFailureAborts(t *testing.T) {
	eph := &mockEphemeris{
		bodyPositionFn: func(ctx context.Context, jd float64, body domain.Body) (ports.BodyPosition, error) {
			if body == domain.Mars {
				return ports.BodyPosition{}, fmt.Errorf("ephemeris file missing")
			}
			return ports.BodyPosition{Longitude: 1, Speed: 1}, nil
		},
	}
	svc := usecases.NewChartService(eph)

	result, err := svc.BuildChart(context.Background(), validRequest())
	if result != nil {
		t.Fatal("expected no partial result")
	}
	var cErr *domain.ComputationError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ComputationError, got %v", err)
	}
	if cErr.Step != "Mars" {
		t.Errorf("expected failing body named, got %q", cErr.Step)
	}
	if !strings.Contains(err.Error(), "ephemeris file missing") {
		t.Errorf("expected provider cause retained, got %q", err.Error())
	}
}

func TestChartService_Build_JulianDayFailure(t *testing.T) {
	eph := &mockEphemeris{
		julianDayFn: func(ctx context.Context, year, month, day int, hour float64) (float64, error) {
			return 0, fmt.Errorf("calendar out of range")
		},
	}
	svc := usecases.NewChartService(eph)

	_, err := svc.BuildChart(context.Background(), validRequest())
	var cErr *domain.ComputationError
	if !errors.As(err, &cErr) || cErr.Step != "Julian Day" {
		t.Fatalf("expected ComputationError at Julian Day, got %v", err)
	}
}

func TestChartService_Build_HousesFailure(t *testing.T) {
	eph := &mockEphemeris{
		housesFn: func(ctx context.Context, jd, lat, lon float64, system rune) ([]float64, []float64, error) {
			return nil, nil, fmt.Errorf("polar latitude unsupported")
		},
	}
	svc := usecases.NewChartService(eph)

	_, err := svc.BuildChart(context.Background(), validRequest())
	var cErr *domain.ComputationError
	if !errors.As(err, &cErr) || cErr.Step != "houses and angles" {
		t.Fatalf("expected ComputationError at houses, got %v", err)
	}
}

func TestChartService_Build_Deterministic(t *testing.T) {
	svc := usecases.NewChartService(&mockEphemeris{})
	req := validRequest()
	name := "Equinox"
	req.Name = &name

	first, err := svc.BuildChart(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.BuildChart(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expected byte-identical results for identical input")
	}
}

func TestChartService_BuildChart_NamePassthrough(t *testing.T) {
	svc := usecases.NewChartService(&mockEphemeris{})

	req := validRequest()
	result, err := svc.BuildChart(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != nil {
		t.Errorf("expected absent name to stay absent, got %v", *result.Name)
	}

	name := "Aldous"
	req.Name = &name
	result, err = svc.BuildChart(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name == nil || *result.Name != "Aldous" {
		t.Errorf("expected name passed through, got %v", result.Name)
	}
}
