package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/astrozaddy/astrochart/internal/core/domain"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
	"github.com/astrozaddy/astrochart/internal/pkg/metrics"
)

// BuildChartHandler computes a natal chart for the posted request.
func BuildChartHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.ChartRequest
		if err := c.BodyParser(&req); err != nil {
			metrics.ChartsBuilt.WithLabelValues("validation_error").Inc()
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		start := time.Now()
		result, err := deps.Charts.BuildChart(c.Context(), req)
		if err != nil {
			recordChartFailure(err)
			return errDomain(c, err)
		}
		metrics.ChartsBuilt.WithLabelValues("ok").Inc()
		metrics.ChartBuildDuration.Observe(time.Since(start).Seconds())

		return c.JSON(result)
	}
}

// NextPhasesHandler returns the next New Moon and Full Moon after `after`.
func NextPhasesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("after")
		if raw == "" {
			metrics.PhaseLookups.WithLabelValues("validation_error").Inc()
			return errBadRequest(c, "after query parameter is required (ISO-8601 UTC, e.g. 2024-03-20T03:06:00Z)")
		}
		after, err := usecases.ParseDatetimeUTC(raw)
		if err != nil {
			metrics.PhaseLookups.WithLabelValues("validation_error").Inc()
			return errDomain(c, err)
		}

		phases, err := deps.Phases.NextPhases(c.Context(), after)
		if err != nil {
			metrics.PhaseLookups.WithLabelValues("computation_error").Inc()
			metrics.EphemerisErrors.WithLabelValues("phases").Inc()
			return errDomain(c, err)
		}
		metrics.PhaseLookups.WithLabelValues("ok").Inc()

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(phases)
	}
}

func recordChartFailure(err error) {
	var cErr *domain.ComputationError
	if !errors.As(err, &cErr) {
		metrics.ChartsBuilt.WithLabelValues("validation_error").Inc()
		return
	}
	metrics.ChartsBuilt.WithLabelValues("computation_error").Inc()
	switch cErr.Step {
	case "Julian Day":
		metrics.EphemerisErrors.WithLabelValues("julian_day").Inc()
	case "houses and angles":
		metrics.EphemerisErrors.WithLabelValues("houses").Inc()
	default:
		metrics.EphemerisErrors.WithLabelValues("body").Inc()
	}
}
