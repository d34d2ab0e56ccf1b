package http

import (
	"context"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		})
	}
}

// ReadyHandler checks the ephemeris provider and cache.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string)
		allOK := true

		// Ephemeris: converting a known epoch exercises the library without
		// touching the data files for the heavier body computations.
		if deps.Ephemeris != nil {
			jd, err := deps.Ephemeris.JulianDayUT(ctx, 2000, 1, 1, 12.0)
			switch {
			case err != nil:
				checks["ephemeris"] = "error: " + err.Error()
				allOK = false
			case math.Abs(jd-2451545.0) > 1e-6:
				checks["ephemeris"] = "error: J2000 epoch mismatch"
				allOK = false
			default:
				checks["ephemeris"] = "ok"
			}
		} else {
			checks["ephemeris"] = "not configured"
			allOK = false
		}

		// Valkey cache is optional; only phase lookups use it.
		if deps.Cache != nil {
			_, err := deps.Cache.Get(ctx, "__health_check__")
			// A missing key ("valkey nil message") is the expected answer.
			if err != nil && err.Error() != "valkey nil message" {
				checks["cache"] = "error: " + err.Error()
				allOK = false
			} else {
				checks["cache"] = "ok"
			}
		} else {
			checks["cache"] = "not configured"
		}

		status := "ready"
		code := 200
		if !allOK {
			status = "not ready"
			code = 503
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
