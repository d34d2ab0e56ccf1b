package http

import (
	"github.com/astrozaddy/astrochart/internal/adapters/valkey"
	"github.com/astrozaddy/astrochart/internal/core/ports"
	"github.com/astrozaddy/astrochart/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Charts    *usecases.ChartService
	Phases    *usecases.PhaseService
	Ephemeris ports.Ephemeris
	Cache     *valkey.Cache
}
