package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

const healthTimeout = 2 * time.Second

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// StatsFunc reports runtime figures of one dependency, such as its
// connection pool.
type StatsFunc func() interface{}

type HealthHandler struct {
	checks  map[string]CheckFunc
	stats   map[string]StatsFunc
	version string
}

func NewHealthHandler(version string, checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks, stats: map[string]StatsFunc{}, version: version}
}

// WithStats adds fn's result to the health payload under name.
func (h *HealthHandler) WithStats(name string, fn StatsFunc) *HealthHandler {
	h.stats[name] = fn
	return h
}

// HealthCheck reports 503 when any dependency fails its probe.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	services := fiber.Map{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = "degraded"
			services[name] = err.Error()
			continue
		}
		services[name] = "connected"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	body := fiber.Map{
		"status":   status,
		"version":  h.version,
		"services": services,
	}
	if len(h.stats) > 0 {
		stats := fiber.Map{}
		for name, fn := range h.stats {
			stats[name] = fn()
		}
		body["stats"] = stats
	}
	return c.Status(code).JSON(body)
}
