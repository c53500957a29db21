package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/catalog"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and catalog size.
type HealthHandler struct {
	store *catalog.Store
	db    Pinger
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(store *catalog.Store, db Pinger) *HealthHandler {
	return &HealthHandler{store: store, db: db}
}

// Healthz always answers 200 while the process serves requests; an empty
// catalog or an unreachable database are reported, not fatal.
func (h *HealthHandler) Healthz(c fiber.Ctx) error {
	resp := fiber.Map{
		"status":       "ok",
		"catalog_rows": h.store.Catalog().Len(),
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp["database"] = "unreachable"
		} else {
			resp["database"] = "ok"
		}
	}
	return c.JSON(resp)
}
