package api

import (
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/catalog"
	"whiskyrec/internal/form"
)

// CatalogHandler exposes the distillery catalog as JSON.
type CatalogHandler struct {
	store *catalog.Store
}

// NewCatalogHandler creates a new API catalog handler.
func NewCatalogHandler(store *catalog.Store) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// Distilleries returns the distinct distilleries in first-seen order.
func (h *CatalogHandler) Distilleries(c fiber.Ctx) error {
	names := h.store.Catalog().Distilleries()
	if names == nil {
		names = []string{}
	}
	return jsonSuccess(c, names)
}

// Whiskies returns the whisky dropdown options for one distillery.
func (h *CatalogHandler) Whiskies(c fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid distillery name")
	}
	return jsonSuccess(c, form.BuildWhiskyOptions(h.store.Catalog(), name, c.Query("selected")))
}

// Reload re-reads the catalog source. On failure the previous catalog stays active.
func (h *CatalogHandler) Reload(c fiber.Ctx) error {
	if err := h.store.Load(c.Context()); err != nil {
		slog.Error("catalog reload failed", "error", err)
		return jsonError(c, fiber.StatusBadGateway, "failed to reload catalog")
	}
	cat := h.store.Catalog()
	return jsonSuccess(c, fiber.Map{
		"rows":         cat.Len(),
		"distilleries": len(cat.Distilleries()),
		"loaded_at":    h.store.LoadedAt(),
	})
}
