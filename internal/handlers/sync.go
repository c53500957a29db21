package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/catalog"
	"whiskyrec/internal/form"
	"whiskyrec/internal/metrics"
)

// SyncHandler keeps each whisky select in step with its distillery select.
type SyncHandler struct {
	store *catalog.Store
}

// NewSyncHandler creates a new dropdown sync handler.
func NewSyncHandler(store *catalog.Store) *SyncHandler {
	return &SyncHandler{store: store}
}

func slotParam(c fiber.Ctx) (int, error) {
	n, err := strconv.Atoi(c.Params("slot"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid slot")
	}
	if _, err := form.SlotIndex(n); err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid slot")
	}
	return n, nil
}

// Whiskies renders the options of whisky select N for the chosen distillery.
// The select sends its own value as distilleryN; a plain distillery param is
// accepted too.
func (h *SyncHandler) Whiskies(c fiber.Ctx) error {
	n, err := slotParam(c)
	if err != nil {
		return err
	}
	distillery := c.Query("distillery"+strconv.Itoa(n), c.Query("distillery"))

	st := loadState(c)
	if err := st.SetDistillery(n, distillery); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	saveState(c, st)

	opts := form.BuildWhiskyOptions(h.store.Catalog(), distillery, st.Slot(n).Whisky)
	metrics.RecordDropdownSync(opts.State.String())

	return c.Render("partials/whisky_options", fiber.Map{
		"Slot":     n,
		"Whiskies": opts,
	}, "")
}

// SelectWhisky remembers the whisky picked in slot N.
func (h *SyncHandler) SelectWhisky(c fiber.Ctx) error {
	n, err := slotParam(c)
	if err != nil {
		return err
	}
	whisky := c.FormValue("whisky"+strconv.Itoa(n), c.FormValue("whisky"))

	st := loadState(c)
	if err := st.SetWhisky(n, whisky); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	saveState(c, st)

	return c.SendStatus(fiber.StatusNoContent)
}
