package handlers

import (
	"github.com/gofiber/fiber/v3"

	"whiskyrec/internal/backend"
	"whiskyrec/internal/catalog"
	"whiskyrec/internal/config"
	"whiskyrec/internal/form"
)

// PageHandler renders the recommendation form page.
type PageHandler struct {
	store *catalog.Store
	cfg   *config.Config
}

// NewPageHandler creates a new page handler.
func NewPageHandler(store *catalog.Store, cfg *config.Config) *PageHandler {
	return &PageHandler{store: store, cfg: cfg}
}

// slotView is one (distillery, whisky) pair as rendered on the page.
type slotView struct {
	N            int
	Distillery   string
	Distilleries []form.Option
	Whiskies     form.WhiskyOptions
}

// Index renders the form with every distillery select populated and the
// visitor's previous choices restored.
func (h *PageHandler) Index(c fiber.Ctx) error {
	st := loadState(c)
	cat := h.store.Catalog()

	slots := make([]slotView, form.SlotCount)
	for i := range slots {
		n := i + 1
		s := st.Slot(n)
		slots[i] = slotView{
			N:            n,
			Distillery:   s.Distillery,
			Distilleries: form.DistilleryOptions(cat, s.Distillery),
			Whiskies:     form.BuildWhiskyOptions(cat, s.Distillery, s.Whisky),
		}
	}

	data := feedbackFormData(h.cfg, form.FeedbackKnow)
	data["Slots"] = slots
	data["Recommendation"] = recommendationText(st)
	data["Intro"] = h.cfg.Page.Intro
	data["User"] = currentUser(c)
	data["CatalogEmpty"] = cat.Len() == 0

	return c.Render("index", MergeBranding(data, h.cfg))
}

// recommendationText is the text currently displayed in #recommendedWhisky.
func recommendationText(st form.State) string {
	if st.Recommendation == "" {
		return ""
	}
	return backend.RecommendationText(st.Recommendation)
}
