package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"whiskyrec/internal/form"
)

// RecommendRequest is the body of the recommend endpoint.
type RecommendRequest struct {
	WhiskyNames []string `json:"whisky_names"`
}

// RecommendResponse is the success body of the recommend endpoint.
type RecommendResponse struct {
	RecommendedWhisky string `json:"recommended_whisky"`
}

// WhiskyNames returns the distillery-qualified name of every slot, in slot order.
func WhiskyNames(slots [form.SlotCount]form.Slot) []string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.DisplayName()
	}
	return names
}

// Recommend asks the backend for a recommendation based on the three slots.
func (c *Client) Recommend(ctx context.Context, slots [form.SlotCount]form.Slot) (string, error) {
	body, err := c.post(ctx, "recommend", c.recommendPath, RecommendRequest{WhiskyNames: WhiskyNames(slots)})
	if err != nil {
		return "", err
	}

	var resp RecommendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("recommend: %w: %v", ErrMalformedResponse, err)
	}

	name := strings.TrimSpace(resp.RecommendedWhisky)
	if name == "" {
		return "", fmt.Errorf("recommend: %w", ErrEmptyRecommendation)
	}
	return name, nil
}

// RecommendationText formats a recommendation for display.
func RecommendationText(name string) string {
	return "Recommended Whisky: " + name
}
