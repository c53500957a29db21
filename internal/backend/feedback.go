package backend

import (
	"context"

	"whiskyrec/internal/models"
)

// SubmitFeedback posts a feedback record. Any 2xx answer is success; the body is ignored.
func (c *Client) SubmitFeedback(ctx context.Context, rec models.FeedbackRecord) error {
	_, err := c.post(ctx, "feedback", c.feedbackPath, rec)
	return err
}
