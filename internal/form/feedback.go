package form

import (
	"errors"
	"fmt"
)

// FeedbackKind is the value of the feedback1 radio group.
type FeedbackKind string

const (
	FeedbackKnow     FeedbackKind = "know"
	FeedbackDontKnow FeedbackKind = "dont-know"
)

// ErrUnknownFeedbackKind is returned by ParseFeedbackKind for other values.
var ErrUnknownFeedbackKind = errors.New("unknown feedback kind")

// Label returns the text shown next to the radio button.
func (k FeedbackKind) Label() string {
	switch k {
	case FeedbackKnow:
		return "I know this whisky"
	case FeedbackDontKnow:
		return "I don't know this whisky"
	default:
		return string(k)
	}
}

// FeedbackKinds lists the radio choices in display order.
func FeedbackKinds() []FeedbackKind {
	return []FeedbackKind{FeedbackKnow, FeedbackDontKnow}
}

// ParseFeedbackKind validates a submitted radio value.
func ParseFeedbackKind(s string) (FeedbackKind, error) {
	switch FeedbackKind(s) {
	case FeedbackKnow, FeedbackDontKnow:
		return FeedbackKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeedbackKind, s)
}

// FeedbackVisibility says which branch-specific field is shown.
type FeedbackVisibility struct {
	RatingVisible bool
	ReasonVisible bool
}

// ToggleFeedback returns the visibility for the checked radio value.
// "know" shows the rating; every other value shows the reason. Exactly one is visible.
func ToggleFeedback(kind string) FeedbackVisibility {
	if FeedbackKind(kind) == FeedbackKnow {
		return FeedbackVisibility{RatingVisible: true}
	}
	return FeedbackVisibility{ReasonVisible: true}
}

// ExperienceLevels lists the optional experience choices in display order.
func ExperienceLevels() []string {
	return []string{"beginner", "enthusiast", "connoisseur"}
}
