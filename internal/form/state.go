package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// SlotCount is the number of (distillery, whisky) pairs on the form.
const SlotCount = 3

// ErrInvalidSlot is returned for slot numbers outside 1..SlotCount.
var ErrInvalidSlot = errors.New("invalid slot")

// Slot is one (distillery, whisky) selection.
type Slot struct {
	Distillery string `json:"distillery" form:"distillery" validate:"required"`
	Whisky     string `json:"whisky" form:"whisky" validate:"required"`
}

// DisplayName joins distillery and whisky the way the recommender expects.
func (s Slot) DisplayName() string {
	return strings.TrimSpace(s.Distillery + " " + s.Whisky)
}

// Trimmed returns s with surrounding whitespace removed from both fields, so a
// blank selection fails the required check.
func (s Slot) Trimmed() Slot {
	return Slot{Distillery: strings.TrimSpace(s.Distillery), Whisky: strings.TrimSpace(s.Whisky)}
}

// Empty reports whether neither field is set.
func (s Slot) Empty() bool {
	return s.Distillery == "" && s.Whisky == ""
}

// State is a visitor's form state, kept in their session between requests.
type State struct {
	Slots          [SlotCount]Slot `json:"slots"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// SlotIndex converts a 1-based slot number into an index.
func SlotIndex(n int) (int, error) {
	if n < 1 || n > SlotCount {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, n)
	}
	return n - 1, nil
}

// SetDistillery sets the distillery of slot n and clears its whisky when the
// distillery changes.
func (s *State) SetDistillery(n int, distillery string) error {
	i, err := SlotIndex(n)
	if err != nil {
		return err
	}
	if s.Slots[i].Distillery != distillery {
		s.Slots[i].Whisky = ""
	}
	s.Slots[i].Distillery = distillery
	return nil
}

// SetWhisky sets the whisky of slot n.
func (s *State) SetWhisky(n int, whisky string) error {
	i, err := SlotIndex(n)
	if err != nil {
		return err
	}
	s.Slots[i].Whisky = whisky
	return nil
}

// Slot returns slot n, or the zero slot for an invalid number.
func (s State) Slot(n int) Slot {
	i, err := SlotIndex(n)
	if err != nil {
		return Slot{}
	}
	return s.Slots[i]
}

// Encode serialises the state for session storage.
func (s State) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode form state: %w", err)
	}
	return string(b), nil
}

// DecodeState parses a stored state. Empty or corrupt input yields the zero state.
func DecodeState(raw string) State {
	var s State
	if raw == "" {
		return s
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}
	}
	return s
}
