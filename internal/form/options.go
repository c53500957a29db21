// Package form holds the state and view models of the recommendation form:
// dropdown options, the three selection slots and the feedback toggle.
package form

import (
	"fmt"

	"whiskyrec/internal/catalog"
)

// Placeholder and empty-state labels shown in the whisky dropdown.
const (
	PlaceholderLabel = "Select a whisky"
	NoWhiskiesLabel  = "No whiskies available"
)

// Option is one <option> of a select element.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
	Selected bool   `json:"selected"`
}

// OptionsState enumerates what a whisky dropdown can show.
type OptionsState int

const (
	// OptionsUnselected means no distillery is chosen; only the placeholder is shown.
	OptionsUnselected OptionsState = iota
	// OptionsAvailable means the placeholder is followed by the distillery's whiskies.
	OptionsAvailable
	// OptionsEmpty means the distillery has no whiskies; a disabled notice follows the placeholder.
	OptionsEmpty
)

func (s OptionsState) String() string {
	switch s {
	case OptionsUnselected:
		return "unselected"
	case OptionsAvailable:
		return "available"
	case OptionsEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON responses.
func (s OptionsState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *OptionsState) UnmarshalText(text []byte) error {
	for _, st := range []OptionsState{OptionsUnselected, OptionsAvailable, OptionsEmpty} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown options state %q", text)
}

// WhiskyOptions is the complete content of a whisky select.
type WhiskyOptions struct {
	State   OptionsState `json:"state"`
	Options []Option     `json:"options"`
}

// Selectable returns the values of the enabled options.
func (w WhiskyOptions) Selectable() []string {
	var out []string
	for _, o := range w.Options {
		if !o.Disabled {
			out = append(out, o.Value)
		}
	}
	return out
}

// DistilleryOptions returns one option per distinct distillery in first-seen order.
func DistilleryOptions(c *catalog.Catalog, selected string) []Option {
	names := c.Distilleries()
	opts := make([]Option, 0, len(names))
	for _, name := range names {
		opts = append(opts, Option{
			Value:    name,
			Label:    name,
			Selected: name == selected,
		})
	}
	return opts
}

// BuildWhiskyOptions builds the full option list for the whisky select that
// depends on distillery. The list always starts with a disabled placeholder,
// which stays selected unless selected names one of the listed whiskies.
func BuildWhiskyOptions(c *catalog.Catalog, distillery, selected string) WhiskyOptions {
	placeholder := Option{Value: "", Label: PlaceholderLabel, Disabled: true, Selected: true}

	if distillery == "" {
		return WhiskyOptions{State: OptionsUnselected, Options: []Option{placeholder}}
	}

	whiskies := c.Whiskies(distillery)
	if len(whiskies) == 0 {
		return WhiskyOptions{
			State: OptionsEmpty,
			Options: []Option{
				placeholder,
				{Value: "", Label: NoWhiskiesLabel, Disabled: true},
			},
		}
	}

	opts := make([]Option, 0, len(whiskies)+1)
	opts = append(opts, placeholder)
	picked := false
	for _, w := range whiskies {
		o := Option{Value: w, Label: w}
		if !picked && selected != "" && w == selected {
			o.Selected = true
			picked = true
		}
		opts = append(opts, o)
	}
	if picked {
		opts[0].Selected = false
	}

	return WhiskyOptions{State: OptionsAvailable, Options: opts}
}
