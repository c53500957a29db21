package form

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"whiskyrec/internal/catalog"
)

const sampleCSV = "Distillery,Whisky\nGlenfiddich,12yo\nGlenfiddich,15yo\nMacallan,18yo\n"

func TestDistilleryOptions(t *testing.T) {
	c := catalog.Parse("d,w\nMacallan,12yo\nGlenfiddich,12yo\nMacallan,18yo\n")

	got := DistilleryOptions(c, "Glenfiddich")
	want := []Option{
		{Value: "Macallan", Label: "Macallan"},
		{Value: "Glenfiddich", Label: "Glenfiddich", Selected: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DistilleryOptions() mismatch (-want +got):\n%s", diff)
	}

	if got := DistilleryOptions(catalog.Empty(), ""); len(got) != 0 {
		t.Errorf("DistilleryOptions(empty) = %v, want none", got)
	}
}

func TestBuildWhiskyOptionsEndToEnd(t *testing.T) {
	c := catalog.Parse(sampleCSV)

	tests := []struct {
		name       string
		distillery string
		state      OptionsState
		selectable []string
	}{
		{"glenfiddich", "Glenfiddich", OptionsAvailable, []string{"12yo", "15yo"}},
		{"macallan", "Macallan", OptionsAvailable, []string{"18yo"}},
		{"unlisted distillery", "Ardbeg", OptionsEmpty, nil},
		{"nothing selected", "", OptionsUnselected, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildWhiskyOptions(c, tt.distillery, "")
			if got.State != tt.state {
				t.Errorf("State = %v, want %v", got.State, tt.state)
			}
			if diff := cmp.Diff(tt.selectable, got.Selectable()); diff != "" {
				t.Errorf("Selectable() mismatch (-want +got):\n%s", diff)
			}

			first := got.Options[0]
			if first.Label != PlaceholderLabel || !first.Disabled || !first.Selected || first.Value != "" {
				t.Errorf("first option = %+v, want selected disabled placeholder", first)
			}
		})
	}
}

func TestBuildWhiskyOptionsEmptyState(t *testing.T) {
	got := BuildWhiskyOptions(catalog.Parse(sampleCSV), "Talisker", "")

	want := []Option{
		{Value: "", Label: PlaceholderLabel, Disabled: true, Selected: true},
		{Value: "", Label: NoWhiskiesLabel, Disabled: true},
	}
	if diff := cmp.Diff(want, got.Options); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}

	noticeCount := 0
	for _, o := range got.Options {
		if o.Label == NoWhiskiesLabel {
			noticeCount++
		}
	}
	if noticeCount != 1 {
		t.Errorf("got %d %q entries, want exactly 1", noticeCount, NoWhiskiesLabel)
	}
}

func TestBuildWhiskyOptionsKeepsDuplicates(t *testing.T) {
	c := catalog.Parse("d,w\nBowmore,12yo\nBowmore,12yo\nBowmore,18yo\n")

	got := BuildWhiskyOptions(c, "Bowmore", "")
	if diff := cmp.Diff([]string{"12yo", "12yo", "18yo"}, got.Selectable()); diff != "" {
		t.Errorf("Selectable() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWhiskyOptionsRestoresSelection(t *testing.T) {
	c := catalog.Parse(sampleCSV)

	got := BuildWhiskyOptions(c, "Glenfiddich", "15yo")
	if got.Options[0].Selected {
		t.Error("placeholder still selected although a listed whisky was restored")
	}
	var selected []string
	for _, o := range got.Options {
		if o.Selected {
			selected = append(selected, o.Value)
		}
	}
	if diff := cmp.Diff([]string{"15yo"}, selected); diff != "" {
		t.Errorf("selected mismatch (-want +got):\n%s", diff)
	}

	stale := BuildWhiskyOptions(c, "Glenfiddich", "18yo")
	if !stale.Options[0].Selected {
		t.Error("placeholder should stay selected for a whisky of another distillery")
	}
}

func TestToggleFeedback(t *testing.T) {
	tests := []struct {
		kind string
		want FeedbackVisibility
	}{
		{"know", FeedbackVisibility{RatingVisible: true}},
		{"dont-know", FeedbackVisibility{ReasonVisible: true}},
		{"", FeedbackVisibility{ReasonVisible: true}},
		{"something-else", FeedbackVisibility{ReasonVisible: true}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got := ToggleFeedback(tt.kind)
			if got != tt.want {
				t.Errorf("ToggleFeedback(%q) = %+v, want %+v", tt.kind, got, tt.want)
			}
			if got.RatingVisible == got.ReasonVisible {
				t.Errorf("ToggleFeedback(%q): exactly one field must be visible, got %+v", tt.kind, got)
			}
		})
	}
}

func TestParseFeedbackKind(t *testing.T) {
	for _, k := range FeedbackKinds() {
		got, err := ParseFeedbackKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseFeedbackKind(%q) = %q, %v", k, got, err)
		}
	}
	for _, bad := range []string{"", "dont_know", "KNOW", "don't know"} {
		if _, err := ParseFeedbackKind(bad); !errors.Is(err, ErrUnknownFeedbackKind) {
			t.Errorf("ParseFeedbackKind(%q) error = %v, want ErrUnknownFeedbackKind", bad, err)
		}
	}
}

func TestStateSlots(t *testing.T) {
	var s State

	if err := s.SetDistillery(1, "Glenfiddich"); err != nil {
		t.Fatalf("SetDistillery() error = %v", err)
	}
	if err := s.SetWhisky(1, "12yo"); err != nil {
		t.Fatalf("SetWhisky() error = %v", err)
	}
	if got := s.Slot(1).DisplayName(); got != "Glenfiddich 12yo" {
		t.Errorf("DisplayName() = %q, want %q", got, "Glenfiddich 12yo")
	}

	// Same distillery keeps the whisky.
	s.SetDistillery(1, "Glenfiddich")
	if s.Slot(1).Whisky != "12yo" {
		t.Errorf("whisky cleared on unchanged distillery")
	}

	// A new distillery clears it.
	s.SetDistillery(1, "Macallan")
	if s.Slot(1).Whisky != "" {
		t.Errorf("whisky = %q after distillery change, want empty", s.Slot(1).Whisky)
	}

	for _, n := range []int{0, 4, -1} {
		if err := s.SetWhisky(n, "x"); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("SetWhisky(%d) error = %v, want ErrInvalidSlot", n, err)
		}
	}
	if got := s.Slot(9); !got.Empty() {
		t.Errorf("Slot(9) = %+v, want empty", got)
	}
}

func TestStateEncoding(t *testing.T) {
	s := State{Recommendation: "Recommended Whisky: Macallan 18yo"}
	s.Slots[0] = Slot{Distillery: "Glenfiddich", Whisky: "12yo"}
	s.Slots[2] = Slot{Distillery: "Macallan"}

	raw, err := s.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if diff := cmp.Diff(s, DecodeState(raw)); diff != "" {
		t.Errorf("DecodeState() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(State{}, DecodeState("{not json")); diff != "" {
		t.Errorf("DecodeState(corrupt) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(State{}, DecodeState("")); diff != "" {
		t.Errorf("DecodeState(empty) mismatch (-want +got):\n%s", diff)
	}
}

func TestGuardCancelsPrevious(t *testing.T) {
	g := NewGuard()

	first, releaseFirst := g.Begin(context.Background(), "sess:recommend")
	second, releaseSecond := g.Begin(context.Background(), "sess:recommend")

	select {
	case <-first.Done():
	default:
		t.Fatal("first request was not cancelled by the second")
	}
	if second.Err() != nil {
		t.Fatalf("second request cancelled: %v", second.Err())
	}

	// Releasing the stale request must not drop the newer entry.
	releaseFirst()
	if got := g.InFlight(); got != 1 {
		t.Errorf("InFlight() = %d after stale release, want 1", got)
	}

	releaseSecond()
	if got := g.InFlight(); got != 0 {
		t.Errorf("InFlight() = %d after release, want 0", got)
	}
	if second.Err() == nil {
		t.Error("released context still live")
	}
}

func TestGuardKeysAreIndependent(t *testing.T) {
	g := NewGuard()

	a, releaseA := g.Begin(context.Background(), "a:recommend")
	defer releaseA()
	b, releaseB := g.Begin(context.Background(), "b:recommend")
	defer releaseB()

	if a.Err() != nil || b.Err() != nil {
		t.Errorf("independent keys cancelled each other: a=%v b=%v", a.Err(), b.Err())
	}
}
