package models

import "testing"

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected string
	}{
		{"nil user", nil, ""},
		{"name wins", &User{Sub: "s1", Email: "a@example.com", Name: "Alice"}, "Alice"},
		{"email fallback", &User{Sub: "s1", Email: "a@example.com"}, "a@example.com"},
		{"sub fallback", &User{Sub: "s1"}, "s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.expected {
				t.Errorf("DisplayName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUser_Attribution(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		expected string
	}{
		{"nil user", nil, ""},
		{"email preferred", &User{Sub: "s1", Email: "a@example.com", Name: "Alice"}, "a@example.com"},
		{"sub fallback", &User{Sub: "s1", Name: "Alice"}, "s1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Attribution(); got != tt.expected {
				t.Errorf("Attribution() = %q, want %q", got, tt.expected)
			}
		})
	}
}
