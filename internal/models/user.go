package models

// User is a visitor signed in via OIDC. Only the claims needed to attribute
// feedback are kept; nothing is stored server-side besides the session.
type User struct {
	Sub   string `json:"sub"` // OIDC subject identifier
	Email string `json:"email"`
	Name  string `json:"name"`
}

// DisplayName returns the best human-readable identifier for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}

// Attribution returns the value recorded as the feedback author.
func (u *User) Attribution() string {
	if u == nil {
		return ""
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Sub
}
