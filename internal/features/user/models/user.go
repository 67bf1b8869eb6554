package models

import "time"

// User is the per-user aggregate. All mutation goes through the user
// service under the per-user lock; nothing writes fields piecemeal.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	IsPremium        bool      `json:"is_premium"`
	Subscription     bool      `json:"subscription"`
	Tokens           int       `json:"tokens"`
	SelectedCategory string    `json:"selected_category"`
	Cursor           int       `json:"cursor"`
	TokenExpiry      int64     `json:"token_expiry"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasBalance reports whether the user can spend a view. Subscribers and
// premium users never consume tokens.
func (u *User) HasBalance() bool {
	return u.Subscription || u.IsPremium || u.Tokens > 0
}
