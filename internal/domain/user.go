package domain

import "time"

// User is a persisted account. Pwd always holds the bcrypt hash, never the
// plaintext password.
type User struct {
	ID        int64
	Name      string
	Mail      string
	Pwd       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SafeUser is the projection of a User exposed over the API. It has no
// password field at all, so a SafeUser can never leak a hash. ID is omitted
// from the JSON form when zero.
type SafeUser struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Mail string `json:"mail"`
}

// Safe returns the API projection of u.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:   u.ID,
		Name: u.Name,
		Mail: u.Mail,
	}
}
