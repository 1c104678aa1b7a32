package model

import "time"

// Identity is the authenticated principal attached to a request, if any.
type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// User is an account row backing API-key authentication.
type User struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	APIKey    string    `db:"api_key"`
	CreatedAt time.Time `db:"created_at"`
}

// Identity returns the identity triple for this user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}
