// Package models defines server-side data models persisted by the stores.
package models

// User is the only persisted entity: an account with a score.
// PasswordHash is a bcrypt hash and is never serialized to clients.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Score        int64  `json:"score"`
}
