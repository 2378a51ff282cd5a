package user

import "github.com/google/uuid"

// User is the authenticated account resolved from a session token.
type User struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name,omitempty"`
}
