package profile

import (
	"time"

	"github.com/google/uuid"
)

const DefaultRole = "player"

// Profile is the public face of an account. Its id is the auth user id.
type Profile struct {
	Id        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name"`
	AvatarUrl string     `json:"avatar_url"`
	Role      string     `json:"role"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Update is a partial patch of the editable profile fields.
type Update struct {
	Username  *string `json:"username,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarUrl *string `json:"avatar_url,omitempty"`
}
