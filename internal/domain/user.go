package domain

import (
	"time"
)

// User is a registered chat user. Only the bcrypt hash of the password
// is ever stored.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
