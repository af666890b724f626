package entity

import "time"

type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// UserCredential is what login needs to check a password.
type UserCredential struct {
	ID       int64
	Name     string
	Email    string
	Password string
	Role     Role
}

type NewUser struct {
	ID       int64
	Name     string
	Email    string
	Password string
	Role     Role
}

// Session is an auth token as shown to its owner. The token value itself is never read back.
type Session struct {
	ID        int64
	Keep      bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}
