package event

import "time"

const (
	UserRegisteredDestination string = "identity.user.registered"
	TokenIssuedDestination    string = "identity.token.issued"
	TokenRevokedDestination   string = "identity.token.revoked"
)

type UserRegisteredMessage struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TokenIssuedMessage struct {
	UserID     int64     `json:"user_id"`
	TokenID    int64     `json:"token_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TokenRevokedMessage struct {
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
