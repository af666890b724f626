package inbound

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	ID    int64  `json:"id,string"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (RegisterResponse) Message() string { return "Registration successful" }
func (RegisterResponse) StatusCode() int { return http.StatusCreated }

// Days accepts a JSON number or a numeric string. Anything else that is present
// counts as an unusable lifetime and is resolved to the minimum.
type Days struct {
	TTL authtoken.TTL
}

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		d.TTL = authtoken.DefaultTTL()
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d.TTL = authtoken.ParseTTL(s)
	default:
		n, err := strconv.Atoi(string(data))
		if err != nil {
			d.TTL = authtoken.TTLOf(0)
			return nil
		}
		d.TTL = authtoken.TTLOf(n)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Days     Days   `json:"days"`
	ShowUser bool   `json:"show_user"`
}

type UserResponse struct {
	ID    int64  `json:"id,string"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	CreatedAt time.Time     `json:"created_at"`
	User      *UserResponse `json:"user,omitempty"`
}

type RevokeRequest struct {
	Token string `json:"token"`
}

type RevokeResponse struct{}

func (RevokeResponse) Message() string { return "Token revoked" }

type SessionResponse struct {
	ID        int64      `json:"id,string"`
	Keep      bool       `json:"keep"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}
