package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/identity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

// HTTPEndpoint exposes registration, token and account handlers.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

// Login serves both the login and the token endpoint.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TTL:      req.Days.TTL,
		ShowUser: req.ShowUser,
	})
	if err != nil {
		return nil, err
	}

	out := LoginResponse{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		CreatedAt: resp.CreatedAt,
	}
	if resp.User != nil {
		out.User = &UserResponse{ID: resp.User.ID, Name: resp.User.Name, Email: resp.User.Email}
	}

	return out, nil
}

func (h *HTTPEndpoint) Revoke(r *router.Request) (any, error) {
	var req RevokeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Revoke(r.Context(), usecase.RevokeInput{Token: req.Token}); err != nil {
		return nil, err
	}

	return RevokeResponse{}, nil
}

func (h *HTTPEndpoint) UserInfo(r *router.Request) (any, error) {
	user, err := h.uc.UserInfo(r.Context())
	if err != nil {
		return nil, err
	}

	return UserResponse{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (h *HTTPEndpoint) Sessions(r *router.Request) (any, error) {
	sessions, err := h.uc.Sessions(r.Context())
	if err != nil {
		return nil, err
	}

	return lo.Map(sessions, func(s entity.Session, _ int) SessionResponse {
		return SessionResponse{
			ID:        s.ID,
			Keep:      s.Keep,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		}
	}), nil
}
