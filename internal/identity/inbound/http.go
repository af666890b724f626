package inbound

import (
	"context"

	"github.com/shandysiswandi/otpkeeper/internal/identity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/identity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Revoke(ctx context.Context, in usecase.RevokeInput) error

	UserInfo(ctx context.Context) (*entity.User, error)
	Sessions(ctx context.Context) ([]entity.Session, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/auth/register", end.Register)
	r.POST("/api/auth/login", end.Login)
	r.POST("/api/auth/token", end.Login)
	r.POST("/api/auth/revoke", end.Revoke)

	// need authenticated
	r.GET("/api/auth/user", end.UserInfo)
	r.GET("/api/auth/sessions", end.Sessions)
}
