package inbound

import (
	"context"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
	"github.com/shandysiswandi/otpkeeper/internal/vault/usecase"
)

type uc interface {
	Codes(ctx context.Context) ([]entity.Code, error)
	Generate(ctx context.Context, in usecase.GenerateInput) ([]usecase.GenerateOutput, error)

	Create(ctx context.Context, in usecase.CreateInput) (*entity.TOTP, error)
	Update(ctx context.Context, in usecase.UpdateInput) (*entity.TOTP, error)
	Delete(ctx context.Context, in usecase.DeleteInput) error
	QR(ctx context.Context, in usecase.QRInput) (*usecase.QROutput, error)

	Export(ctx context.Context, in usecase.ExportInput) (*usecase.ExportOutput, error)
	Import(ctx context.Context, in usecase.ImportInput) (*usecase.ImportOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/totp", end.Codes)
	r.POST("/api/public/generate-totp-code", end.Generate)

	// need authenticated
	r.POST("/api/management/totp", end.Create)
	r.PUT("/api/management/totp", end.Update)
	r.PATCH("/api/management/totp", end.Update)
	r.DELETE("/api/management/totp", end.Delete)
	r.GETRaw("/api/management/totp/:id/qr", end.QR)
	r.GETRaw("/api/management/export", end.Export)
	r.POST("/api/management/import", end.Import)
}
