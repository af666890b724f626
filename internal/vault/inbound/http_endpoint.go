package inbound

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/otp"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
	"github.com/shandysiswandi/otpkeeper/internal/vault/entity"
	"github.com/shandysiswandi/otpkeeper/internal/vault/usecase"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	exportFilename       = "totps-export.json"
	importFileField      = "file"
)

// HTTPEndpoint exposes code generation and secret management handlers.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Codes(r *router.Request) (any, error) {
	codes, err := h.uc.Codes(r.Context())
	if err != nil {
		return nil, err
	}

	return lo.Map(codes, func(c entity.Code, _ int) CodeResponse {
		out := CodeResponse{ID: c.ID, Label: c.Label, Icon: c.Icon}
		if c.Err != nil {
			out.Error = itemError(c.Err)
			return out
		}
		out.OTP = c.Result.Code
		out.Digits = c.Result.Digits
		out.Period = c.Result.Period
		out.GeneratedAt = &c.Result.IssuedAt
		out.ExpiresAt = &c.Result.ExpiresAt
		out.ExpiresIn = c.Result.ExpiresAt.Sub(c.Result.IssuedAt).Milliseconds()
		return out
	}), nil
}

func (h *HTTPEndpoint) Generate(r *router.Request) (any, error) {
	var req GenerateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	results, err := h.uc.Generate(r.Context(), usecase.GenerateInput{
		Items: lo.Map(req.Items, func(it GenerateItemRequest, _ int) usecase.GenerateItem {
			return usecase.GenerateItem{
				Label:     it.Label,
				Secret:    it.Secret,
				Digits:    it.Digits,
				Period:    it.Period,
				Algorithm: it.Algorithm,
				Encoding:  it.Encoding,
			}
		}),
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(results, func(g usecase.GenerateOutput, _ int) GenerateItemResponse {
		out := GenerateItemResponse{Label: g.Label}
		if g.Err != nil {
			out.Error = itemError(g.Err)
			return out
		}
		out.OTP = g.Result.Code
		out.Digits = g.Result.Digits
		out.Period = g.Result.Period
		out.IssuedAt = &g.Result.IssuedAt
		out.ExpiresAt = &g.Result.ExpiresAt
		return out
	}), nil
}

func (h *HTTPEndpoint) Create(r *router.Request) (any, error) {
	var req CreateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	t, err := h.uc.Create(r.Context(), usecase.CreateInput{
		Label:     req.Label,
		Secret:    req.Secret,
		Digits:    req.Digits,
		Period:    req.Period,
		Algorithm: req.Algorithm,
		Encoding:  req.Encoding,
		Icon:      req.Icon,
		Metadata:  req.Metadata,
		Sort:      req.Sort,
	})
	if err != nil {
		return nil, err
	}

	return CreateResponse{toTOTPResponse(*t)}, nil
}

// Update serves both PUT and PATCH; absent fields are left unchanged.
func (h *HTTPEndpoint) Update(r *router.Request) (any, error) {
	var req UpdateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	t, err := h.uc.Update(r.Context(), usecase.UpdateInput{
		ID: int64(req.ID),
		Patch: entity.TOTPPatch{
			Label:     req.Label,
			Secret:    req.Secret,
			Digits:    req.Digits,
			Period:    req.Period,
			Algorithm: req.Algorithm,
			Encoding:  req.Encoding,
			Icon:      req.Icon,
			Metadata:  req.Metadata,
			Sort:      req.Sort,
		},
	})
	if err != nil {
		return nil, err
	}

	return UpdateResponse{toTOTPResponse(*t)}, nil
}

func (h *HTTPEndpoint) Delete(r *router.Request) (any, error) {
	var req DeleteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Delete(r.Context(), usecase.DeleteInput{ID: int64(req.ID)}); err != nil {
		return nil, err
	}

	return DeleteResponse{}, nil
}

func (h *HTTPEndpoint) QR(w http.ResponseWriter, r *router.Request) error {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return err
	}

	out, err := h.uc.QR(r.Context(), usecase.QRInput{ID: id})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PNG)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.PNG); err != nil {
		slog.WarnContext(r.Context(), "failed to write qr response", "error", err)
	}
	return nil
}

// Export writes the bare export document as a download, outside the usual envelope.
func (h *HTTPEndpoint) Export(w http.ResponseWriter, r *router.Request) error {
	snapshot, err := r.GetQueryBool("snapshot")
	if err != nil {
		return err
	}

	out, err := h.uc.Export(r.Context(), usecase.ExportInput{Snapshot: snapshot})
	if err != nil {
		return err
	}

	doc := usecase.NewDocument(out.ExportedAt, out.TOTPs)
	doc.SnapshotURL = out.SnapshotURL

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		slog.WarnContext(r.Context(), "failed to write export response", "error", err)
	}
	return nil
}

// Import takes the document either as the JSON body or as an uploaded file in the "file" field.
func (h *HTTPEndpoint) Import(r *router.Request) (any, error) {
	var req ImportRequest
	decode := r.DecodeBody
	if r.IsMultipart() {
		decode = func(dst any) error { return r.DecodeFile(importFileField, dst) }
	}
	if err := decode(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Import(r.Context(), usecase.ImportInput{
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
		TOTPs: lo.Map(req.TOTPs, func(rec ImportRecord, _ int) usecase.ImportItem {
			return usecase.ImportItem{
				Label:     rec.Label,
				Secret:    rec.Secret,
				Digits:    rec.Digits,
				Period:    rec.Period,
				Algorithm: rec.Algorithm,
				Encoding:  rec.Encoding,
				Icon:      rec.Icon,
				Metadata:  rec.Metadata,
				Sort:      rec.Sort,
			}
		}),
	})
	if err != nil {
		return nil, err
	}

	return ImportResponse{
		Imported: len(out.TOTPs),
		TOTPs:    lo.Map(out.TOTPs, func(t entity.TOTP, _ int) TOTPResponse { return toTOTPResponse(t) }),
	}, nil
}

func toTOTPResponse(t entity.TOTP) TOTPResponse {
	return TOTPResponse{
		ID:        t.ID,
		Label:     t.Label,
		Icon:      t.Icon,
		Metadata:  t.Metadata,
		Sort:      t.Sort,
		Digits:    t.Digits,
		Period:    t.Period,
		Algorithm: t.Algorithm,
		Encoding:  t.Encoding,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// itemError hides internal failures behind a generic message.
func itemError(err error) string {
	var perr *otp.ParamError
	if errors.As(err, &perr) {
		return "invalid " + perr.Field + ": " + perr.Reason
	}
	return "secret cannot be used"
}
