package inbound

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
)

// ID accepts an entry id as a JSON string or number.
type ID int64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*id = ID(n)
	return nil
}

type CodeResponse struct {
	ID          int64      `json:"id,string"`
	Label       string     `json:"label"`
	Icon        *string    `json:"icon"`
	OTP         string     `json:"otp,omitempty"`
	Digits      int        `json:"digits,omitempty"`
	Period      int        `json:"period,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ExpiresIn   int64      `json:"expires_in_ms,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type GenerateItemRequest struct {
	Label     string `json:"label"`
	Secret    string `json:"secret"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Algorithm string `json:"algorithm"`
	Encoding  string `json:"encoding"`
}

type GenerateRequest struct {
	Items []GenerateItemRequest `json:"items"`
}

type GenerateItemResponse struct {
	Label     string     `json:"label,omitempty"`
	OTP       string     `json:"otp,omitempty"`
	Digits    int        `json:"digits,omitempty"`
	Period    int        `json:"period,omitempty"`
	IssuedAt  *time.Time `json:"generated_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type CreateRequest struct {
	Label     string              `json:"label"`
	Secret    string              `json:"secret"`
	Digits    int                 `json:"digits"`
	Period    int                 `json:"period"`
	Algorithm string              `json:"algorithm"`
	Encoding  string              `json:"encoding"`
	Icon      *string             `json:"icon"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	Sort      *int32              `json:"sort"`
}

type UpdateRequest struct {
	ID        ID                  `json:"id"`
	Label     *string             `json:"label"`
	Secret    *string             `json:"secret"`
	Digits    *int                `json:"digits"`
	Period    *int                `json:"period"`
	Algorithm *string             `json:"algorithm"`
	Encoding  *string             `json:"encoding"`
	Icon      *string             `json:"icon"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	Sort      *int32              `json:"sort"`
}

type DeleteRequest struct {
	ID ID `json:"id"`
}

// TOTPResponse never carries the secret; only the export endpoint returns it.
type TOTPResponse struct {
	ID        int64               `json:"id,string"`
	Label     string              `json:"label"`
	Icon      *string             `json:"icon"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	Sort      *int32              `json:"sort"`
	Digits    int                 `json:"digits"`
	Period    int                 `json:"period"`
	Algorithm string              `json:"algorithm,omitempty"`
	Encoding  string              `json:"encoding,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type CreateResponse struct {
	TOTPResponse
}

func (CreateResponse) Message() string { return "TOTP created" }
func (CreateResponse) StatusCode() int { return http.StatusCreated }

type UpdateResponse struct {
	TOTPResponse
}

func (UpdateResponse) Message() string { return "TOTP updated" }

type DeleteResponse struct{}

func (DeleteResponse) Message() string { return "TOTP deleted" }

// ImportRecord mirrors an exported record; id is accepted and ignored.
type ImportRecord struct {
	ID        json.RawMessage     `json:"id"`
	Label     string              `json:"label"`
	Secret    string              `json:"secret"`
	Digits    int                 `json:"digits"`
	Period    int                 `json:"period"`
	Algorithm string              `json:"algorithm"`
	Encoding  string              `json:"encoding"`
	Icon      *string             `json:"icon"`
	Metadata  valueobject.JSONMap `json:"metadata"`
	Sort      *int32              `json:"sort"`
}

// ImportRequest accepts an export document as is.
type ImportRequest struct {
	Version     string          `json:"version"`
	ExportedAt  json.RawMessage `json:"exported_at"`
	Count       int             `json:"count"`
	SnapshotURL string          `json:"snapshot_url"`
	TOTPs       []ImportRecord  `json:"totps"`
}

type ImportResponse struct {
	Imported int            `json:"imported"`
	TOTPs    []TOTPResponse `json:"totps"`
}

func (r ImportResponse) Message() string {
	return "Imported " + strconv.Itoa(r.Imported) + " TOTP entries"
}
func (ImportResponse) StatusCode() int { return http.StatusCreated }
