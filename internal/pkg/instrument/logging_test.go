package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_MasksAndEnriches(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &Config{
		ServiceName: "otpkeeper",
		MaskFields:  []string{"password", "Secret", "token"},
	}, nil))

	ctx := SetCorrelationID(context.Background(), "cid-1")
	log.InfoContext(ctx, "login",
		"password", "pass123",
		"body", map[string]any{"email": "demo@email.com", "secret": "JBSWY3DPEHPK3PXP"},
		"raw", `{"token":"c8eeaabf3ef14ffc811cab37ba16753f","days":7}`,
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))

	assert.Equal(t, "***", line["password"])
	assert.Equal(t, "***", line["body"].(map[string]any)["secret"])
	assert.Equal(t, "demo@email.com", line["body"].(map[string]any)["email"])
	assert.JSONEq(t, `{"token":"***","days":7}`, line["raw"].(string))
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "otpkeeper", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
}

func TestNewHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &Config{LogLevel: "warn"}, nil))

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewHandler_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &Config{LogFormat: "text", MaskFields: []string{"token"}}, nil))

	log.With("token", "abc").Info("hello")
	assert.Contains(t, buf.String(), "token=***")
	assert.NotContains(t, buf.String(), "abc")
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "x", GetCorrelationID(SetCorrelationID(context.Background(), "x")))
}
