package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "true client ip wins", headers: map[string]string{"True-Client-IP": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, remote: "10.0.0.1:1", want: "1.1.1.1"},
		{name: "vercel chain", headers: map[string]string{"X-Vercel-Forwarded-For": "3.3.3.3, 10.0.0.2"}, remote: "10.0.0.1:1", want: "3.3.3.3"},
		{name: "first valid forwarded entry", headers: map[string]string{"X-Forwarded-For": "unknown, 4.4.4.4"}, remote: "10.0.0.1:1", want: "4.4.4.4"},
		{name: "garbage falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "10.0.0.1:1", want: "10.0.0.1"},
		{name: "nothing usable", remote: "pipe", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(r))
		})
	}
}

func TestUnderMaintenance(t *testing.T) {
	patterns := []string{" /api/totp ", "/api/management/*", ""}

	assert.True(t, underMaintenance(patterns, "/api/totp"))
	assert.True(t, underMaintenance(patterns, "/api/management/totp/:id"))
	assert.False(t, underMaintenance(patterns, "/api/management"))
	assert.False(t, underMaintenance(patterns, "/api/auth/login"))
	assert.True(t, underMaintenance([]string{"*"}, "/health"))
	assert.False(t, underMaintenance(nil, "/health"))
}

func TestInboundCID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, inboundCID(r))

	r.Header.Set(HeaderRequestID, " req-9 ")
	assert.Equal(t, "req-9", inboundCID(r))

	r.Header.Set(HeaderCorrelationID, "cid-1")
	assert.Equal(t, "cid-1", inboundCID(r))

	r.Header.Set(HeaderCorrelationID, "bad\r\nvalue")
	assert.Equal(t, "req-9", inboundCID(r))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	r.Header.Set(HeaderCorrelationID, string(long))
	assert.Len(t, inboundCID(r), maxCorrelationIDLen)
}

func TestPeekJSONBody(t *testing.T) {
	mask := map[string]struct{}{"secret": {}}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"label":"a","secret":"JBSWY3DP"}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	assert.Equal(t, map[string]any{"label": "a", "secret": "***"}, peekJSONBody(r, mask))

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"a","secret":"JBSWY3DP"}`, string(rest))

	up := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("--x\r\n"))
	up.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	assert.Nil(t, peekJSONBody(up, mask))
}

func TestStatusRecorder_OnlyKeepsJSON(t *testing.T) {
	png := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	png.Header().Set("Content-Type", "image/png")
	_, _ = png.Write([]byte{0x89, 'P', 'N', 'G'})
	assert.Nil(t, png.loggedBody(nil))
	assert.Equal(t, http.StatusOK, png.code())
	assert.Equal(t, 4, png.bytes)

	js := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	js.Header().Set("Content-Type", "application/json")
	js.WriteHeader(http.StatusCreated)
	_, _ = js.Write([]byte(`{"token":"abc"}`))
	assert.Equal(t, map[string]any{"token": "***"}, js.loggedBody(map[string]struct{}{"token": {}}))
	assert.Equal(t, http.StatusCreated, js.code())
}
