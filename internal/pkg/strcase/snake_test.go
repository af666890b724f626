package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"Label":      "label",
		"UserID":     "user_id",
		"HTTPServer": "http_server",
		"ShowUser":   "show_user",
		"Items[0]":   "items[0]",
		"Period30":   "period30",
		"already_ok": "already_ok",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
