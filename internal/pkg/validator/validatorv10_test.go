package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,password"`
	Algorithm string `validate:"omitempty,otp_algorithm"`
	Encoding  string `validate:"omitempty,otp_encoding"`
	ShowUser  bool
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	require.NoError(t, v.Validate(sampleRequest{
		Email:     "demo@email.com",
		Password:  "pass123",
		Algorithm: "sha-256",
		Encoding:  "HEX",
	}))

	err = v.Validate(sampleRequest{
		Email:     "nope",
		Password:  "123",
		Algorithm: "MD5",
		Encoding:  "utf7",
	})
	var verr V10ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Len(t, verr.Values(), 4)
	assert.Contains(t, verr, "email")
	assert.Equal(t, "password must be 6-72 characters", verr["password"])
	assert.Equal(t, "algorithm must be one of SHA-1, SHA-256, SHA-384 or SHA-512", verr["algorithm"])
	assert.Equal(t, "encoding must be one of ascii, hex or base32", verr["encoding"])
	assert.NotEmpty(t, verr.Error())
}
