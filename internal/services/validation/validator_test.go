package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func newValidator(t *testing.T) *RequestValidator {
	t.Helper()
	v, err := NewRequestValidator(DefaultCacheSize)
	require.NoError(t, err)
	return v
}

func TestDecodeAndValidate_ValidLogin(t *testing.T) {
	v := newValidator(t)

	var body loginBody
	err := v.DecodeAndValidate(SchemaLogin, []byte(`{"username":"apiuser","password":"apipass"}`), &body)
	require.NoError(t, err)

	assert.Equal(t, "apiuser", body.Username)
	assert.Equal(t, "apipass", body.Password)
}

func TestDecodeAndValidate_LoginViolations(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPath    string
		wantMessage string
	}{
		{"missing username", `{"password":"apipass"}`, "$.username", "Username cannot be blank"},
		{"empty username", `{"username":"","password":"apipass"}`, "$.username", "Username cannot be blank"},
		{"blank username", `{"username":"   ","password":"apipass"}`, "$.username", "Username cannot be blank"},
		{"missing password", `{"username":"apiuser"}`, "$.password", "Password cannot be blank"},
		{"both missing", `{}`, "$.username", "Username cannot be blank"},
		{"username too long", `{"username":"` + strings.Repeat("a", 65) + `","password":"x"}`, "$.username", "Username must be at most 64 characters"},
		{"password wrong type", `{"username":"apiuser","password":42}`, "$.password", "Password must be a string"},
		{"not an object", `["apiuser","apipass"]`, "$", "Request body must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t)

			var body loginBody
			err := v.DecodeAndValidate(SchemaLogin, []byte(tt.body), &body)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T: %v", err, err)
			require.NotEmpty(t, ve.Violations)
			assert.Equal(t, tt.wantPath, ve.Violations[0].Path)
			assert.Equal(t, tt.wantMessage, ve.Message())
		})
	}
}

func TestDecodeAndValidate_MalformedBody(t *testing.T) {
	v := newValidator(t)

	var body loginBody
	err := v.DecodeAndValidate(SchemaLogin, []byte(`{"username":`), &body)
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestDecodeAndValidate_UnknownSchema(t *testing.T) {
	v := newValidator(t)

	var body loginBody
	err := v.DecodeAndValidate("nope.json", []byte(`{}`), &body)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedBody)
}

func TestSchemaCache(t *testing.T) {
	v := newValidator(t)
	assert.Equal(t, 0, v.GetCacheSize())

	var body loginBody
	for i := 0; i < 3; i++ {
		_ = v.DecodeAndValidate(SchemaLogin, []byte(`{"username":"a","password":"b"}`), &body)
	}
	assert.Equal(t, 1, v.GetCacheSize())
}
