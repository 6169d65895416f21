package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessEnvelope(t *testing.T) {
	e := Success("ok", map[string]int{"n": 1})

	assert.True(t, e.Success)
	assert.Equal(t, "ok", e.Message)
	assert.NotNil(t, e.Data)
	assert.Nil(t, e.Error)
}

func TestErrorEnvelope(t *testing.T) {
	e := Err("boom", CodeCreateError, "insert failed")

	assert.False(t, e.Success)
	assert.Nil(t, e.Data)
	require.NotNil(t, e.Error)
	assert.Equal(t, CodeCreateError, e.Error.Code)
	assert.Equal(t, "insert failed", e.Error.Details)
}

func TestNamedConstructors(t *testing.T) {
	tests := []struct {
		name string
		e    Envelope
		code string
	}{
		{"not found", NotFound("missing"), CodeNotFound},
		{"validation", Validation("bad input"), CodeValidation},
		{"conflict", Conflict("duplicate"), CodeConflict},
		{"unauthorized", Unauthorized("no"), CodeUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden},
		{"not acceptable", NotAcceptable("headers"), CodeNotAcceptable},
		{"hash error", HashError("bcrypt"), CodeHashError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.e.Success)
			assert.Nil(t, tt.e.Data)
			require.NotNil(t, tt.e.Error)
			assert.Equal(t, tt.code, tt.e.Error.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		e    Envelope
		want int
	}{
		{"success", Success("ok", nil), http.StatusOK},
		{"created", Created("ok", nil), http.StatusCreated},
		{"not found", NotFound("x"), http.StatusNotFound},
		{"validation", Validation("x"), http.StatusUnprocessableEntity},
		{"conflict", Conflict("x"), http.StatusConflict},
		{"unauthorized", Unauthorized("x"), http.StatusUnauthorized},
		{"forbidden", Forbidden("x"), http.StatusForbidden},
		{"hash error", HashError("x"), http.StatusInternalServerError},
		{"not acceptable", NotAcceptable("x"), http.StatusNotAcceptable},
		{"rate limited", Err("x", CodeRateLimited), http.StatusTooManyRequests},
		{"unknown code", Err("x", "SOMETHING_ELSE"), http.StatusInternalServerError},
		{"missing error info", Envelope{Success: false, Message: "x"}, http.StatusInternalServerError},
		{"operation codes", Err("x", CodeFetchError), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.e))
		})
	}
}

func TestJSONShape(t *testing.T) {
	raw, err := json.Marshal(Success("ok", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, string(raw))

	raw, err = json.Marshal(NotFound("missing"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"missing","error":{"code":"NOT_FOUND"}}`, string(raw))

	// the created flag changes the status only, never the body
	raw, err = json.Marshal(Created("ok", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, string(raw))
}
