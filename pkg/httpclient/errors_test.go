package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StringErrorField(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusUnauthorized, `{"error":"Invalid email or password."}`), "Login failed.")

	assert.Equal(t, "Invalid email or password.", err.Message)
	assert.Equal(t, "UNAUTHORIZED", err.Code)
	assert.Equal(t, http.StatusUnauthorized, err.Status)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestParseResponseError_StructuredErrorField(t *testing.T) {
	body := `{"error":{"code":"ITEM_UNAVAILABLE","message":"Jollof Rice is unavailable"}}`
	err := ParseResponseError(makeResponse(http.StatusBadRequest, body), "Failed to create order.")

	assert.Equal(t, "ITEM_UNAVAILABLE", err.Code)
	assert.Equal(t, "Jollof Rice is unavailable", err.Message)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestParseResponseError_MessageField(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusNotFound, `{"message":"Order not found"}`), "Failed to fetch order.")

	assert.Equal(t, "Order not found", err.Message)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestParseResponseError_FallbackMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html body", "<html>Bad Gateway</html>"},
		{"empty body", ""},
		{"empty error", `{"error":""}`},
		{"unrelated json", `{"ok":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(http.StatusBadGateway, tt.body), "Failed to fetch your orders.")
			assert.Equal(t, "Failed to fetch your orders.", err.Message)
			assert.Equal(t, "SERVICE_UNAVAILABLE", err.Code)
		})
	}
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
	assert.True(t, IsSuccess(201))
	assert.False(t, IsSuccess(302))
}
