package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

// maxErrorBody caps how much of an error body is read.
const maxErrorBody = 1 << 20

// errorBody covers the error shapes the backend emits:
//
//	{"error": "message"}
//	{"error": {"code": "...", "message": "..."}}
//	{"message": "..."}
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

type structuredError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx response and converts it
// into an AppError. The server's message is preserved when present, otherwise
// fallback is used. The body is consumed and closed.
func ParseResponseError(resp *http.Response, fallback string) *apperrors.AppError {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apperrors.FromStatus(resp.StatusCode, "", fallback)
	}

	code, message := extractMessage(bodyBytes)
	if message == "" {
		message = fallback
	}
	return apperrors.FromStatus(resp.StatusCode, code, message)
}

func extractMessage(body []byte) (code, message string) {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ""
	}

	if len(parsed.Error) > 0 {
		var text string
		if json.Unmarshal(parsed.Error, &text) == nil && strings.TrimSpace(text) != "" {
			return "", text
		}
		var structured structuredError
		if json.Unmarshal(parsed.Error, &structured) == nil && structured.Message != "" {
			return structured.Code, structured.Message
		}
	}

	return "", strings.TrimSpace(parsed.Message)
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsSuccess returns true for 2xx statuses.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
