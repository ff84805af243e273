package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// Failure kinds surfaced when the mock fallback is disabled.
var (
	ErrNetwork      = errors.New("client: backend unreachable")
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrBadResponse  = errors.New("client: bad response")
)

// HTTPError is a non-2xx reply from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("client: backend returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status onto ErrUnauthorized or ErrBadResponse.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return ErrBadResponse
}

// maxErrorMessage caps how many bytes of a non-JSON error body are kept.
const maxErrorMessage = 200

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func newHTTPError(status int, body []byte) *HTTPError {
	var errResp model.ErrorResponse
	msg := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		msg = errResp.Error
	} else {
		msg = strings.TrimSpace(string(body))
		msg = truncate(msg, maxErrorMessage)
	}
	return &HTTPError{StatusCode: status, Message: msg}
}
