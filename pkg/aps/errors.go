package aps

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for provider operations. Callers match with errors.Is.
var (
	// ErrAuth indicates the provider rejected the client credentials.
	ErrAuth = errors.New("aps authentication failed: check client id and secret")
	// ErrTransport indicates a network failure or unexpected provider response.
	ErrTransport = errors.New("aps request failed")
	// ErrValidation indicates bad local input such as a missing or empty file.
	ErrValidation = errors.New("invalid input")
	// ErrTransfer indicates a failure in the signed upload handshake or a part transfer.
	ErrTransfer = errors.New("upload transfer failed")
	// ErrTranslation indicates the translation job could not be submitted.
	ErrTranslation = errors.New("translation request failed")
	// ErrTranslationFailed indicates the remote translation job reached the failed state.
	ErrTranslationFailed = errors.New("translation failed")
	// ErrTimeout indicates the translation did not reach a terminal state within the wait budget.
	ErrTimeout = errors.New("translation timed out")
	// ErrNotReady indicates derivatives were requested before translation succeeded.
	ErrNotReady = errors.New("translation not complete")
	// ErrNoViewable indicates a successful manifest has no matching 3D geometry.
	ErrNoViewable = errors.New("no 3d viewables found in manifest")
	// ErrInvalidURN indicates a URN that does not decode to an object id.
	ErrInvalidURN = errors.New("invalid urn")
)

const maxErrorBody = 512

// ResponseError describes an unexpected provider response.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newResponseError(method, path string, status int, body []byte) *ResponseError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &ResponseError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       text,
	}
}

func (e *ResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is reports ResponseError as a transport failure.
func (e *ResponseError) Is(target error) bool {
	return target == ErrTransport
}

// FailedError is returned when the remote translation job fails.
// It carries the error and warning messages collected from the manifest.
type FailedError struct {
	URN      string
	Messages []Message
}

func (e *FailedError) Error() string {
	if len(e.Messages) == 0 {
		return "translation failed (no specific error details available)"
	}

	details := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		details = append(details, fmt.Sprintf("%s: %s", m.Type, m.Text))
	}
	return "translation failed with errors: " + strings.Join(details, "; ")
}

// Is reports FailedError as ErrTranslationFailed.
func (e *FailedError) Is(target error) bool {
	return target == ErrTranslationFailed
}

// MapHTTPStatus maps provider errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidURN):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrNoViewable):
		return http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrAuth),
		errors.Is(err, ErrTransport),
		errors.Is(err, ErrTransfer),
		errors.Is(err, ErrTranslation),
		errors.Is(err, ErrTranslationFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
