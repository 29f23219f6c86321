package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// MessageKey is the field under which non field-keyed error text is stored.
const MessageKey = "message"

// APIError is the normalized shape of every failed backend call.
// Status is zero when the request never produced an HTTP response.
type APIError struct {
	Status int
	Errors map[string][]string
	Text   string

	cause error
}

// NewAPIError builds an APIError from a status, its status text and the raw error body.
// A JSON object body becomes the field map; any other body is kept as a single message.
func NewAPIError(status int, text string, body []byte) *APIError {
	if text == "" {
		text = http.StatusText(status)
	}
	return &APIError{
		Status: status,
		Text:   text,
		Errors: parseErrorBody(body, text),
	}
}

// NewNetworkError wraps a transport failure in the normalized shape.
func NewNetworkError(err error) *APIError {
	msg := "network error"
	if err != nil {
		msg = err.Error()
	}
	return &APIError{
		Status: 0,
		Text:   "network error",
		Errors: map[string][]string{MessageKey: {msg}},
		cause:  err,
	}
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Errors[MessageKey])
	}
	if detail, ok := e.FirstMessage(); ok {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Text, detail)
	}
	return fmt.Sprintf("api %d %s", e.Status, e.Text)
}

// Unwrap returns the transport error for network failures.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is lets callers match status classes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	case ErrNetwork:
		return e.Status == 0
	}
	return false
}

// FieldError returns the first message recorded for field.
func (e *APIError) FieldError(field string) (string, bool) {
	if e == nil {
		return "", false
	}
	msgs, ok := e.Errors[field]
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// HasField reports whether the error body carries messages for field.
func (e *APIError) HasField(field string) bool {
	_, ok := e.FieldError(field)
	return ok
}

// FirstMessage returns a message from the body, preferring generic keys
// and then the alphabetically first field.
func (e *APIError) FirstMessage() (string, bool) {
	if e == nil || len(e.Errors) == 0 {
		return "", false
	}
	for _, key := range []string{"detail", "error", MessageKey, "non_field_errors"} {
		if msg, ok := e.FieldError(key); ok {
			return msg, true
		}
	}
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return e.FieldError(keys[0])
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

func parseErrorBody(body []byte, fallback string) map[string][]string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return map[string][]string{MessageKey: {fallback}}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		out := make(map[string][]string, len(obj))
		for k, raw := range obj {
			out[k] = normalizeMessages(raw)
		}
		return out
	}

	if json.Valid([]byte(trimmed)) {
		return map[string][]string{MessageKey: normalizeMessages(json.RawMessage(trimmed))}
	}

	return map[string][]string{MessageKey: {trimmed}}
}

// normalizeMessages turns a JSON value into a list of strings.
func normalizeMessages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if str, ok := item.(string); ok {
				out = append(out, str)
				continue
			}
			b, _ := json.Marshal(item)
			out = append(out, string(b))
		}
		return out
	}
	return []string{strings.TrimSpace(string(raw))}
}
