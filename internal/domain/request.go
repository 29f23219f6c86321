package domain

import (
	"io"
	"net/http"
	"strings"
)

// FilePart is one file of a multipart body.
type FilePart struct {
	Field    string
	FileName string
	Content  io.Reader
}

// MultipartBody describes a multipart/form-data payload.
type MultipartBody struct {
	Fields map[string]string
	Files  []FilePart
}

// RequestDescriptor describes a single backend call. It lives for one call only.
type RequestDescriptor struct {
	Path      string
	Method    string
	JSON      any
	Multipart *MultipartBody
	Header    http.Header
}

// Validate enforces that at most one body kind is set.
func (r RequestDescriptor) Validate() error {
	if r.JSON != nil && r.Multipart != nil {
		return ErrConflictingBody
	}
	return nil
}

// NormalizedMethod returns the upper-cased method, defaulting to GET.
func (r RequestDescriptor) NormalizedMethod() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// IsStateChanging reports whether method requires a CSRF token.
func IsStateChanging(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
