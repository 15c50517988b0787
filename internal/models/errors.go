package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes classifying failures by origin.
const (
	// CodeNetwork marks transport failures where no response was received.
	CodeNetwork = "NETWORK_ERROR"
	// CodeValidation marks structured per-field validation failures.
	CodeValidation = "VALIDATION_ERROR"
	// CodeStatus marks non-2xx responses mapped through the status table.
	CodeStatus = "STATUS_ERROR"
	// CodeEnvelope marks envelopes that reported success=false.
	CodeEnvelope = "ENVELOPE_ERROR"
	// CodeShape marks responses whose shape the client does not recognize.
	CodeShape = "SHAPE_ERROR"
)

// statusMessages is the static lookup for status-coded errors. Codes outside
// this set fall through to a generic message.
var statusMessages = map[int]string{
	401: "Your session has expired. Please log in again.",
	403: "You don't have permission to do that.",
	404: "We couldn't find what you were looking for.",
	429: "You're doing that too fast. Take a breather.",
	500: "Something went wrong on our end. Please try again.",
}

const genericMessage = "An error occurred. Please try again."

// APIError is the single error type crossing the transport boundary.
type APIError struct {
	Status  int               // HTTP status, 0 for network errors
	Code    string            // one of the Code* constants
	Message string            // human-readable, safe to show users
	Fields  map[string]string // per-field validation messages, if any
	Err     error             // underlying cause, if any
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage is what a toast or error panel should display. Validation
// errors enumerate each field's message on its own line.
func (e *APIError) UserMessage() string {
	if e.Code == CodeValidation && len(e.Fields) > 0 {
		fields := make([]string, 0, len(e.Fields))
		for f := range e.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		lines := make([]string, 0, len(fields))
		for _, f := range fields {
			lines = append(lines, fmt.Sprintf("%s: %s", f, e.Fields[f]))
		}
		return strings.Join(lines, "\n")
	}
	if e.Message != "" {
		return e.Message
	}
	return genericMessage
}

// NewNetworkError wraps a transport failure where no response arrived.
func NewNetworkError(err error) *APIError {
	return &APIError{Code: CodeNetwork, Message: "Network error. Check your connection.", Err: err}
}

// NewStatusError maps a non-2xx response to a user-facing error. A message
// parsed from the response body wins over the static lookup; per-field
// validation payloads flip the code to CodeValidation.
func NewStatusError(status int, message string, fields map[string]string) *APIError {
	e := &APIError{Status: status, Code: CodeStatus, Message: message, Fields: fields}
	if len(fields) > 0 {
		e.Code = CodeValidation
	}
	if e.Message == "" {
		if m, ok := statusMessages[status]; ok {
			e.Message = m
		} else {
			e.Message = genericMessage
		}
	}
	return e
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// APIError or carried none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool { return StatusOf(err) == 401 }
