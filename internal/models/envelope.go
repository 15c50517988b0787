package models

import "encoding/json"

// Envelope is the wrapper every backend response uses.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Unwrap decodes the envelope's data payload into out. It fails loudly when
// the envelope reports failure or carries no data, instead of silently
// defaulting to a zero value.
func (e *Envelope) Unwrap(out any) error {
	if !e.Success {
		return &APIError{Code: CodeEnvelope, Message: e.Message, Fields: e.Errors}
	}
	if len(e.Data) == 0 {
		return &APIError{Code: CodeShape, Message: "envelope reported success but carried no data"}
	}
	return json.Unmarshal(e.Data, out)
}
