package airtable

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError reports a failed call to the records endpoint. It carries the
// upstream status and the error type/message from the Airtable envelope,
// never the request headers or URL.
type APIError struct {
	Table      string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("airtable %s: %s", e.Table, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("airtable %s: status %d: %s: %s", e.Table, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("airtable %s: status %d: %s", e.Table, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func newAPIError(table string, status int, body []byte) *APIError {
	apiErr := &APIError{Table: table, StatusCode: status, Message: http.StatusText(status)}

	// {"error": {"type": "...", "message": "..."}} or {"error": "NOT_FOUND"}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return apiErr
	}

	var detailed struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &detailed); err == nil {
		apiErr.Type = detailed.Type
		if strings.TrimSpace(detailed.Message) != "" {
			apiErr.Message = detailed.Message
		}
		return apiErr
	}

	var code string
	if err := json.Unmarshal(envelope.Error, &code); err == nil {
		apiErr.Type = code
	}
	return apiErr
}
