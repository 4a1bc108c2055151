package socket

import (
	"encoding/json"
	"fmt"
	"math"
)

// Frame type discriminators.
const (
	TypeAuthRequired = "auth_required"
	TypeAuth         = "auth"
	TypeAuthOK       = "auth_ok"
	TypeAuthInvalid  = "auth_invalid"
	TypeResult       = "result"
	TypeEvent        = "event"
)

// Wire error codes carried in failed result frames.
const (
	ErrCodeInvalidFormat  = "invalid_format"
	ErrCodeUnknownCommand = "unknown_command"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeNotFound       = "not_found"
	ErrCodeInvalidInfo    = "invalid_info"
	ErrCodeHubError       = "hub_error"
	ErrCodeTimeout        = "timeout"
	ErrCodeUnknown        = "unknown_error"
)

// Error is a coded command failure destined for the wire. Handlers return
// one directly when they know the code; anything else is translated at the
// dispatch boundary.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError creates a coded wire error.
func NewError(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Message is a decoded client command frame. Fields holds the
// command-specific keys; after schema validation it is replaced by the
// normalised, type-coerced form.
type Message struct {
	ID     int
	Type   string
	Fields map[string]any
}

// ParseMessage decodes a raw text frame into a command message. The id
// must be a positive integer and the type a non-empty string.
func ParseMessage(data []byte) (*Message, *Error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewError(ErrCodeInvalidFormat, "message is not valid JSON")
	}

	idVal, ok := raw["id"]
	if !ok {
		return nil, NewError(ErrCodeInvalidFormat, "required field id is missing")
	}
	id, ok := asInt(idVal)
	if !ok || id <= 0 {
		return nil, NewError(ErrCodeInvalidFormat, "id must be a positive integer, got %v", idVal)
	}

	msgType, ok := raw["type"].(string)
	if !ok || msgType == "" {
		return nil, NewError(ErrCodeInvalidFormat, "required field type is missing")
	}

	delete(raw, "id")
	delete(raw, "type")

	return &Message{ID: id, Type: msgType, Fields: raw}, nil
}

// asInt accepts the integral numeric forms encoding/json may produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// String returns a string field from the validated message.
func (m *Message) String(key string) string {
	s, _ := m.Fields[key].(string) //nolint:errcheck // absent key reads as zero value
	return s
}

// OptionalString reports a string field and whether it was supplied.
func (m *Message) OptionalString(key string) (string, bool) {
	v, ok := m.Fields[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns an integer field from the validated message.
func (m *Message) Int(key string) int {
	n, _ := asInt(m.Fields[key]) //nolint:errcheck // validated fields are coerced already
	return n
}

// OptionalInt reports an integer field and whether it was supplied.
func (m *Message) OptionalInt(key string) (int, bool) {
	v, ok := m.Fields[key]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// StringSlice returns a string-list field from the validated message.
func (m *Message) StringSlice(key string) []string {
	v, ok := m.Fields[key].([]string)
	if !ok {
		return nil
	}
	return v
}

// OptionalStringSlice reports a string-list field and whether it was supplied.
func (m *Message) OptionalStringSlice(key string) ([]string, bool) {
	v, ok := m.Fields[key]
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

// Object returns an object field from the validated message.
func (m *Message) Object(key string) map[string]any {
	v, _ := m.Fields[key].(map[string]any) //nolint:errcheck // absent key reads as nil
	return v
}

// authFrame is the single client frame accepted before authentication.
type authFrame struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// resultFrame is the terminal server response for one command.
type resultFrame struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// eventFrame is a server push tied to a prior subscription id.
type eventFrame struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Event any    `json:"event"`
}

// serverFrame covers the handshake frames, which carry no id.
type serverFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Version string `json:"version,omitempty"`
}
