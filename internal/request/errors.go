package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request
type Kind int

const (
	// KindTransport means no response was received
	KindTransport Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServer
	// KindClient covers every other non-success status
	KindClient
	// KindConfig means the request could not be built
	KindConfig
	// KindDecode means a success response carried a body that could not be decoded
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindClient:
		return "client"
	case KindConfig:
		return "config"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// User-facing messages
const (
	MsgSessionExpired  = "Session expired, please log in again"
	MsgForbidden       = "Permission denied"
	MsgNotFound        = "Requested resource does not exist"
	MsgServerError     = "Server error"
	MsgNetworkFailed   = "Network connection failed, please check the network"
	MsgRequestFailed   = "Request failed"
	MsgConfigError     = "Request configuration error"
	MsgInvalidResponse = "Invalid response from server"
)

// APIError is returned for every failed request
type APIError struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	// Details holds the decoded JSON error body, when there was one
	Details map[string]any
	Err     error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// FieldErrors returns validation messages keyed by field, as sent on 400 responses
func (e *APIError) FieldErrors() map[string][]string {
	out := make(map[string][]string)
	for field, value := range e.Details {
		if field == "detail" || field == "message" {
			continue
		}
		switch v := value.(type) {
		case string:
			out[field] = append(out[field], v)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	return out
}

// KindOf returns the kind of err, or 0 when err is not an *APIError
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsKind reports whether err is an *APIError of kind k
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// statusError maps a non-success response to an APIError
func statusError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status}

	var details map[string]any
	if len(body) > 0 && json.Unmarshal(body, &details) == nil {
		e.Details = details
	}

	switch status {
	case http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, MsgSessionExpired
	case http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, MsgForbidden
	case http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, MsgNotFound
	case http.StatusInternalServerError:
		e.Kind, e.Message = KindServer, MsgServerError
	default:
		e.Kind = KindClient
		if status >= 500 {
			e.Kind = KindServer
		}
		e.Message = bodyMessage(details)
	}
	return e
}

// bodyMessage picks detail, then message, from a JSON error body
func bodyMessage(details map[string]any) string {
	for _, key := range []string{"detail", "message"} {
		if s, ok := details[key].(string); ok && s != "" {
			return s
		}
	}
	return MsgRequestFailed
}
