package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed backend call.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindSessionExpired
	KindValidation
	KindRateLimited
	KindServer
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindNetwork:        "network",
	KindTimeout:        "timeout",
	KindBadRequest:     "bad_request",
	KindUnauthorized:   "unauthorized",
	KindForbidden:      "forbidden",
	KindNotFound:       "not_found",
	KindSessionExpired: "session_expired",
	KindValidation:     "validation",
	KindRateLimited:    "rate_limited",
	KindServer:         "server",
	KindCanceled:       "canceled",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Transient reports whether a retry may succeed.
func (k Kind) Transient() bool {
	return k == KindNetwork || k == KindTimeout || k == KindServer
}

// User-facing messages.
const (
	MsgBadRequest     = "The request could not be processed. Please check your input."
	MsgLoginRequired  = "Please log in to continue."
	MsgForbidden      = "You do not have permission to perform this action."
	MsgNotFound       = "The requested item could not be found."
	MsgSessionExpired = "Your session has expired. Please refresh the page and try again."
	MsgValidation     = "Please correct the highlighted fields."
	MsgRateLimited    = "Too many requests. Please slow down and try again shortly."
	MsgServer         = "The server is temporarily unavailable. Please try again."
	MsgNetwork        = "Unable to reach the server. Please check your connection and try again."
	MsgTimeout        = "The request timed out. Please try again."
	MsgUnknown        = "Something went wrong. Please try again."
)

// Error is a backend call failure with a message safe to show to users.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	// ServerMessage is the backend's own message, if any. It is shown for
	// validation failures without field detail.
	ServerMessage string
	Fields        map[string][]string
	Err           error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FieldError returns the first message for a field.
func (e *Error) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Display is the single message shown when no per-field rendering applies.
func (e *Error) Display() string {
	if e.Kind == KindValidation && len(e.Fields) == 0 && e.ServerMessage != "" {
		return e.ServerMessage
	}
	return e.Message
}

// MessageFor maps an HTTP status to its user-facing message.
func MessageFor(status int) (Kind, string) {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest, MsgBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized, MsgLoginRequired
	case http.StatusForbidden:
		return KindForbidden, MsgForbidden
	case http.StatusNotFound:
		return KindNotFound, MsgNotFound
	case 419:
		return KindSessionExpired, MsgSessionExpired
	case http.StatusUnprocessableEntity:
		return KindValidation, MsgValidation
	case http.StatusTooManyRequests:
		return KindRateLimited, MsgRateLimited
	}
	if status >= 500 {
		return KindServer, MsgServer
	}
	return KindUnknown, MsgUnknown
}

// FromStatus builds an Error for a non-2xx response.
func FromStatus(status int, serverMsg string, fields map[string][]string) *Error {
	kind, msg := MessageFor(status)
	return &Error{Kind: kind, Status: status, Message: msg, ServerMessage: serverMsg, Fields: fields}
}

// Validation builds a 422-shaped error without a network round trip.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusUnprocessableEntity, Message: MsgValidation, Fields: fields}
}

// fromTransport classifies an error returned before any response arrived.
func fromTransport(err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCanceled, Message: MsgUnknown, Err: err}
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
	}
	return &Error{Kind: KindNetwork, Message: MsgNetwork, Err: err}
}

// As extracts an *Error from err. Non-API errors become KindUnknown.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: KindUnknown, Message: MsgUnknown, Err: err}
}

// IsKind reports whether err is an API error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}
