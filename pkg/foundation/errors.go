package foundation

import (
	"errors"
	"fmt"
	"strings"
)

// UnknownResourceError is returned when a resource type is absent from the discovered catalog.
type UnknownResourceError struct {
	Type string
}

// Error implements the error interface.
func (e *UnknownResourceError) Error() string {
	return e.Type + " is not a valid Resource"
}

// DiscoveryError is returned when the discovery call fails or returns an unrecognized shape.
type DiscoveryError struct {
	Title  string
	Detail string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	message := strings.TrimSpace(e.Title + " " + e.Detail)

	switch {
	case message != "" && e.Status != 0:
		return fmt.Sprintf("discovery failed: %s (status: %d)", message, e.Status)
	case message != "":
		return "discovery failed: " + message
	case e.Err != nil:
		return "discovery failed: " + e.Err.Error()
	default:
		return "discovery failed: encountered an unknown error"
	}
}

// Message returns "<title> <detail>" as reported by the server.
func (e *DiscoveryError) Message() string {
	return strings.TrimSpace(e.Title + " " + e.Detail)
}

// Unwrap returns the underlying cause.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// UnboundResourceError is returned when a call is made on a handle with no resource type.
type UnboundResourceError struct {
	Function string
}

// Error implements the error interface.
func (e *UnboundResourceError) Error() string {
	if e.Function == "" {
		return "not an instantiated resource"
	}

	return fmt.Sprintf("not an instantiated resource: cannot call %s", e.Function)
}

// TransportError is returned when the underlying transport fails.
type TransportError struct {
	URL     string
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	message := e.Message
	if message == "" && e.Err != nil {
		message = e.Err.Error()
	}

	if e.Code != 0 {
		return fmt.Sprintf("transport error (%d) calling %s: %s", e.Code, e.URL, message)
	}

	return fmt.Sprintf("transport error calling %s: %s", e.URL, message)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is returned when the server answers with a structured error envelope.
type APIError struct {
	Title   string `json:"title"   yaml:"title"`
	Detail  string `json:"detail"  yaml:"detail"`
	Status  int    `json:"status"  yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	message := strings.TrimSpace(e.Title + " " + e.Detail)
	if message == "" {
		message = e.Message
	}

	if message == "" {
		message = "unknown error"
	}

	if e.Status != 0 {
		return fmt.Sprintf("%s (status: %d)", message, e.Status)
	}

	return message
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired         = errors.New("config is required")
	ErrHostRequired           = errors.New("host is required")
	ErrResourceTypeRequired   = errors.New("resource type is required")
	ErrUnknownMethod          = errors.New("method is not declared by resource")
	ErrTooManyArguments       = errors.New("too many arguments")
	ErrDuplicateMethod        = errors.New("method declared more than once")
	ErrWrongMethodKind        = errors.New("method is declared with a different kind")
	ErrUnrecognizedResponse   = errors.New("unrecognized response")
	ErrEmptyCatalog           = errors.New("discovery returned no resources")
	ErrMultiActionNotStarted  = errors.New("no multi action started")
	ErrUnknownArgMode         = errors.New("unknown argument mode")
	ErrAttachmentNotEncodable = errors.New("attachments cannot be JSON encoded")
)

// IsUnknownResource checks if the error is an unknown resource error.
func IsUnknownResource(err error) bool {
	target := &UnknownResourceError{}

	return errors.As(err, &target)
}

// IsDiscovery checks if the error is a discovery error.
func IsDiscovery(err error) bool {
	target := &DiscoveryError{}

	return errors.As(err, &target)
}

// IsUnbound checks if the error is an unbound resource error.
func IsUnbound(err error) bool {
	target := &UnboundResourceError{}

	return errors.As(err, &target)
}

// IsTransport checks if the error is a transport error.
func IsTransport(err error) bool {
	target := &TransportError{}

	return errors.As(err, &target)
}

// IsAPI checks if the error is a structured API error.
func IsAPI(err error) bool {
	target := &APIError{}

	return errors.As(err, &target)
}
