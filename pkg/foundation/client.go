package foundation

import (
	"context"
	"net/http"
	"time"
)

// Catalog exposes the discovered resource schema.
type Catalog interface {
	EnsureLoaded(ctx context.Context) error
	Lookup(ctx context.Context, resourceType string) (ResourceDefinition, error)
	All(ctx context.Context) (map[string]ResourceDefinition, error)
	// ETag returns the tag the server sent with the loaded schema, or "".
	ETag() string
}

// MultiAction stages calls into one HTTP round trip.
type MultiAction interface {
	// StartMultiAction opens a batch. Opening a batch while one is open
	// discards the staged calls and starts over.
	StartMultiAction()
	// RollbackMultiAction discards the staged calls without a network call.
	RollbackMultiAction()
	// CommitMultiAction sends every staged call in one POST.
	CommitMultiAction(ctx context.Context) (*Result, error)
	// InMultiAction reports whether a batch is open.
	InMultiAction() bool
}

// Resource is a handle bound to one resource type and, optionally, one id.
// Its methods come from the server supplied metadata.
type Resource interface {
	MultiAction

	Type() string
	ID() string
	// SetID binds the handle to an id; repeated calls overwrite it.
	SetID(id string)
	SetMeta(meta bool)
	Meta() bool
	Message() string

	// Methods returns the dispatch table: set, getters, setters, then actions sorted by name.
	Methods() []Method
	Method(name string) (Method, bool)

	// Set calls the built-in "set" with a single value.
	Set(ctx context.Context, value interface{}) (*Result, error)
	InvokeGetter(ctx context.Context, name string) (*Result, error)
	InvokeSetter(ctx context.Context, name string, value interface{}) (*Result, error)
	InvokeAction(ctx context.Context, name string, args ...interface{}) (*Result, error)
	// Call dispatches any declared method by name.
	Call(ctx context.Context, name string, args ...interface{}) (*Result, error)
}

// Client is the SDK entry point.
type Client interface {
	// Resource returns a handle for resourceType, bound to id when id is not empty.
	Resource(ctx context.Context, resourceType, id string) (Resource, error)
	// Endpoint is an alias for Resource.
	Endpoint(ctx context.Context, resourceType, id string) (Resource, error)
	// Resources returns every discovered resource definition keyed by type.
	Resources(ctx context.Context) (map[string]ResourceDefinition, error)
	// Message returns the last captured failure message.
	Message() string
	SetMeta(meta bool)
	Meta() bool
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a foundation.Client.
//
// # Authentication
//
// Auth fields are forwarded verbatim in the body of every request, the
// discovery request included. A "host" entry in Auth is treated like Host
// and never sent.
//
// # Meta
//
// Responses are returned as full documents unless SuppressMeta is set, in
// which case every call carries donotincludemeta=1 and recognized envelopes
// are unwrapped to their payload.
//
// # Retries
//
// The SDK never retries a failed call. RetryMax enables transport level
// retries of connection errors and 5xx/429 responses for callers that want them.
type Config struct {
	// Host overrides the default API host (e.g. "my.tmmlog.in"). A scheme may
	// be included; "https://" is assumed otherwise.
	Host string
	// Auth fields sent with every request (e.g. {"apikey": "..."}).
	Auth map[string]string
	// SuppressMeta returns unwrapped results instead of full envelopes.
	SuppressMeta bool

	// HTTPTimeout bounds a single request. Defaults to 30s.
	HTTPTimeout time.Duration
	// RetryMax is the number of transport retries. 0 disables retries.
	RetryMax int
	// RetryWaitMin is the minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit caps outgoing requests per second. 0 disables limiting.
	RateLimit float64
	// RateBurst is the number of requests allowed at once under RateLimit.
	RateBurst int
	// Debug enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger.
	Logger Logger
	// HTTPClient replaces the underlying HTTP client, e.g. to set a proxy or
	// TLS configuration. HTTPTimeout still applies when set.
	HTTPClient *http.Client
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Interceptors run around every POST.
	Interceptors *InterceptorChain
	// Cache backs the schema catalog. Nil keeps the schema in memory only.
	Cache *CacheConfig
}
