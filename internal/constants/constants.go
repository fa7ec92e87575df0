package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and snapshot files.
	ConfigFilePerm = 0600
)

// API location.
const (
	// DefaultHost is the API host used when the configuration does not override it.
	DefaultHost = "my.tmmlog.in"

	// APIPath is the versioned path every resource lives under.
	APIPath = "/api/3/"

	// DefaultScheme is prepended to hosts given without one.
	DefaultScheme = "https://"

	// AcceptMediaType is sent as the Accept header on every POST.
	AcceptMediaType = "application/vnd.api+json"

	// HeaderETag carries the schema version tag on discovery responses.
	HeaderETag = "ETag"

	// DefaultUserAgent identifies the SDK.
	DefaultUserAgent = "foundation-client-go"
)

// Envelope field names.
const (
	// FieldAction prefixes the per-slot action name field (action0, action1...).
	FieldAction = "action"

	// FieldArg prefixes the single argument field (arg0, arg1...).
	FieldArg = "arg"

	// FieldArgs prefixes the positional argument array field (args0, args1...).
	FieldArgs = "args"

	// FieldSuppressMeta asks the server to omit meta data from responses.
	FieldSuppressMeta = "donotincludemeta"

	// FieldHost is stripped from auth fields; it configures the client, it is never sent.
	FieldHost = "host"

	// SetFunction is the setter every resource exposes.
	SetFunction = "set"

	// ResponseTypeSuffix completes the "<Type><Function>Response" data type.
	ResponseTypeSuffix = "Response"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxMultipartMemory bounds in-memory multipart parsing in tests and tools.
	DefaultMaxMultipartMemory = 32 << 20
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent calls run by a batch executor.
	DefaultConcurrencyLimit = 3
)

// Retry limits. The core never retries; these only apply when a caller opts in.
const (
	// DefaultRetryWaitMin is the minimum wait between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Schema cache.
const (
	// DefaultCacheSize is the default cache size limit.
	DefaultCacheSize = 1000

	// DefaultSchemaTTL is how long a cached discovery document stays valid.
	DefaultSchemaTTL = 24 * time.Hour

	// SchemaCacheKeyPrefix prefixes every schema cache key.
	SchemaCacheKeyPrefix = "foundation:schema:"

	// DefaultNATSBucket is the JetStream KV bucket used for schema caching.
	DefaultNATSBucket = "foundation_schema"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)
