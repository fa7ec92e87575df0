package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Static errors for err113 compliance.
var (
	ErrHostSchemeRequired = errors.New("host must include a scheme")
)

// Client implements the foundation.Client interface.
type Client struct {
	httpClient *http.Client
	catalog    *Catalog
	factory    *Factory
	calls      *CallBuilder
	cache      *foundation.CacheManager
	baseURL    string
	logger     foundation.Logger

	mu           sync.RWMutex
	suppressMeta bool
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *foundation.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(rate.Limit(config.RateLimit), config.RateBurst))
	}

	return httpOpts
}

// createSchemaCache builds the catalog's cache manager, or nil when no cache
// is configured.
func createSchemaCache(config *foundation.Config) (*foundation.CacheManager, error) {
	if config.Cache == nil || config.Cache.Type == foundation.CacheTypeNone {
		return nil, nil //nolint:nilnil // no cache configured
	}

	cache, err := foundation.NewCacheFromConfig(config.Cache)
	if err != nil {
		return nil, fmt.Errorf("creating schema cache: %w", err)
	}

	return foundation.NewCacheManager(cache, config.Cache.Options), nil
}

// New creates a client for config.Host, which must be a scheme and host such
// as "https://my.tmmlog.in". Nothing is fetched until the first resource is requested.
func New(ctx context.Context, config *foundation.Config) (*Client, error) {
	if config == nil {
		return nil, foundation.ErrConfigRequired
	}

	if config.Host == "" {
		return nil, foundation.ErrHostRequired
	}

	if !strings.Contains(config.Host, "://") {
		return nil, fmt.Errorf("%w: %s", ErrHostSchemeRequired, config.Host)
	}

	baseURL := strings.TrimSuffix(config.Host, "/") + constants.APIPath

	auth := make(map[string]string, len(config.Auth))
	for key, value := range config.Auth {
		auth[key] = value
	}

	httpClient := http.NewClient(baseURL, createHTTPClientOptions(config)...)

	cache, err := createSchemaCache(config)
	if err != nil {
		return nil, err
	}

	catalogOpts := []CatalogOption{WithCatalogLogger(config.Logger)}

	if cache != nil {
		ttl := constants.DefaultSchemaTTL
		if config.Cache.Options != nil && config.Cache.Options.TTL > 0 {
			ttl = config.Cache.Options.TTL
		}

		catalogOpts = append(catalogOpts, WithSchemaCache(cache, ttl))
	}

	catalog := NewCatalog(httpClient, config.Host, auth, catalogOpts...)
	calls := NewCallBuilder(httpClient, auth, config.Logger)

	return &Client{
		httpClient:   httpClient,
		catalog:      catalog,
		factory:      NewFactory(catalog, calls, config.Logger),
		calls:        calls,
		cache:        cache,
		baseURL:      baseURL,
		logger:       config.Logger,
		suppressMeta: config.SuppressMeta,
	}, nil
}

// Resource returns a handle for resourceType, bound to id when id is not empty.
// Handles start with the client's current meta setting.
func (c *Client) Resource(ctx context.Context, resourceType, id string) (foundation.Resource, error) {
	resource, err := c.factory.Create(ctx, resourceType, id, c.suppressed())
	if err != nil {
		return nil, err
	}

	return resource, nil
}

// Endpoint is an alias for Resource.
func (c *Client) Endpoint(ctx context.Context, resourceType, id string) (foundation.Resource, error) {
	return c.Resource(ctx, resourceType, id)
}

// Resources returns every discovered resource definition keyed by type.
func (c *Client) Resources(ctx context.Context) (map[string]foundation.ResourceDefinition, error) {
	return c.catalog.All(ctx)
}

// Catalog returns the client's schema catalog.
func (c *Client) Catalog() foundation.Catalog {
	return c.catalog
}

// Message returns the last captured failure message.
func (c *Client) Message() string {
	return c.calls.Message()
}

// SetMeta selects full documents (true) or unwrapped results (false) for
// handles created afterwards.
func (c *Client) SetMeta(meta bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.suppressMeta = !meta
}

// Meta reports whether full documents are returned.
func (c *Client) Meta() bool {
	return !c.suppressed()
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CacheStats returns schema cache statistics, or nil without a cache.
func (c *Client) CacheStats() *foundation.CacheStats {
	if c.cache == nil {
		return nil
	}

	return c.cache.GetStats()
}

func (c *Client) suppressed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.suppressMeta
}
