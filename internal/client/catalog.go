package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	fdhttp "github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Catalog fetches the resource schema from the discovery endpoint once and
// keeps it for the lifetime of the instance. A failed load is not cached.
type Catalog struct {
	transport *fdhttp.Client
	auth      map[string]string
	host      string
	cache     *foundation.CacheManager
	ttl       time.Duration
	logger    foundation.Logger

	mu          sync.Mutex
	loaded      bool
	etag        string
	definitions map[string]foundation.ResourceDefinition
}

// CatalogOption configures a catalog.
type CatalogOption func(*Catalog)

// WithSchemaCache backs the catalog with a cache shared across instances.
func WithSchemaCache(cache *foundation.CacheManager, ttl time.Duration) CatalogOption {
	return func(c *Catalog) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithCatalogLogger sets the logger.
func WithCatalogLogger(logger foundation.Logger) CatalogOption {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// NewCatalog creates a catalog discovering from the transport's base URL.
func NewCatalog(transport *fdhttp.Client, host string, auth map[string]string, opts ...CatalogOption) *Catalog {
	catalog := &Catalog{
		transport: transport,
		auth:      auth,
		host:      host,
		ttl:       constants.DefaultSchemaTTL,
	}

	for _, opt := range opts {
		opt(catalog)
	}

	return catalog
}

// EnsureLoaded fetches the discovery document unless it is already loaded.
func (c *Catalog) EnsureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}

	if c.loadFromCache(ctx) {
		return nil
	}

	body, etag, err := c.fetch(ctx)
	if err != nil {
		return err
	}

	definitions, err := parseDiscovery(body)
	if err != nil {
		return err
	}

	c.definitions = definitions
	c.etag = etag
	c.loaded = true

	c.storeInCache(ctx, body, etag)

	if c.logger != nil {
		c.logger.Info("resource catalog loaded", map[string]interface{}{
			"host":      c.host,
			"resources": len(definitions),
			"etag":      etag,
		})
	}

	return nil
}

// Lookup returns the definition of resourceType.
func (c *Catalog) Lookup(ctx context.Context, resourceType string) (foundation.ResourceDefinition, error) {
	err := c.EnsureLoaded(ctx)
	if err != nil {
		return foundation.ResourceDefinition{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	definition, ok := c.definitions[resourceType]
	if !ok {
		return foundation.ResourceDefinition{}, &foundation.UnknownResourceError{Type: resourceType}
	}

	return definition, nil
}

// All returns a copy of every definition keyed by type.
func (c *Catalog) All(ctx context.Context) (map[string]foundation.ResourceDefinition, error) {
	err := c.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	all := make(map[string]foundation.ResourceDefinition, len(c.definitions))
	for name, definition := range c.definitions {
		all[name] = definition
	}

	return all, nil
}

// ETag returns the tag the server sent with the loaded schema, or "".
func (c *Catalog) ETag() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.etag
}

// CacheKey is the schema cache key for this host and auth context.
func (c *Catalog) CacheKey() string {
	return foundation.SchemaCacheKey(c.host, c.auth)
}

func (c *Catalog) fetch(ctx context.Context) ([]byte, string, error) {
	if c.logger != nil {
		c.logger.Debug("fetching resource catalog", map[string]interface{}{"host": c.host})
	}

	resp, err := c.transport.PostForm(ctx, "", NewEnvelope(c.auth).Form())
	if err != nil {
		return nil, "", &foundation.DiscoveryError{Err: err}
	}

	return resp.Body, resp.Headers.Get(constants.HeaderETag), nil
}

func (c *Catalog) loadFromCache(ctx context.Context) bool {
	if c.cache == nil {
		return false
	}

	key := c.CacheKey()

	entry, err := c.cache.GetEntry(ctx, key)
	if err != nil {
		if !IsCacheMiss(err) && c.logger != nil {
			c.logger.Warn("reading cached resource catalog failed", map[string]interface{}{"error": err.Error()})
		}

		return false
	}

	definitions, err := parseDiscovery(entry.Data)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("discarding cached resource catalog", map[string]interface{}{"error": err.Error()})
		}

		_ = c.cache.Delete(ctx, key)

		return false
	}

	c.definitions = definitions
	c.etag = entry.ETag
	c.loaded = true

	if c.logger != nil {
		c.logger.Debug("resource catalog loaded from cache", map[string]interface{}{
			"host":      c.host,
			"resources": len(definitions),
		})
	}

	return true
}

func (c *Catalog) storeInCache(ctx context.Context, body []byte, etag string) {
	if c.cache == nil {
		return
	}

	err := c.cache.SetWithETag(ctx, c.CacheKey(), body, etag, c.ttl)
	if err != nil && c.logger != nil {
		c.logger.Warn("caching resource catalog failed", map[string]interface{}{"error": err.Error()})
	}
}

// parseDiscovery turns a discovery response into definitions keyed by type.
// An error envelope becomes a DiscoveryError carrying its title, detail and status.
func parseDiscovery(body []byte) (map[string]foundation.ResourceDefinition, error) {
	var document map[string]json.RawMessage

	err := json.Unmarshal(body, &document)
	if err != nil {
		return nil, &foundation.DiscoveryError{Err: fmt.Errorf("%w: %s", foundation.ErrUnrecognizedResponse, snippet(body))}
	}

	if _, ok := document["data"]; !ok {
		for _, field := range []string{"errors", "error"} {
			raw, ok := document[field]
			if !ok {
				continue
			}

			var value interface{}

			_ = json.Unmarshal(raw, &value)
			apiErr := apiErrorFrom(value)

			return nil, &foundation.DiscoveryError{
				Title:  apiErr.Title,
				Detail: apiErr.Detail,
				Status: apiErr.Status,
				Err:    apiErr,
			}
		}

		return nil, &foundation.DiscoveryError{Err: fmt.Errorf("%w: %s", foundation.ErrUnrecognizedResponse, snippet(body))}
	}

	err = ValidateDiscovery(body)
	if err != nil {
		return nil, &foundation.DiscoveryError{Err: err}
	}

	var discovery foundation.DiscoveryDocument

	err = json.Unmarshal(body, &discovery)
	if err != nil {
		return nil, &foundation.DiscoveryError{Err: fmt.Errorf("parsing discovery document: %w", err)}
	}

	definitions := make(map[string]foundation.ResourceDefinition, len(discovery.Data))
	for _, definition := range discovery.Data {
		definitions[definition.Type] = definition
	}

	return definitions, nil
}

func snippet(body []byte) string {
	const limit = 120

	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}

	return text
}

// IsCacheMiss reports whether err is a schema cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, foundation.ErrKeyNotFound) ||
		errors.Is(err, foundation.ErrEntryExpired) ||
		errors.Is(err, foundation.ErrKeyNotFoundInAnyCache) ||
		errors.Is(err, foundation.ErrCacheDisabled)
}
