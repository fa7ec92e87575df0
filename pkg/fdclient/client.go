package fdclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/foundation-client/internal/client"
	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// New creates a new Foundation API client. The config is not modified.
func New(ctx context.Context, config *foundation.Config) (foundation.Client, error) {
	if config == nil {
		return nil, foundation.ErrConfigRequired
	}

	normalized := *config
	normalized.Auth = make(map[string]string, len(config.Auth))

	host := config.Host

	for key, value := range config.Auth {
		if key == constants.FieldHost {
			if host == "" {
				host = value
			}

			continue
		}

		normalized.Auth[key] = value
	}

	normalized.Host = NormalizeHost(host)

	// Use the internal client implementation
	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithAPIKey creates a client for the default host authenticated by apikey.
func NewWithAPIKey(ctx context.Context, apiKey string) (foundation.Client, error) {
	return New(ctx, &foundation.Config{
		Auth: map[string]string{"apikey": apiKey},
	})
}

// NewWithHost creates a client for host sending auth with every request.
func NewWithHost(ctx context.Context, host string, auth map[string]string) (foundation.Client, error) {
	return New(ctx, &foundation.Config{
		Host: host,
		Auth: auth,
	})
}

// NormalizeHost turns a host name or origin into "<scheme>://<host>" without a
// trailing slash. An empty host yields the default host.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = constants.DefaultHost
	}

	host = strings.TrimSuffix(host, "/")
	host = strings.TrimSuffix(host, strings.TrimSuffix(constants.APIPath, "/"))

	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = constants.DefaultScheme + host
	}

	return host
}
