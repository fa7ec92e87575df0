package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/fdclient"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Common static errors used throughout the commands package.
var (
	ErrUnsupportedCache   = errors.New("unsupported cache backend")
	ErrCacheURLRequired   = errors.New("cache-url is required for this cache backend")
	ErrSnapshotRequired   = errors.New("snapshot file is required")
	ErrEmptyBatch         = errors.New("batch file contains no calls")
	ErrBatchMethodMissing = errors.New("batch call has no method")
)

// Config is the CLI configuration read from flags, FOUNDATION_* variables and
// ~/.foundation/config.yml.
type Config struct {
	Host     string `json:"host"      yaml:"host"`
	APIKey   string `json:"apikey"    yaml:"apikey"`
	Output   string `json:"output"    yaml:"output"`
	NoMeta   bool   `json:"no_meta"   yaml:"no_meta"`
	Verbose  bool   `json:"verbose"   yaml:"verbose"`
	Cache    string `json:"cache"     yaml:"cache"`
	CacheURL string `json:"cache_url" yaml:"cache_url"`
}

func loadConfig() *Config {
	config := &Config{
		Host:     viper.GetString("host"),
		APIKey:   viper.GetString("apikey"),
		Output:   viper.GetString("output"),
		NoMeta:   viper.GetBool("no-meta"),
		Verbose:  viper.GetBool("verbose"),
		Cache:    viper.GetString("cache"),
		CacheURL: viper.GetString("cache-url"),
	}

	if config.Output == "" {
		config.Output = OutputFormatTable
	}

	return config
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Inspect the Foundation CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configuration resolved from flags, FOUNDATION_* variables and the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.Host = fdclient.NormalizeHost(config.Host)

			if config.APIKey != "" {
				config.APIKey = constants.MaskedSecret
			}

			handled, err := renderStructured(cmd.OutOrStdout(), config.Output, config)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Property", "Value")
			_ = table.Append("Host", config.Host)
			_ = table.Append("API Key", valueOrNotAvailable(config.APIKey))
			_ = table.Append("Output", config.Output)
			_ = table.Append("Include Meta", strconv.FormatBool(!config.NoMeta))
			_ = table.Append("Schema Cache", valueOrNotAvailable(config.Cache))
			_ = table.Append("Cache URL", valueOrNotAvailable(config.CacheURL))

			if used := viper.ConfigFileUsed(); used != "" {
				_ = table.Append("Config File", used)
			}

			return renderTable(table)
		},
	}
}

func valueOrNotAvailable(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// CreateClient builds a client from the CLI configuration. When no API key is
// configured and stdin is a terminal the key is read without echo.
func CreateClient(ctx context.Context) (foundation.Client, error) {
	config := loadConfig()

	apiKey := config.APIKey
	if apiKey == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "API key: ")

		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))

		fmt.Fprintln(os.Stderr)

		if err != nil {
			return nil, fmt.Errorf("failed to read API key: %w", err)
		}

		apiKey = strings.TrimSpace(string(bytes))
	}

	clientConfig, err := buildClientConfig(config, apiKey)
	if err != nil {
		return nil, err
	}

	client, err := fdclient.New(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func buildClientConfig(config *Config, apiKey string) (*foundation.Config, error) {
	clientConfig := &foundation.Config{
		Host:         config.Host,
		Auth:         map[string]string{},
		SuppressMeta: config.NoMeta,
	}

	if apiKey != "" {
		clientConfig.Auth["apikey"] = apiKey
	}

	if config.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}

		clientConfig.Logger = foundation.NewZapLogger(logger)
		clientConfig.Debug = true
	}

	cache, err := buildCacheConfig(config.Cache, config.CacheURL)
	if err != nil {
		return nil, err
	}

	clientConfig.Cache = cache

	return clientConfig, nil
}

func buildCacheConfig(backend, url string) (*foundation.CacheConfig, error) {
	if shared, ok := strings.CutPrefix(backend, string(foundation.CacheTypeMemory)+"+"); ok {
		tier, err := buildCacheConfig(shared, url)
		if err != nil {
			return nil, err
		}

		if tier == nil || tier.Type == foundation.CacheTypeMemory {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedCache, backend)
		}

		return &foundation.CacheConfig{
			Type:  foundation.CacheTypeChain,
			Tiers: []*foundation.CacheConfig{foundation.DefaultCacheConfig(), tier},
		}, nil
	}

	switch foundation.CacheType(backend) {
	case "", foundation.CacheTypeNone:
		return nil, nil
	case foundation.CacheTypeMemory:
		return foundation.DefaultCacheConfig(), nil
	case foundation.CacheTypeNATS:
		if url == "" {
			return nil, fmt.Errorf("%w: %s", ErrCacheURLRequired, backend)
		}

		return &foundation.CacheConfig{
			Type: foundation.CacheTypeNATS,
			NATS: &foundation.NATSKVConfig{
				URL:    url,
				Bucket: constants.DefaultNATSBucket,
				TTL:    constants.DefaultSchemaTTL,
			},
		}, nil
	case foundation.CacheTypeRedis:
		if url == "" {
			return nil, fmt.Errorf("%w: %s", ErrCacheURLRequired, backend)
		}

		return &foundation.CacheConfig{
			Type:  foundation.CacheTypeRedis,
			Redis: &foundation.RedisConfig{Addr: url},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCache, backend)
	}
}
