//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Host           string
	APIKey         string
	Resource       string
	ResourceID     string
	Getter         string
	FoundationPath string
	Verbose        bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Host:           os.Getenv("FOUNDATION_HOST"),
		APIKey:         os.Getenv("FOUNDATION_APIKEY"),
		Resource:       os.Getenv("FOUNDATION_TEST_RESOURCE"),
		ResourceID:     os.Getenv("FOUNDATION_TEST_RESOURCE_ID"),
		Getter:         os.Getenv("FOUNDATION_TEST_GETTER"),
		FoundationPath: getFoundationPath(),
		Verbose:        os.Getenv("FOUNDATION_VERBOSE") == "true",
	}
}

// getFoundationPath determines the path to the foundation binary.
func getFoundationPath() string {
	if path := os.Getenv("FOUNDATION_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../foundation",
		"./foundation",
		"../foundation",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "foundation" // Fallback to PATH
}

// SkipIfMissingConfig skips the test unless a host and API key are set.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Host == "" || config.APIKey == "" {
		t.Skip("FOUNDATION_HOST or FOUNDATION_APIKEY not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test when the CLI binary cannot be found.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.FoundationPath); err != nil {
		t.Skipf("foundation binary not found at %s, skipping integration test", config.FoundationPath)
	}
}

// SkipIfMissingResource skips the test unless a resource to read is configured.
func (config *TestConfig) SkipIfMissingResource(t *testing.T) {
	t.Helper()

	if config.Resource == "" || config.ResourceID == "" || config.Getter == "" {
		t.Skip("FOUNDATION_TEST_RESOURCE, FOUNDATION_TEST_RESOURCE_ID or FOUNDATION_TEST_GETTER not set")
	}
}

// CommandRunner provides utilities for running foundation commands.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a foundation command against the configured host.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--host", runner.config.Host}, args...)

	cmd := exec.Command(runner.config.FoundationPath, args...)
	cmd.Env = append(os.Environ(), "FOUNDATION_APIKEY="+runner.config.APIKey)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.FoundationPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a command with JSON output and decodes it into out.
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) error {
	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	if err != nil {
		return fmt.Errorf("%w: %s", err, stderr)
	}

	return json.Unmarshal([]byte(stdout), out)
}

// GenerateTestName generates a unique name for test files.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
