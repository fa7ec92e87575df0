package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/foundation-client/internal/client"
	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage schema snapshots",
		Long:  "Export the discovered resource schema to a snapshot file and validate snapshots",
	}

	cmd.AddCommand(newSchemaExportCommand())
	cmd.AddCommand(newSchemaValidateCommand())

	return cmd
}

func newSchemaExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the resource schema",
		Long:  "Write the discovered resource schema as a YAML snapshot, or JSON with --output json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			fdClient, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			definitions, err := fdClient.Resources(ctx)
			if err != nil {
				return fmt.Errorf("exporting schema: %w", err)
			}

			document := foundation.DiscoveryDocument{Data: sortedDefinitions(definitions)}

			data, err := encodeSnapshot(document, viper.GetString("output"))
			if err != nil {
				return err
			}

			if file == "" {
				_, err = cmd.OutOrStdout().Write(data)

				return err
			}

			err = os.MkdirAll(filepath.Dir(file), constants.ConfigDirPerm)
			if err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}

			err = os.WriteFile(file, data, constants.ConfigFilePerm)
			if err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d resources to %s\n", len(document.Data), file)

			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "snapshot file (default stdout)")

	return cmd
}

func newSchemaValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a schema snapshot",
		Long:  "Check that a YAML or JSON snapshot has the shape of a discovery document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			var raw interface{}

			err = yaml.Unmarshal(data, &raw)
			if err != nil {
				return fmt.Errorf("parsing snapshot: %w", err)
			}

			body, err := json.Marshal(raw)
			if err != nil {
				return fmt.Errorf("converting snapshot: %w", err)
			}

			err = client.ValidateDiscovery(body)
			if err != nil {
				return err
			}

			document, err := decodeSnapshot(args[0], data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot is valid: %d resources\n", len(document.Data))

			return nil
		},
	}
}

func encodeSnapshot(document foundation.DiscoveryDocument, format string) ([]byte, error) {
	if format == OutputFormatJSON {
		data, err := json.MarshalIndent(document, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding snapshot: %w", err)
		}

		return append(data, '\n'), nil
	}

	data, err := yaml.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}

	return data, nil
}

// decodeSnapshot parses a snapshot; files ending in .json are read as JSON,
// anything else as YAML.
func decodeSnapshot(path string, data []byte) (*foundation.DiscoveryDocument, error) {
	var (
		document foundation.DiscoveryDocument
		err      error
	)

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &document)
	} else {
		err = yaml.Unmarshal(data, &document)
	}

	if err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	return &document, nil
}

func loadSnapshot(path string) (*foundation.DiscoveryDocument, error) {
	if path == "" {
		return nil, ErrSnapshotRequired
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	return decodeSnapshot(path, data)
}
