package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// BatchCall is one entry of a batch file.
type BatchCall struct {
	Method string        `json:"method"         yaml:"method"`
	Args   []interface{} `json:"args,omitempty" yaml:"args,omitempty"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	var (
		id        string
		inputFile string
	)

	cmd := &cobra.Command{
		Use:   "batch <type>",
		Short: "Send several calls in one request",
		Long: `Stage every call listed in a YAML or JSON file on one resource handle and
send them together as a single multi-action request.

The file is a list of {method, args} entries. String arguments of the form
@path are uploaded as file attachments.`,
		Example: `  foundation batch User --id 42 --file calls.yaml
  cat calls.json | foundation batch User --id 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(inputFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			calls, err := parseBatch(data)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			resource, err := client.Resource(ctx, args[0], id)
			if err != nil {
				return fmt.Errorf("creating %s handle: %w", args[0], err)
			}

			err = stageBatch(cmd, resource, calls)
			if err != nil {
				return err
			}

			result, err := resource.CommitMultiAction(ctx)
			if err != nil {
				return fmt.Errorf("committing batch: %w", err)
			}

			return renderValue(cmd.OutOrStdout(), viper.GetString("output"), result.Value)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "resource id")
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "batch file (default stdin)")

	return cmd
}

func parseBatch(data []byte) ([]BatchCall, error) {
	var calls []BatchCall

	err := yaml.Unmarshal(data, &calls)
	if err != nil {
		return nil, fmt.Errorf("parsing batch file: %w", err)
	}

	if len(calls) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, call := range calls {
		if call.Method == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrBatchMethodMissing, i)
		}
	}

	return calls, nil
}

func stageBatch(cmd *cobra.Command, resource foundation.Resource, calls []BatchCall) error {
	resource.StartMultiAction()

	for _, call := range calls {
		values, err := resolveAttachments(call.Args)
		if err != nil {
			resource.RollbackMultiAction()

			return err
		}

		result, err := resource.Call(cmd.Context(), call.Method, values...)
		if err != nil {
			resource.RollbackMultiAction()

			return fmt.Errorf("staging %s: %w", call.Method, err)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(cmd.ErrOrStderr(), "staged %s as action%d\n", call.Method, result.Index)
		}
	}

	return nil
}
