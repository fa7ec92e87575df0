package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <type>",
		Short: "Describe a resource type",
		Long:  "List the methods a resource type exposes in dispatch order with their kind and parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			resource, err := client.Resource(ctx, args[0], "")
			if err != nil {
				return fmt.Errorf("describing %s: %w", args[0], err)
			}

			methods := resource.Methods()

			handled, err := renderStructured(cmd.OutOrStdout(), viper.GetString("output"), methods)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Method", "Kind", "Mode", "Arity", "Parameters")

			for _, method := range methods {
				_ = table.Append(
					method.Name,
					string(method.Kind),
					method.Mode.String(),
					strconv.Itoa(method.Arity()),
					joinOrNone(method.Params),
				)
			}

			return renderTable(table)
		},
	}
}
