package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "call <type> <method> [args...]",
		Short: "Call a resource method",
		Long: `Call a getter, setter or action on a resource.

Arguments that parse as JSON are sent decoded and anything else is sent as a
string. An argument of the form @path is uploaded as a file attachment.`,
		Example: `  foundation call User getName --id 42
  foundation call User setName --id 42 '"Ada"'
  foundation call Document upload --id 7 @report.pdf '{"label":"Q3"}'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			resource, err := client.Resource(ctx, args[0], id)
			if err != nil {
				return fmt.Errorf("creating %s handle: %w", args[0], err)
			}

			values, err := parseArgs(args[2:])
			if err != nil {
				return err
			}

			result, err := resource.Call(ctx, args[1], values...)
			if err != nil {
				return fmt.Errorf("calling %s.%s: %w", args[0], args[1], err)
			}

			return renderValue(cmd.OutOrStdout(), viper.GetString("output"), result.Value)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "resource id")

	return cmd
}
