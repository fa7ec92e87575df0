package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewResourcesCommand creates the resources command.
func NewResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "resources",
		Aliases: []string{"types"},
		Short:   "List resource types",
		Long:    "List every resource type discovered from the API with the number of methods it declares",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := CreateClient(ctx)
			if err != nil {
				return err
			}

			definitions, err := client.Resources(ctx)
			if err != nil {
				return fmt.Errorf("listing resources: %w", err)
			}

			sorted := sortedDefinitions(definitions)

			handled, err := renderStructured(cmd.OutOrStdout(), viper.GetString("output"), sorted)
			if handled {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Type", "Getters", "Setters", "Actions")

			for _, definition := range sorted {
				_ = table.Append(
					definition.Type,
					strconv.Itoa(len(definition.Meta.Getters)),
					strconv.Itoa(len(definition.Meta.Setters)),
					strconv.Itoa(len(definition.Meta.Actions)),
				)
			}

			return renderTable(table)
		},
	}
}
