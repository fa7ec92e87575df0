package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/foundation-client/internal/codegen"
)

const generatedFileMode = 0o644

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var (
		snapshot string
		pkg      string
		out      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate typed resource wrappers",
		Long: `Generate one Go type per resource from a schema snapshot. Each getter,
setter and action becomes a method with the declared number of parameters.`,
		Example: `  foundation schema export --file schema.yaml
  foundation generate --snapshot schema.yaml --package resources --out resources/zz_generated.go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			document, err := loadSnapshot(snapshot)
			if err != nil {
				return err
			}

			source, err := codegen.Generate(pkg, document.Data)
			if err != nil {
				return fmt.Errorf("generating wrappers: %w", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(source)

				return err
			}

			err = os.WriteFile(out, source, generatedFileMode)
			if err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d resource types in %s\n", len(document.Data), out)

			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "schema snapshot file (yaml or json)")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package name of the generated file")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("package")

	return cmd
}
