package cli

import (
	"github.com/spf13/cobra"

	"github.com/bumpwright/bumpwright/internal/registry"
)

var (
	planDeclared bool
	planExport   bool
)

func init() {
	planCmd.Flags().BoolVar(&planDeclared, "declared", false, "Use only the edges declared in the registry, without reading manifests")
	planCmd.Flags().BoolVar(&planExport, "export", false, "Print the registry in use as YAML, a starting point for --registry")
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the order in which packages are processed",
	Long: `Print the processing order of a release run. Edges come from the registry's
depends_on lists and from the dependency tables of every manifest.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		if planExport {
			data, err := s.reg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		var (
			g     *registry.Graph
			order []string
		)
		if planDeclared {
			g = s.reg.Graph()
			order, err = g.Order()
		} else {
			g, order, err = s.runner.Plan(cmd.Context())
		}
		if err != nil {
			return err
		}

		registry.PrintPlan(cmd.OutOrStdout(), g, order)
		return nil
	},
}
