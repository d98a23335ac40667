package cli

import (
	"github.com/spf13/cobra"

	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/version"
)

var (
	pinVersions    string
	pinDryRun      bool
	pinVersionsOut string
)

func init() {
	pinCmd.Flags().StringVar(&pinVersions, "versions", "", "Versions YAML file saved by a previous bump")
	pinCmd.Flags().BoolVar(&pinDryRun, "dry-run", false, "Compute every change without writing manifests")
	pinCmd.Flags().StringVar(&pinVersionsOut, "versions-out", "", "Save the resolved versions to this YAML file")
	rootCmd.AddCommand(pinCmd)
}

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Refresh dependency pins without bumping",
	Long: `Set every package's own version from the versions file (or keep its current
version when the file does not list it) and point every reference to a
registered package at that version.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := propagate.NewTable()
		if pinVersions != "" {
			var err error
			if table, err = propagate.LoadTable(appFs, pinVersions); err != nil {
				return err
			}
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		result, err := s.runner.Run(cmd.Context(), propagate.Request{
			Class:  version.None,
			DryRun: pinDryRun,
		}, table)
		if result != nil {
			printResult(cmd.OutOrStdout(), result, pinDryRun)
		}
		if err != nil {
			return err
		}
		return saveVersions(cmd.OutOrStdout(), pinVersionsOut, result.Table)
	},
}
