package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every manifest and the registry graph",
	Long: `Parse every registered manifest and report, for each one, whether it can be
processed, whether rewriting it would normalize its layout, and whether it is
valid TOML. Then verify that the packages can be ordered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		out := cmd.OutOrStdout()
		reports, err := s.runner.Check(cmd.Context())
		for _, rep := range reports {
			if rep.Err != nil {
				fmt.Fprintf(out, "  ✗ %s (%s): %v\n", rep.Package, rep.Path, rep.Err)
				continue
			}
			fmt.Fprintf(out, "  ✓ %s (%s)\n", rep.Package, rep.Path)
			if rep.Normalized {
				fmt.Fprintf(out, "      note: layout will be normalized on rewrite\n")
			}
			if rep.TOMLErr != nil {
				fmt.Fprintf(out, "      warning: %v\n", rep.TOMLErr)
			}
		}
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		fmt.Fprintf(out, "\n%d manifests OK, processing order is consistent\n", len(reports))
		return nil
	},
}
