package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bumpwright/bumpwright/internal/config"
	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/tagging"
)

var (
	tagsVersions string
	tagsPackage  string
)

func init() {
	tagsCmd.Flags().StringVar(&tagsVersions, "versions", "", "Versions YAML file saved by bump or pin")
	tagsCmd.Flags().StringVar(&tagsPackage, "package", "", "The run only released this package")
	_ = tagsCmd.MarkFlagRequired("versions")
	rootCmd.AddCommand(tagsCmd)
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the tag of each repository and the release branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := propagate.LoadTable(appFs, tagsVersions)
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		tags, err := tagging.Tags(s.reg, table, tagsPackage)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(tags) == 0 {
			fmt.Fprintln(out, "No tag to create")
		}
		for _, t := range tags {
			fmt.Fprintf(out, "  ✓ %s: %s (%s)\n", t.Repository, t.Name, t.Source)
		}

		branches := tagging.DefaultBranches()
		branches.Bump.Temp = config.Get(config.KeyMasterBranch)
		branches.Pin.Temp = config.Get(config.KeyCrateBranch)
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  bump branch: %s -> %s\n", branches.Bump.Temp, branches.Bump.Base)
		fmt.Fprintf(out, "  pin branch:  %s -> %s\n", branches.Pin.Temp, branches.Pin.Base)
		return nil
	},
}
