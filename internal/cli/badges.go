package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bumpwright/bumpwright/internal/badges"
	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/workspace"
)

var (
	badgesVersions string
	badgesFile     string
	badgesPackage  string
	badgesDryRun   bool
)

func init() {
	badgesCmd.Flags().StringVar(&badgesVersions, "versions", "", "Versions YAML file saved by bump or pin")
	badgesCmd.Flags().StringVar(&badgesFile, "file", "_data/crates.json", "crates.json file of the website")
	badgesCmd.Flags().StringVar(&badgesPackage, "package", "", "Only update this package")
	badgesCmd.Flags().BoolVar(&badgesDryRun, "dry-run", false, "Print the updates without writing")
	_ = badgesCmd.MarkFlagRequired("versions")
	rootCmd.AddCommand(badgesCmd)
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Update max_version badges in the website's crates.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := propagate.LoadTable(appFs, badgesVersions)
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		store := workspace.New(appFs, "", s.log)
		text, err := store.Read(badgesFile)
		if err != nil {
			return err
		}
		updated, updates, err := badges.Rewrite(text, table.Lookup, badgesPackage, s.log)
		if err != nil {
			return fmt.Errorf("%s: %w", badgesFile, err)
		}

		out := cmd.OutOrStdout()
		for _, u := range updates {
			fmt.Fprintf(out, "  ✓ %s: %s => %s\n", u.Name, u.Old, u.New)
		}
		if len(updates) == 0 {
			fmt.Fprintln(out, "Badges already up to date")
			return nil
		}
		if badgesDryRun {
			fmt.Fprintf(out, "\nDry run: %d badges would change\n", len(updates))
			return nil
		}
		if err := store.Write(badgesFile, updated); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nUpdated %d badges in %s\n", len(updates), badgesFile)
		return nil
	},
}
