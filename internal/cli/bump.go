package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/version"
)

var (
	bumpMode        string
	bumpPackage     string
	bumpDryRun      bool
	bumpVersionsOut string
)

func init() {
	bumpCmd.Flags().StringVar(&bumpMode, "mode", "", "Bump class: major, medium or minor")
	bumpCmd.Flags().StringVar(&bumpPackage, "package", "", "Only bump this package's own version")
	bumpCmd.Flags().BoolVar(&bumpDryRun, "dry-run", false, "Compute every change without writing manifests")
	bumpCmd.Flags().StringVar(&bumpVersionsOut, "versions-out", "", "Save the resolved versions to this YAML file")
	_ = bumpCmd.MarkFlagRequired("mode")
	rootCmd.AddCommand(bumpCmd)
}

var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Bump package versions and update every dependent manifest",
	Long: `Bump the version of every registered package by the given class, in
dependency order, and point every reference to a registered package at its new
version. Local path and git overrides of those references are removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		class, err := version.ParseClass(bumpMode)
		if err != nil {
			return err
		}
		if class == version.None {
			return fmt.Errorf("bump needs major, medium or minor; use pin to only refresh dependencies")
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		result, err := s.runner.Run(cmd.Context(), propagate.Request{
			Class:   class,
			Package: bumpPackage,
			DryRun:  bumpDryRun,
		}, nil)
		if result != nil {
			printResult(cmd.OutOrStdout(), result, bumpDryRun)
		}
		if err != nil {
			return err
		}
		return saveVersions(cmd.OutOrStdout(), bumpVersionsOut, result.Table)
	},
}

func printResult(w io.Writer, result *propagate.Result, dryRun bool) {
	changed := 0
	for _, m := range result.Manifests {
		if !m.Changed {
			continue
		}
		changed++
		v := m.Version
		if v.Old != v.New {
			fmt.Fprintf(w, "  ✓ %s: %s => %s\n", v.Package, v.Old, v.New)
		} else {
			fmt.Fprintf(w, "  ✓ %s: %s\n", v.Package, v.New)
		}
		for _, d := range m.Dependencies {
			fmt.Fprintf(w, "      [%s] %s: %s => %s\n", d.Section, d.Package, orNone(d.Old), d.New)
		}
	}

	switch {
	case dryRun:
		fmt.Fprintf(w, "\nDry run: %d of %d manifests would change\n", changed, len(result.Manifests))
	case changed == 0:
		fmt.Fprintf(w, "\nAll %d manifests already up to date\n", len(result.Manifests))
	default:
		fmt.Fprintf(w, "\nUpdated %d of %d manifests\n", len(result.Written), len(result.Manifests))
	}
}

func saveVersions(w io.Writer, path string, table *propagate.Table) error {
	if path == "" {
		return nil
	}
	if err := propagate.SaveTable(appFs, path, table); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved %d versions to %s\n", table.Len(), path)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
