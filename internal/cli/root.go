package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bumpwright/bumpwright/internal/branding"
	"github.com/bumpwright/bumpwright/internal/config"
	"github.com/bumpwright/bumpwright/internal/logging"
	"github.com/bumpwright/bumpwright/internal/propagate"
	"github.com/bumpwright/bumpwright/internal/registry"
	"github.com/bumpwright/bumpwright/internal/workspace"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// appFs is the file system every command works on.
var appFs afero.Fs = afero.NewOsFs()

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("workspace", "", "Directory holding one checkout per repository")
	flags.String("registry", "", "Registry YAML file (default: built-in gtk-rs table)")
	flags.String("log-level", "", "Log level: "+strings.Join(logging.Levels, "|"))

	_ = viper.BindPFlag(config.KeyWorkspace, flags.Lookup("workspace"))
	_ = viper.BindPFlag(config.KeyRegistry, flags.Lookup("registry"))
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` bumps the versions of a federation of packages spread over several
repositories and rewrites every manifest that depends on them, in dependency order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// session is what every release command needs.
type session struct {
	log    *zap.Logger
	reg    *registry.Registry
	store  *workspace.Store
	runner *propagate.Runner
}

func newSession() (*session, error) {
	log, err := logging.New(config.Get(config.KeyLogLevel))
	if err != nil {
		return nil, err
	}

	var reg *registry.Registry
	if path := config.Get(config.KeyRegistry); path != "" {
		reg, err = registry.Load(appFs, path)
	} else {
		reg, err = registry.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	store := workspace.New(appFs, config.Get(config.KeyWorkspace), log)
	return &session{
		log:   log,
		reg:   reg,
		store: store,
		runner: &propagate.Runner{
			Registry:         reg,
			Store:            store,
			ManifestName:     config.Get(config.KeyManifestName),
			DependencyTables: config.GetStringSlice(config.KeyDependencyTables),
			Logger:           log,
		},
	}, nil
}

func (s *session) close() {
	_ = s.log.Sync()
}
