package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toomuchleft/internal/app"
	"toomuchleft/internal/config"
	"toomuchleft/internal/logging"
)

// Version is injected at build time via -ldflags
var Version = "dev"

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toomuchleft",
		Short: "Find and remove leftover files by pattern and size",
		Long: `toomuchleft walks a directory tree, keeps the entries that match
gitignore-style include patterns, drops excluded ones, filters what is left
by size and lets you delete the results, read-only files included.

Scans and deletes run on a worker pool and can be cancelled at any time
with Ctrl-C (or esc in the interactive ui).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewDeleteCommand())
	cmd.AddCommand(NewUICommand())
	cmd.AddCommand(NewConfigCommand())
	return cmd
}

type environment struct {
	cfg        config.Config
	configPath string
	logger     *zap.Logger
	cleanup    func()
}

// setup loads configuration for cmd and builds its logger. Console logs go to
// the command's stderr so results on stdout stay clean.
func setup(cmd *cobra.Command, interactive bool) (*environment, error) {
	path, err := resolveConfigPath(cmd)
	if err != nil {
		return nil, err
	}
	explicit, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(explicit, cmd.Flags())
	if err != nil {
		return nil, err
	}
	opts := app.LoggingOptions(cfg, interactive)
	opts.Console = cmd.ErrOrStderr()
	logger, cleanup, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, configPath: path, logger: logger, cleanup: cleanup}, nil
}

func (env *environment) close() {
	if env != nil && env.cleanup != nil {
		env.cleanup()
	}
}

func resolveConfigPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	return config.ConfigPath()
}
