package cmd

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"toomuchleft/internal/app"
)

func NewUICommand() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "ui [ROOT]",
		Short: "Browse and delete scan results interactively",
		Long: `Start the interactive browser on ROOT. The scan starts immediately and
results appear as they are found. Press ? inside the ui for key bindings.

Logs go to the log directory while the ui owns the terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("ui needs an interactive terminal, use scan instead")
			}
			env, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer env.close()

			req, err := scanRequest(env.cfg, args, flags, cmd.Flags())
			if err != nil {
				return err
			}
			env.logger.Info("ui started", zap.String("root", req.RootPath))
			return app.Run(app.Options{
				Config:     env.cfg,
				ConfigPath: env.configPath,
				Request:    req,
				Logger:     env.logger,
			})
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringArrayVarP(&flags.include, "include", "i", nil, "include pattern, repeatable")
	cmd.Flags().StringArrayVarP(&flags.exclude, "exclude", "e", nil, "exclude pattern, repeatable")
	cmd.Flags().StringVar(&flags.compare, "compare", "", "size comparison: ge (>=) or lt (<)")
	cmd.Flags().StringVar(&flags.size, "size", "", "size threshold such as 500KB or 2GB, or unlimited")
	return cmd
}
