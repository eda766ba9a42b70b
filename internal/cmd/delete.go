package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"toomuchleft/internal/app"
	"toomuchleft/internal/domain"
	"toomuchleft/internal/services"
	"toomuchleft/internal/sizeunit"
)

type deleteFlags struct {
	yes         bool
	noProgress  bool
	stopOnError bool
}

type deleteIO struct {
	in       io.Reader
	out      io.Writer
	progress io.Writer
}

func NewDeleteCommand() *cobra.Command {
	var flags deleteFlags
	cmd := &cobra.Command{
		Use:   "delete PATH...",
		Short: "Delete files and directories, read-only entries included",
		Long: `Delete every PATH. Directories are removed with their contents and
read-only files are made writable first. Symbolic links are removed, never
followed.

A preview is printed and confirmation is asked for unless --yes is given.
With safe mode on (the default) critical system paths and protected paths
are refused.

Examples:
  toomuchleft delete build/ dist/
  toomuchleft delete --yes --stop-on-error ./tmp/cache`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			items, err := deleteItems(args)
			if err != nil {
				return err
			}
			engine := services.NewEngine(env.logger, app.Settings(env.cfg))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			streams := deleteIO{in: cmd.InOrStdin(), out: cmd.OutOrStdout(), progress: cmd.ErrOrStderr()}
			return runDelete(ctx, engine, items, flags, streams)
		},
		SilenceUsage: true,
	}

	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "do not report each deleted path")
	cmd.Flags().BoolVar(&flags.stopOnError, "stop-on-error", false, "stop the batch at the first failure")
	return cmd
}

// deleteItems resolves args to absolute paths. Missing paths are kept so the
// batch reports them per item.
func deleteItems(args []string) ([]domain.DeleteItem, error) {
	items := make([]domain.DeleteItem, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, &domain.ConfigError{Field: "delete", Value: arg, Err: err}
		}
		item := domain.DeleteItem{Path: path}
		if info, err := os.Lstat(path); err == nil {
			item.IsDir = info.IsDir()
		}
		items = append(items, item)
	}
	return items, nil
}

func runDelete(ctx context.Context, ops services.Operations, items []domain.DeleteItem, flags deleteFlags, streams deleteIO) error {
	preview, err := ops.Preview(ctx, items)
	if err != nil {
		return err
	}
	printPreview(streams.out, preview)

	if !flags.yes && !confirm(streams.in, streams.out, len(preview.Items)) {
		color.New(color.FgYellow).Fprintln(streams.out, "Delete cancelled")
		return nil
	}

	handle, err := ops.StartDelete(items, services.DeleteOptions{
		WantProgress:     !flags.noProgress,
		StopOnFirstError: flags.stopOnError,
	})
	if err != nil {
		return err
	}
	release := context.AfterFunc(ctx, handle.Cancel)
	defer release()

	red := color.New(color.FgRed)
	var group errgroup.Group
	group.Go(func() error {
		for {
			batch, ok := handle.Outcomes.NextBatch(context.Background(), 64)
			if !ok {
				return nil
			}
			for _, outcome := range batch {
				if !outcome.Success {
					red.Fprintf(streams.out, "✗ %s\n", domain.Describe(outcome.Err))
				}
			}
		}
	})
	if handle.Progress != nil {
		group.Go(func() error {
			for {
				path, ok := handle.Progress.Next(context.Background())
				if !ok {
					return nil
				}
				fmt.Fprintf(streams.progress, "deleted %s\n", path)
			}
		})
	}
	_ = group.Wait()

	result := handle.Wait()
	summary := fmt.Sprintf("%s deleted, %s failed", humanize.Comma(int64(result.SuccessCount)), humanize.Comma(int64(result.FailureCount)))
	switch {
	case result.Status == services.StatusCancelled:
		color.New(color.FgYellow).Fprintf(streams.out, "Delete stopped - %s, %s skipped\n", summary, humanize.Comma(int64(result.Skipped)))
		if result.Err != nil {
			return result.Err
		}
		return domain.ErrCancelled
	case result.FailureCount > 0:
		color.New(color.FgYellow).Fprintf(streams.out, "Delete finished with errors - %s\n", summary)
		return result.Err
	default:
		color.New(color.FgGreen).Fprintf(streams.out, "✓ Delete complete - %s in %s\n", summary, result.Duration.Round(time.Millisecond))
		return nil
	}
}

func printPreview(out io.Writer, preview services.DeletePreview) {
	bold := color.New(color.Bold)
	bold.Fprintf(out, "About to delete %s items: %s files, %s directories, %s\n",
		humanize.Comma(int64(len(preview.Items))),
		humanize.Comma(int64(preview.TotalFiles)),
		humanize.Comma(int64(preview.TotalDirs)),
		sizeunit.Format(preview.TotalBytes),
	)
	for _, sample := range preview.Samples {
		fmt.Fprintf(out, "  %s\n", sample)
	}
	if extra := preview.TotalFiles - len(preview.Samples); extra > 0 && len(preview.Samples) > 0 {
		fmt.Fprintf(out, "  ... and %s more\n", humanize.Comma(int64(extra)))
	}
	warn := color.New(color.FgYellow)
	for _, warning := range preview.Warnings {
		warn.Fprintf(out, "! %s\n", warning)
	}
}

func confirm(in io.Reader, out io.Writer, count int) bool {
	fmt.Fprintf(out, "Delete %s items? [y/N] ", humanize.Comma(int64(count)))
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
