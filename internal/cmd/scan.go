package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"toomuchleft/internal/app"
	"toomuchleft/internal/config"
	"toomuchleft/internal/domain"
	"toomuchleft/internal/services"
	"toomuchleft/internal/sizeunit"
)

type scanFlags struct {
	include []string
	exclude []string
	compare string
	size    string
	sort    string
	tree    bool
}

func NewScanCommand() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan [ROOT]",
		Short: "List entries under ROOT that match the patterns and size filter",
		Long: `Scan ROOT (default: the configured path) and print every matching entry.

Patterns use .gitignore syntax. An entry matching --exclude is skipped,
otherwise it is a result when it matches --include (or when no include
pattern is given). A matched directory is reported as a whole with its
total size and is not descended into; other directories are searched.

Examples:
  toomuchleft scan ~/src -i node_modules/ -i '*.pyc'
  toomuchleft scan . -i '*.log' -e 'keep/' --size 10MB
  toomuchleft scan /tmp --compare lt --size 1KB --tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer env.close()

			req, err := scanRequest(env.cfg, args, flags, cmd.Flags())
			if err != nil {
				return err
			}
			mode := domain.ParseSortMode(flags.sort, env.cfg.SortMode)
			engine := services.NewEngine(env.logger, app.Settings(env.cfg))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScan(ctx, engine, req, mode, flags.tree, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringArrayVarP(&flags.include, "include", "i", nil, "include pattern, repeatable (default: configured include list, or everything)")
	cmd.Flags().StringArrayVarP(&flags.exclude, "exclude", "e", nil, "exclude pattern, repeatable (default: configured exclude list)")
	cmd.Flags().StringVar(&flags.compare, "compare", "", "size comparison: ge (>=) or lt (<)")
	cmd.Flags().StringVar(&flags.size, "size", "", "size threshold such as 500KB or 2GB, or unlimited")
	cmd.Flags().StringVar(&flags.sort, "sort", "", "result order: ext, size or path")
	cmd.Flags().BoolVar(&flags.tree, "tree", false, "print results as a directory tree")
	return cmd
}

// scanRequest merges the command flags over the configured defaults.
func scanRequest(cfg config.Config, args []string, flags scanFlags, set *pflag.FlagSet) (services.ScanRequest, error) {
	req := services.ScanRequest{
		RootPath:  cfg.Path,
		Include:   cfg.Include,
		Exclude:   cfg.Exclude,
		Compare:   cfg.CompareOp(),
		Threshold: cfg.Threshold,
	}
	if len(args) > 0 {
		req.RootPath = args[0]
	}
	if set.Changed("include") {
		req.Include = flags.include
	}
	if set.Changed("exclude") {
		req.Exclude = flags.exclude
	}
	if set.Changed("compare") {
		op, err := domain.ParseCompareOp(flags.compare)
		if err != nil {
			return services.ScanRequest{}, err
		}
		req.Compare = op
	}
	if set.Changed("size") {
		req.Threshold = flags.size
	}
	return req, nil
}

func runScan(ctx context.Context, ops services.Operations, req services.ScanRequest, mode domain.SortMode, tree bool, out io.Writer) error {
	handle, err := ops.StartScan(req)
	if err != nil {
		return err
	}
	records, result := handle.Collect(ctx)
	domain.SortRecords(records, mode)

	if tree {
		printTree(out, handle.Root, records)
	} else {
		printRecords(out, records)
	}

	summary := fmt.Sprintf("%s results, %s", humanize.Comma(int64(len(records))), sizeunit.Format(domain.TotalSize(records)))
	switch result.Status {
	case services.StatusFailed:
		color.New(color.FgRed, color.Bold).Fprintf(out, "✗ Scan failed (%s before the error)\n", summary)
		return result.Err
	case services.StatusCancelled:
		color.New(color.FgYellow).Fprintf(out, "Scan cancelled (%s so far)\n", summary)
		return domain.ErrCancelled
	default:
		color.New(color.FgGreen).Fprintf(out, "✓ %s in %s\n", summary, result.Duration.Round(time.Millisecond))
		return nil
	}
}

func printRecords(out io.Writer, records []domain.SearchResultRecord) {
	for _, record := range records {
		name := record.RelativePath
		if record.IsDir {
			name += "/"
		}
		fmt.Fprintf(out, "%12s  %s\n", sizeunit.Format(record.SizeBytes), name)
	}
}

func printTree(out io.Writer, root string, records []domain.SearchResultRecord) {
	index := domain.BuildTree(root, records)
	dim := color.New(color.Faint)
	index.Walk(func(node *domain.Node, depth int) {
		name := node.Name
		if node.Type == domain.NodeDir {
			name += "/"
		}
		line := fmt.Sprintf("%12s  %s%s", sizeunit.Format(node.AccumBytes), strings.Repeat("  ", depth), name)
		if node.Matched || node.ID == domain.RootID {
			fmt.Fprintln(out, line)
			return
		}
		dim.Fprintln(out, line)
	})
}
