package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/pathspec"
	"toomuchleft/internal/sizeunit"
)

type FSScanner struct {
	logger  *zap.Logger
	workers int
	listDir func(name string) ([]os.DirEntry, error)
}

type scanPlan struct {
	root       string
	classifier *PathClassifier
	filter     domain.SizeFilter
}

type scanJob struct {
	root       string
	classifier *PathClassifier
	passes     func(int64) bool
	token      *CancelToken
	sink       *Sink[domain.SearchResultRecord]
	pool       *workPool
	counters   scanCounters
}

// dirBatch collects the classifications of one directory listing. The task
// that classifies the last entry settles the batch.
type dirBatch struct {
	results   []domain.Classification
	remaining atomic.Int32
}

type scanCounters struct {
	directories atomic.Int64
	classified  atomic.Int64
	emitted     atomic.Int64
	filtered    atomic.Int64
	excluded    atomic.Int64
	denied      atomic.Int64
}

func NewFSScanner(logger *zap.Logger, workers int) *FSScanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FSScanner{
		logger:  logger,
		workers: defaultWorkers(workers),
		listDir: os.ReadDir,
	}
}

// compileScan validates a request up front so configuration problems never
// surface mid-scan.
func compileScan(req ScanRequest) (scanPlan, error) {
	if strings.TrimSpace(req.RootPath) == "" {
		return scanPlan{}, &domain.ConfigError{Field: "root", Value: req.RootPath, Err: errors.New("root directory required")}
	}
	root := cleanPath(req.RootPath)
	info, err := os.Stat(root)
	if err != nil {
		return scanPlan{}, &domain.ConfigError{Field: "root", Value: req.RootPath, Err: err}
	}
	if !info.IsDir() {
		return scanPlan{}, &domain.ConfigError{Field: "root", Value: req.RootPath, Err: errors.New("not a directory")}
	}
	op := req.Compare
	if op == "" {
		op = domain.GreaterOrEqual
	}
	if op != domain.LessThan && op != domain.GreaterOrEqual {
		return scanPlan{}, &domain.ConfigError{Field: "compare", Value: string(op), Err: errors.New("expected lt or ge")}
	}
	filter, err := sizeunit.ParseFilter(op, req.Threshold)
	if err != nil {
		return scanPlan{}, err
	}
	return scanPlan{
		root:       root,
		classifier: NewPathClassifier(pathspec.Compile(req.Include), pathspec.Compile(req.Exclude)),
		filter:     filter,
	}, nil
}

// Scan walks plan.root until the task graph drains, the token is cancelled
// or a task fails. Matches are pushed to sink as they settle; the sink is
// left open for the caller to close.
func (scanner *FSScanner) Scan(parent context.Context, token *CancelToken, plan scanPlan, sink *Sink[domain.SearchResultRecord]) (ScanStats, error) {
	ctx, cancel := token.Context(parent)
	defer cancel()

	job := &scanJob{
		root:       plan.root,
		classifier: plan.classifier,
		passes:     plan.filter.Predicate(),
		token:      token,
		sink:       sink,
		pool:       newWorkPool(ctx, scanner.workers, scanner.logger),
	}
	job.pool.Go(func(ctx context.Context) error {
		return scanner.expand(ctx, job, plan.root, "")
	})
	err := job.pool.Wait()
	if err == nil && parent.Err() != nil {
		err = parent.Err()
	}
	return job.counters.snapshot(), err
}

func (scanner *FSScanner) expand(ctx context.Context, job *scanJob, dir, rel string) error {
	if job.token.Cancelled() || ctx.Err() != nil {
		return nil
	}
	entries, err := scanner.listDir(dir)
	if err != nil {
		return &domain.ScanError{Path: dir, Err: err}
	}
	job.counters.directories.Add(1)
	scanner.logger.Debug("directory listed", zap.String("path", dir), zap.Int("count", len(entries)))
	if len(entries) == 0 {
		return nil
	}

	batch := &dirBatch{results: make([]domain.Classification, len(entries))}
	batch.remaining.Store(int32(len(entries)))
	for index, entry := range entries {
		name := entry.Name()
		job.pool.Go(func(ctx context.Context) error {
			result, err := job.classifier.Classify(ctx, filepath.Join(dir, name), joinRel(rel, name))
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			batch.results[index] = result
			job.counters.classified.Add(1)
			if batch.remaining.Add(-1) > 0 {
				return nil
			}
			return scanner.settle(job, batch)
		})
	}
	return nil
}

func (scanner *FSScanner) settle(job *scanJob, batch *dirBatch) error {
	var children []domain.Classification
	for _, result := range batch.results {
		switch result.Kind {
		case domain.Matched:
			if job.passes != nil && !job.passes(result.SizeBytes) {
				job.counters.filtered.Add(1)
				continue
			}
			if job.token.Cancelled() {
				return nil
			}
			job.sink.Push(domain.NewRecord(job.root, result))
			job.counters.emitted.Add(1)
		case domain.NotMatched:
			if result.IsDir {
				children = append(children, result)
			}
		case domain.Excluded:
			job.counters.excluded.Add(1)
		case domain.PermissionDenied:
			job.counters.denied.Add(1)
		}
	}
	for _, child := range children {
		job.pool.Go(func(ctx context.Context) error {
			return scanner.expand(ctx, job, child.AbsolutePath, child.RelativePath)
		})
	}
	return nil
}

func (counters *scanCounters) snapshot() ScanStats {
	return ScanStats{
		Directories: counters.directories.Load(),
		Classified:  counters.classified.Load(),
		Emitted:     counters.emitted.Load(),
		Filtered:    counters.filtered.Load(),
		Excluded:    counters.excluded.Load(),
		Denied:      counters.denied.Load(),
	}
}

func scanStatus(token *CancelToken, err error) Status {
	if err != nil && domain.KindOf(err) != domain.KindCancelled {
		return StatusFailed
	}
	if token.Cancelled() || err != nil {
		return StatusCancelled
	}
	return StatusCompleted
}

func describeStats(stats ScanStats, elapsed time.Duration) string {
	return fmt.Sprintf("%d dirs, %d entries, %d matches in %s",
		stats.Directories, stats.Classified, stats.Emitted, elapsed.Round(time.Millisecond))
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return path.Join(rel, name)
}

func cleanPath(path string) string {
	if path == "" {
		return path
	}
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean
	}
	return abs
}

func isWithin(root, path string) bool {
	if root == path {
		return true
	}
	rootWithSep := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(path, rootWithSep)
}
