package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/sizeunit"
)

// Engine starts scans and delete batches in the background and hands back
// handles to observe and cancel them.
type Engine struct {
	logger  *zap.Logger
	scanner *FSScanner
	actions *FSActions
}

type ScanHandle struct {
	ID      string
	Root    string
	Results *Sink[domain.SearchResultRecord]
	Token   *CancelToken
	done    chan struct{}
	result  ScanResult
}

type DeleteHandle struct {
	ID       string
	Items    []domain.DeleteItem
	Progress *Sink[string]
	Outcomes *Sink[domain.DeletionOutcome]
	Token    *CancelToken
	done     chan struct{}
	result   DeleteResult
}

func NewEngine(logger *zap.Logger, settings Settings) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:  logger,
		scanner: NewFSScanner(logger.Named("scanner"), settings.Workers),
		actions: NewFSActions(logger.Named("delete"), settings),
	}
}

// StartScan validates req and starts the scan. Configuration problems are
// returned here as *domain.ConfigError; the scan itself reports through the
// handle.
func (engine *Engine) StartScan(req ScanRequest) (*ScanHandle, error) {
	plan, err := compileScan(req)
	if err != nil {
		return nil, err
	}
	handle := newScanHandle(NewCancelToken(), plan.root)
	logger := engine.logger.With(zap.String("op", handle.ID), zap.String("root", plan.root))
	logger.Info("scan started",
		zap.String("include", plan.classifier.include.String()),
		zap.String("exclude", plan.classifier.exclude.String()),
		zap.String("filter", sizeunit.FormatFilter(plan.filter)),
	)

	go func() {
		start := time.Now()
		stats, err := engine.scanner.Scan(context.Background(), handle.Token, plan, handle.Results)
		result := ScanResult{
			ID:       handle.ID,
			RootPath: plan.root,
			Status:   scanStatus(handle.Token, err),
			Duration: time.Since(start),
			Stats:    stats,
		}
		switch result.Status {
		case StatusFailed:
			result.Err = err
			logger.Error("scan failed", zap.Error(err), zap.Duration("duration", result.Duration))
		case StatusCancelled:
			logger.Info("scan cancelled", zap.Int64("count", stats.Emitted), zap.Duration("duration", result.Duration))
		default:
			logger.Info("scan finished", zap.String("summary", describeStats(stats, result.Duration)))
		}
		handle.finish(result)
	}()
	return handle, nil
}

func (engine *Engine) CancelScan(token *CancelToken) bool {
	if token == nil {
		return false
	}
	return token.Cancel()
}

// StartDelete normalises items, applies safe mode and starts the batch. The
// progress sink is only created when wantProgress is set.
func (engine *Engine) StartDelete(items []domain.DeleteItem, opts DeleteOptions) (*DeleteHandle, error) {
	prepared, err := engine.actions.prepare(items)
	if err != nil {
		return nil, err
	}
	handle := newDeleteHandle(NewCancelToken(), prepared, opts.WantProgress)
	logger := engine.logger.With(zap.String("op", handle.ID))
	logger.Info("delete started", zap.Int("count", len(prepared)), zap.Bool("stop_on_error", opts.StopOnFirstError))

	go func() {
		start := time.Now()
		result, _ := engine.actions.Delete(context.Background(), handle.Token, prepared, opts, handle.Outcomes, handle.Progress)
		result.ID = handle.ID
		result.Duration = time.Since(start)
		logger.Info("delete finished",
			zap.String("status", string(result.Status)),
			zap.Int("deleted", result.SuccessCount),
			zap.Int("failed", result.FailureCount),
			zap.Int("skipped", result.Skipped),
			zap.Duration("duration", result.Duration),
		)
		handle.finish(result)
	}()
	return handle, nil
}

func (engine *Engine) CancelDelete(token *CancelToken) bool {
	if token == nil {
		return false
	}
	return token.Cancel()
}

func (engine *Engine) Preview(ctx context.Context, items []domain.DeleteItem) (DeletePreview, error) {
	return engine.actions.Preview(ctx, items)
}

func newScanHandle(token *CancelToken, root string) *ScanHandle {
	return &ScanHandle{
		ID:      token.ID(),
		Root:    root,
		Results: NewSink[domain.SearchResultRecord](),
		Token:   token,
		done:    make(chan struct{}),
	}
}

func (handle *ScanHandle) finish(result ScanResult) {
	handle.result = result
	handle.Token.retire()
	handle.Results.Close()
	close(handle.done)
}

func (handle *ScanHandle) Done() <-chan struct{} {
	return handle.done
}

func (handle *ScanHandle) Wait() ScanResult {
	<-handle.done
	return handle.result
}

// Cancel is a no-op once the scan has finished.
func (handle *ScanHandle) Cancel() {
	handle.Token.Cancel()
}

// Collect drains the results until the scan finishes.
func (handle *ScanHandle) Collect(ctx context.Context) ([]domain.SearchResultRecord, ScanResult) {
	var records []domain.SearchResultRecord
	for {
		batch, ok := handle.Results.NextBatch(ctx, 512)
		if !ok {
			break
		}
		records = append(records, batch...)
	}
	if ctx.Err() != nil {
		handle.Cancel()
	}
	return records, handle.Wait()
}

func newDeleteHandle(token *CancelToken, items []domain.DeleteItem, wantProgress bool) *DeleteHandle {
	handle := &DeleteHandle{
		ID:       token.ID(),
		Items:    items,
		Outcomes: NewSink[domain.DeletionOutcome](),
		Token:    token,
		done:     make(chan struct{}),
	}
	if wantProgress {
		handle.Progress = NewSink[string]()
	}
	return handle
}

func (handle *DeleteHandle) finish(result DeleteResult) {
	handle.result = result
	handle.Token.retire()
	handle.Outcomes.Close()
	if handle.Progress != nil {
		handle.Progress.Close()
	}
	close(handle.done)
}

func (handle *DeleteHandle) Done() <-chan struct{} {
	return handle.done
}

func (handle *DeleteHandle) Wait() DeleteResult {
	<-handle.done
	return handle.result
}

func (handle *DeleteHandle) Cancel() {
	handle.Token.Cancel()
}
