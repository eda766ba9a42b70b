package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"toomuchleft/internal/domain"
)

type FSActions struct {
	logger    *zap.Logger
	workers   int
	safeMode  bool
	protected []string
}

type deleteTally struct {
	succeeded atomic.Int64
	failed    atomic.Int64
	mu        sync.Mutex
	errs      []error
}

func NewFSActions(logger *zap.Logger, settings Settings) *FSActions {
	if logger == nil {
		logger = zap.NewNop()
	}
	protected := make([]string, 0, len(settings.Protected))
	for _, path := range settings.Protected {
		if path != "" {
			protected = append(protected, cleanPath(path))
		}
	}
	return &FSActions{
		logger:    logger,
		workers:   defaultWorkers(settings.Workers),
		safeMode:  settings.SafeMode,
		protected: protected,
	}
}

// prepare normalises items and applies safe mode before anything is touched.
func (actions *FSActions) prepare(items []domain.DeleteItem) ([]domain.DeleteItem, error) {
	seen := make(map[string]struct{}, len(items))
	result := make([]domain.DeleteItem, 0, len(items))
	for _, item := range items {
		if item.Path == "" {
			continue
		}
		clean := cleanPath(item.Path)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		if actions.safeMode && actions.isCriticalPath(clean) {
			return nil, &domain.ConfigError{Field: "delete", Value: clean, Err: errors.New("blocked critical path in safe mode")}
		}
		result = append(result, domain.DeleteItem{Path: clean, IsDir: item.IsDir})
	}
	return result, nil
}

func (actions *FSActions) Preview(ctx context.Context, items []domain.DeleteItem) (DeletePreview, error) {
	prepared, err := actions.prepare(items)
	if err != nil {
		return DeletePreview{}, err
	}
	preview := DeletePreview{Samples: []string{}}
	for _, item := range prepared {
		if err := ctx.Err(); err != nil {
			return DeletePreview{}, err
		}
		preview.Items = append(preview.Items, item.Path)
		info, err := os.Lstat(item.Path)
		if err != nil {
			preview.Warnings = append(preview.Warnings, err.Error())
			continue
		}
		if !info.IsDir() || isReparsePoint(item.Path, info) {
			preview.addFile(item.Path, info.Size())
			continue
		}
		preview.TotalDirs++
		walkErr := filepath.WalkDir(item.Path, func(child string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				preview.Warnings = append(preview.Warnings, walkErr.Error())
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if child != item.Path {
					preview.TotalDirs++
				}
				return nil
			}
			var size int64
			if fileInfo, err := entry.Info(); err == nil && fileInfo.Mode().IsRegular() {
				size = fileInfo.Size()
			}
			preview.addFile(child, size)
			return nil
		})
		if walkErr != nil {
			return DeletePreview{}, walkErr
		}
	}
	return preview, nil
}

func (preview *DeletePreview) addFile(path string, size int64) {
	preview.TotalFiles++
	preview.TotalBytes += size
	if len(preview.Samples) < 5 {
		preview.Samples = append(preview.Samples, path)
	}
}

// Delete removes every item on the pool, one task per item. Items not yet
// started when token is cancelled are skipped without an outcome; an item
// already being removed runs to completion. Failures are reported per item
// and do not stop the batch unless opts.StopOnFirstError is set.
func (actions *FSActions) Delete(ctx context.Context, token *CancelToken, items []domain.DeleteItem, opts DeleteOptions, outcomes *Sink[domain.DeletionOutcome], progress *Sink[string]) (DeleteResult, error) {
	ctx, cancel := token.Context(ctx)
	defer cancel()

	pool := newWorkPool(ctx, actions.workers, actions.logger)
	tally := &deleteTally{}
	for _, item := range items {
		pool.Go(func(ctx context.Context) error {
			if token.Cancelled() {
				return nil
			}
			actions.deleteOne(token, item, opts, tally, outcomes, progress)
			return nil
		})
	}
	err := pool.Wait()

	result := DeleteResult{
		Requested:    len(items),
		SuccessCount: int(tally.succeeded.Load()),
		FailureCount: int(tally.failed.Load()),
	}
	result.Skipped = result.Requested - result.SuccessCount - result.FailureCount
	result.Status = StatusCompleted
	if token.Cancelled() {
		result.Status = StatusCancelled
	}
	tally.mu.Lock()
	if err != nil {
		tally.errs = append(tally.errs, err)
	}
	result.Err = errors.Join(tally.errs...)
	tally.mu.Unlock()
	return result, result.Err
}

func (actions *FSActions) deleteOne(token *CancelToken, item domain.DeleteItem, opts DeleteOptions, tally *deleteTally, outcomes *Sink[domain.DeletionOutcome], progress *Sink[string]) {
	var err error
	if item.IsDir {
		err = removeTree(item.Path)
	} else {
		err = removeFile(item.Path, true)
	}
	if err != nil {
		deleteErr := asDeleteError(item.Path, err)
		tally.failed.Add(1)
		tally.mu.Lock()
		tally.errs = append(tally.errs, deleteErr)
		tally.mu.Unlock()
		outcomes.Push(domain.DeletionOutcome{Path: item.Path, Success: false, Err: deleteErr})
		actions.logger.Warn("delete failed",
			zap.String("path", deleteErr.Path),
			zap.String("item", item.Path),
			zap.Error(deleteErr.Err),
		)
		if opts.StopOnFirstError && token.Cancel() {
			actions.logger.Info("delete batch stopped after first failure", zap.String("op", token.ID()))
		}
		return
	}
	tally.succeeded.Add(1)
	if progress != nil {
		progress.Push(item.Path)
	}
	outcomes.Push(domain.DeletionOutcome{Path: item.Path, Success: true})
}

// removeTree deletes path and everything below it without following links.
// A failure names the entry that could not be removed.
func removeTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &domain.DeleteError{Path: path, Err: err}
	}
	if !info.IsDir() || isReparsePoint(path, info) {
		return removeFile(path, false)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return &domain.DeleteError{Path: path, Err: err}
	}
	for _, entry := range entries {
		if err := removeTree(filepath.Join(path, entry.Name())); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &domain.DeleteError{Path: path, Err: err}
	}
	return nil
}

// removeFile removes a single non-directory entry. A regular file that
// refuses removal has its read-only attribute cleared and is retried once.
func removeFile(path string, clearFirst bool) error {
	info, err := os.Lstat(path)
	if err != nil {
		return &domain.DeleteError{Path: path, Err: err}
	}
	regular := info.Mode().IsRegular()
	if clearFirst && regular && isReadOnly(info) {
		if err := clearReadOnly(path, info); err != nil {
			return &domain.DeleteError{Path: path, Err: fmt.Errorf("clear read-only: %w", err)}
		}
	}
	err = os.Remove(path)
	if err == nil {
		return nil
	}
	if !regular || !isReadOnly(info) {
		return &domain.DeleteError{Path: path, Err: err}
	}
	if clearErr := clearReadOnly(path, info); clearErr != nil {
		return &domain.DeleteError{Path: path, Err: err}
	}
	if err := os.Remove(path); err != nil {
		return &domain.DeleteError{Path: path, Err: err}
	}
	return nil
}

func asDeleteError(item string, err error) *domain.DeleteError {
	var deleteErr *domain.DeleteError
	if errors.As(err, &deleteErr) {
		return &domain.DeleteError{Item: item, Path: deleteErr.Path, Err: deleteErr.Err}
	}
	return &domain.DeleteError{Item: item, Path: item, Err: err}
}

func (actions *FSActions) isCriticalPath(path string) bool {
	path = filepath.Clean(path)
	if filepath.Dir(path) == path {
		return true
	}
	exact := []string{"/var", "/home", "/Users"}
	subtree := []string{"/etc", "/usr", "/bin", "/sbin", "/lib", "/boot", "/System"}
	if home, err := os.UserHomeDir(); err == nil {
		exact = append(exact, home)
	}
	if systemRoot := os.Getenv("SystemRoot"); systemRoot != "" {
		subtree = append(subtree, systemRoot)
	}
	exact = append(exact, actions.protected...)
	for _, root := range exact {
		if path == filepath.Clean(root) {
			return true
		}
	}
	for _, root := range subtree {
		if isWithin(filepath.Clean(root), path) {
			return true
		}
	}
	return false
}
