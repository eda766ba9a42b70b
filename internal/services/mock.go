package services

import (
	"context"
	"errors"
	"time"

	"toomuchleft/internal/domain"
)

// MockOperations replays canned results, for exercising front-ends without
// touching the filesystem.
type MockOperations struct {
	Records    []domain.SearchResultRecord
	ScanErr    error
	FailPaths  map[string]error
	Delay      time.Duration
	StartErr   error
	PreviewErr error
}

func NewMockOperations(records []domain.SearchResultRecord) *MockOperations {
	return &MockOperations{Records: records, FailPaths: map[string]error{}}
}

func (mock *MockOperations) StartScan(req ScanRequest) (*ScanHandle, error) {
	if mock.StartErr != nil {
		return nil, mock.StartErr
	}
	handle := newScanHandle(NewCancelToken(), req.RootPath)
	go func() {
		start := time.Now()
		result := ScanResult{ID: handle.ID, RootPath: req.RootPath, Status: StatusCompleted}
		for _, record := range mock.Records {
			if mock.wait(handle.Token) {
				result.Status = StatusCancelled
				break
			}
			handle.Results.Push(record)
			result.Stats.Emitted++
		}
		if mock.ScanErr != nil && result.Status == StatusCompleted {
			result.Status = StatusFailed
			result.Err = mock.ScanErr
		}
		result.Duration = time.Since(start)
		handle.finish(result)
	}()
	return handle, nil
}

func (mock *MockOperations) StartDelete(items []domain.DeleteItem, opts DeleteOptions) (*DeleteHandle, error) {
	if mock.StartErr != nil {
		return nil, mock.StartErr
	}
	handle := newDeleteHandle(NewCancelToken(), items, opts.WantProgress)
	go func() {
		start := time.Now()
		result := DeleteResult{ID: handle.ID, Status: StatusCompleted, Requested: len(items)}
		var errs []error
		for _, item := range items {
			if mock.wait(handle.Token) {
				result.Status = StatusCancelled
				break
			}
			if err, ok := mock.FailPaths[item.Path]; ok {
				deleteErr := &domain.DeleteError{Item: item.Path, Path: item.Path, Err: err}
				errs = append(errs, deleteErr)
				result.FailureCount++
				handle.Outcomes.Push(domain.DeletionOutcome{Path: item.Path, Err: deleteErr})
				continue
			}
			result.SuccessCount++
			if handle.Progress != nil {
				handle.Progress.Push(item.Path)
			}
			handle.Outcomes.Push(domain.DeletionOutcome{Path: item.Path, Success: true})
		}
		result.Skipped = result.Requested - result.SuccessCount - result.FailureCount
		result.Err = errors.Join(errs...)
		result.Duration = time.Since(start)
		handle.finish(result)
	}()
	return handle, nil
}

func (mock *MockOperations) Preview(ctx context.Context, items []domain.DeleteItem) (DeletePreview, error) {
	if mock.PreviewErr != nil {
		return DeletePreview{}, mock.PreviewErr
	}
	preview := DeletePreview{Samples: []string{}}
	for _, item := range items {
		preview.Items = append(preview.Items, item.Path)
		if item.IsDir {
			preview.TotalDirs++
		}
		for _, record := range mock.Records {
			if record.AbsolutePath == item.Path && !record.IsDir {
				preview.addFile(item.Path, record.SizeBytes)
			}
		}
	}
	return preview, nil
}

func (mock *MockOperations) wait(token *CancelToken) bool {
	if mock.Delay <= 0 {
		return token.Cancelled()
	}
	select {
	case <-token.Done():
		return true
	case <-time.After(mock.Delay):
		return token.Cancelled()
	}
}
