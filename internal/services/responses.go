package services

import "time"

type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

type ScanStats struct {
	Directories int64
	Classified  int64
	Emitted     int64
	Filtered    int64
	Excluded    int64
	Denied      int64
}

type ScanResult struct {
	ID       string
	RootPath string
	Status   Status
	Err      error
	Duration time.Duration
	Stats    ScanStats
}

type DeleteResult struct {
	ID           string
	Status       Status
	Err          error
	Duration     time.Duration
	Requested    int
	SuccessCount int
	FailureCount int
	Skipped      int
}

type DeletePreview struct {
	Items      []string
	TotalFiles int
	TotalDirs  int
	TotalBytes int64
	Samples    []string
	Warnings   []string
}
