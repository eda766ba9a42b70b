package ui

import (
	"toomuchleft/internal/domain"
	"toomuchleft/internal/services"
)

type startScanMsg struct{}

// Stream messages carry the id of the operation that produced them so a
// rescan can drop whatever the previous one still delivers.
type scanBatchMsg struct {
	id      string
	records []domain.SearchResultRecord
}

type scanFinishedMsg struct {
	id     string
	result services.ScanResult
}

type deletePreviewMsg struct {
	items   []domain.DeleteItem
	preview services.DeletePreview
	err     error
}

type deleteOutcomeMsg struct {
	id       string
	outcomes []domain.DeletionOutcome
}

type deleteFinishedMsg struct {
	id     string
	result services.DeleteResult
}
