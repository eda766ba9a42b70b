package services

import (
	"context"

	"toomuchleft/internal/domain"
)

type Operations interface {
	StartScan(req ScanRequest) (*ScanHandle, error)
	StartDelete(items []domain.DeleteItem, opts DeleteOptions) (*DeleteHandle, error)
	Preview(ctx context.Context, items []domain.DeleteItem) (DeletePreview, error)
}

var (
	_ Operations = (*Engine)(nil)
	_ Operations = (*MockOperations)(nil)
)
