package services

import "toomuchleft/internal/domain"

type ScanRequest struct {
	RootPath  string
	Include   []string
	Exclude   []string
	Compare   domain.CompareOp
	Threshold string
}

type DeleteOptions struct {
	WantProgress     bool
	StopOnFirstError bool
}

type Settings struct {
	Workers   int
	SafeMode  bool
	Protected []string
}
