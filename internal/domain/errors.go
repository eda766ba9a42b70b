package domain

import (
	"context"
	"errors"
	"fmt"
)

var ErrCancelled = errors.New("operation cancelled")

// ScanError aborts the scan it occurred in.
type ScanError struct {
	Path string
	Err  error
}

func (err *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", err.Path, err.Err)
}

func (err *ScanError) Unwrap() error {
	return err.Err
}

// DeleteError reports one failed item. Path is the entry that could not be
// removed, which may sit below Item when Item is a directory.
type DeleteError struct {
	Item string
	Path string
	Err  error
}

func (err *DeleteError) Error() string {
	if err.Item != "" && err.Item != err.Path {
		return fmt.Sprintf("delete %s (in %s): %v", err.Path, err.Item, err.Err)
	}
	return fmt.Sprintf("delete %s: %v", err.Path, err.Err)
}

func (err *DeleteError) Unwrap() error {
	return err.Err
}

type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", err.Field, err.Value, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindScan
	KindDelete
	KindConfig
	KindCancelled
	KindOther
)

func (kind ErrorKind) String() string {
	switch kind {
	case KindNone:
		return "none"
	case KindScan:
		return "scan"
	case KindDelete:
		return "delete"
	case KindConfig:
		return "config"
	case KindCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var configErr *ConfigError
	var scanErr *ScanError
	var deleteErr *DeleteError
	switch {
	case errors.As(err, &configErr):
		return KindConfig
	case errors.As(err, &scanErr):
		return KindScan
	case errors.As(err, &deleteErr):
		return KindDelete
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	default:
		return KindOther
	}
}

// Describe renders err for a person deciding what to do next.
func Describe(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindScan:
		var scanErr *ScanError
		errors.As(err, &scanErr)
		return fmt.Sprintf("path %s caused error: %v; consider adding it to the exclude list", scanErr.Path, scanErr.Err)
	case KindDelete:
		var deleteErr *DeleteError
		errors.As(err, &deleteErr)
		return fmt.Sprintf("cannot delete %s: %v", deleteErr.Path, deleteErr.Err)
	case KindCancelled:
		return "operation cancelled"
	default:
		return err.Error()
	}
}

// DeleteErrors flattens a joined error into its DeleteError parts.
func DeleteErrors(err error) []*DeleteError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var result []*DeleteError
		for _, part := range joined.Unwrap() {
			result = append(result, DeleteErrors(part)...)
		}
		return result
	}
	var deleteErr *DeleteError
	if errors.As(err, &deleteErr) {
		return []*DeleteError{deleteErr}
	}
	return nil
}
