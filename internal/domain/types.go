package domain

import (
	"fmt"
	"strings"
)

type MatchKind int

const (
	NotMatched MatchKind = iota
	Matched
	Excluded
	PermissionDenied
)

func (kind MatchKind) String() string {
	switch kind {
	case Matched:
		return "matched"
	case Excluded:
		return "excluded"
	case PermissionDenied:
		return "permission-denied"
	default:
		return "not-matched"
	}
}

type CompareOp string

const (
	LessThan       CompareOp = "lt"
	GreaterOrEqual CompareOp = "ge"
)

func ParseCompareOp(value string) (CompareOp, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "ge", ">=", "gte":
		return GreaterOrEqual, nil
	case "lt", "<":
		return LessThan, nil
	default:
		return "", &ConfigError{Field: "compare", Value: value, Err: fmt.Errorf("expected lt or ge")}
	}
}

func (op CompareOp) Symbol() string {
	if op == LessThan {
		return "<"
	}
	return ">="
}

// SizeFilter is the post-classification predicate for MATCHED entries.
// An Unlimited filter passes everything.
type SizeFilter struct {
	Op        CompareOp
	Threshold int64
	Unlimited bool
}

func (filter SizeFilter) Passes(sizeBytes int64) bool {
	if filter.Unlimited {
		return true
	}
	if filter.Op == LessThan {
		return sizeBytes < filter.Threshold
	}
	return sizeBytes >= filter.Threshold
}

// Predicate returns nil for an unlimited filter so callers can skip the
// comparison for the whole scan.
func (filter SizeFilter) Predicate() func(int64) bool {
	if filter.Unlimited {
		return nil
	}
	return filter.Passes
}

type SortMode string

const (
	SortByExt  SortMode = "ext"
	SortBySize SortMode = "size"
	SortByPath SortMode = "path"
)

func ParseSortMode(value string, fallback SortMode) SortMode {
	switch SortMode(strings.ToLower(value)) {
	case SortByExt, SortBySize, SortByPath:
		return SortMode(strings.ToLower(value))
	default:
		return fallback
	}
}
