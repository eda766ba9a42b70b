package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

type Classification struct {
	Kind         MatchKind
	RelativePath string
	AbsolutePath string
	IsDir        bool
	SizeBytes    int64
}

type SearchResultRecord struct {
	Root         string
	RelativePath string
	AbsolutePath string
	IsDir        bool
	Extension    string
	SizeBytes    int64
}

func NewRecord(root string, classification Classification) SearchResultRecord {
	record := SearchResultRecord{
		Root:         root,
		RelativePath: classification.RelativePath,
		AbsolutePath: classification.AbsolutePath,
		IsDir:        classification.IsDir,
		SizeBytes:    classification.SizeBytes,
	}
	if !classification.IsDir {
		record.Extension = strings.ToLower(filepath.Ext(classification.AbsolutePath))
	}
	return record
}

func (record SearchResultRecord) DeleteItem() DeleteItem {
	return DeleteItem{Path: record.AbsolutePath, IsDir: record.IsDir}
}

type DeleteItem struct {
	Path  string
	IsDir bool
}

type DeletionOutcome struct {
	Path    string
	Success bool
	Err     error
}

// SortRecords orders records in place. Ties always fall back to the
// relative path so the order is stable across scans.
func SortRecords(records []SearchResultRecord, mode SortMode) {
	sort.SliceStable(records, func(i, j int) bool {
		left, right := records[i], records[j]
		switch mode {
		case SortBySize:
			if left.SizeBytes != right.SizeBytes {
				return left.SizeBytes > right.SizeBytes
			}
		case SortByPath:
		default:
			if left.Extension != right.Extension {
				return left.Extension < right.Extension
			}
		}
		return left.RelativePath < right.RelativePath
	})
}

func TotalSize(records []SearchResultRecord) int64 {
	var total int64
	for _, record := range records {
		total += record.SizeBytes
	}
	return total
}
