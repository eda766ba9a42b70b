package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordExtension(t *testing.T) {
	file := NewRecord("/r", Classification{RelativePath: "A.TMP", AbsolutePath: "/r/A.TMP", SizeBytes: 3})
	assert.Equal(t, ".tmp", file.Extension)
	assert.Equal(t, "/r", file.Root)

	dir := NewRecord("/r", Classification{RelativePath: "build.d", AbsolutePath: "/r/build.d", IsDir: true})
	assert.Empty(t, dir.Extension)
	assert.Equal(t, DeleteItem{Path: "/r/build.d", IsDir: true}, dir.DeleteItem())
}

func TestSortRecords(t *testing.T) {
	records := []SearchResultRecord{
		{RelativePath: "b.log", Extension: ".log", SizeBytes: 1},
		{RelativePath: "a.tmp", Extension: ".tmp", SizeBytes: 30},
		{RelativePath: "a.log", Extension: ".log", SizeBytes: 20},
		{RelativePath: "dir", SizeBytes: 5},
	}

	SortRecords(records, SortByExt)
	assert.Equal(t, []string{"dir", "a.log", "b.log", "a.tmp"}, relPaths(records))

	SortRecords(records, SortBySize)
	assert.Equal(t, []string{"a.tmp", "a.log", "dir", "b.log"}, relPaths(records))

	SortRecords(records, SortByPath)
	assert.Equal(t, []string{"a.log", "a.tmp", "b.log", "dir"}, relPaths(records))

	assert.Equal(t, int64(56), TotalSize(records))
}

func relPaths(records []SearchResultRecord) []string {
	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.RelativePath)
	}
	return paths
}
