package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"toomuchleft/internal/domain"
)

// writeTree creates files of the given sizes below root. Keys ending in "/"
// create empty directories.
func writeTree(t *testing.T, root string, files map[string]int) {
	t.Helper()
	for rel, size := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, make([]byte, size), 0o644))
	}
}

type resultKey struct {
	Rel   string
	IsDir bool
	Size  int64
}

func keys(records []domain.SearchResultRecord) []resultKey {
	result := make([]resultKey, 0, len(records))
	for _, record := range records {
		result = append(result, resultKey{Rel: record.RelativePath, IsDir: record.IsDir, Size: record.SizeBytes})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Rel < result[j].Rel })
	return result
}

// runScan drives FSScanner directly and returns everything it emitted.
func runScan(t *testing.T, scanner *FSScanner, token *CancelToken, req ScanRequest) ([]domain.SearchResultRecord, ScanStats, error) {
	t.Helper()
	plan, err := compileScan(req)
	require.NoError(t, err)
	sink := NewSink[domain.SearchResultRecord]()
	stats, err := scanner.Scan(context.Background(), token, plan, sink)
	sink.Close()
	return sink.Drain(), stats, err
}

type listRecorder struct {
	mu     sync.Mutex
	listed []string
}

func (recorder *listRecorder) wrap(next func(string) ([]os.DirEntry, error)) func(string) ([]os.DirEntry, error) {
	return func(name string) ([]os.DirEntry, error) {
		recorder.mu.Lock()
		recorder.listed = append(recorder.listed, name)
		recorder.mu.Unlock()
		return next(name)
	}
}

func (recorder *listRecorder) paths() []string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	result := append([]string(nil), recorder.listed...)
	sort.Strings(result)
	return result
}
