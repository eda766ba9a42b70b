package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/pathspec"
)

func TestClassifierKindPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		isDir   bool
		reparse bool
		want    domain.MatchKind
	}{
		{"reparse beats everything", []string{"**"}, nil, "link", false, true, domain.PermissionDenied},
		{"reparse beats exclude", nil, []string{"link"}, "link", false, true, domain.PermissionDenied},
		{"exclude beats include", []string{"*.tmp"}, []string{"*.tmp"}, "x.tmp", false, false, domain.Excluded},
		{"exclude without include", nil, []string{"*.tmp"}, "x.tmp", false, false, domain.Excluded},
		{"no include matches all", nil, nil, "any/file.bin", false, false, domain.Matched},
		{"no include but exclude misses", nil, []string{"*.tmp"}, "y.log", false, false, domain.Matched},
		{"include hit", []string{"*.log"}, nil, "y.log", false, false, domain.Matched},
		{"include miss", []string{"*.log"}, nil, "y.txt", false, false, domain.NotMatched},
		{"include miss dir", []string{"*.log"}, nil, "sub", true, false, domain.NotMatched},
		{"dir only include", []string{"node_modules/"}, nil, "node_modules", true, false, domain.Matched},
		{"empty include lines are absent", []string{"", "# note"}, nil, "x", false, false, domain.Matched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewPathClassifier(pathspec.Compile(tt.include), pathspec.Compile(tt.exclude))
			assert.Equal(t, tt.want, classifier.Kind(tt.path, tt.isDir, tt.reparse))
		})
	}
}

func TestClassifyComputesSizes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a.txt":         5,
		"sub/b.txt":     2000,
		"sub/deep/c.md": 30,
		"empty/":        0,
	})
	classifier := NewPathClassifier(nil, nil)
	ctx := context.Background()

	file, err := classifier.Classify(ctx, filepath.Join(root, "a.txt"), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.Matched, file.Kind)
	assert.False(t, file.IsDir)
	assert.Equal(t, int64(5), file.SizeBytes)

	dir, err := classifier.Classify(ctx, filepath.Join(root, "sub"), "sub")
	require.NoError(t, err)
	assert.True(t, dir.IsDir)
	assert.Equal(t, int64(2030), dir.SizeBytes)

	empty, err := classifier.Classify(ctx, filepath.Join(root, "empty"), "empty")
	require.NoError(t, err)
	assert.Zero(t, empty.SizeBytes)
}

func TestClassifySkipsSizeWhenNotMatched(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"x.tmp": 10, "y.log": 20})
	classifier := NewPathClassifier(nil, pathspec.Compile([]string{"*.tmp"}))

	excluded, err := classifier.Classify(context.Background(), filepath.Join(root, "x.tmp"), "x.tmp")
	require.NoError(t, err)
	assert.Equal(t, domain.Excluded, excluded.Kind)
	assert.Zero(t, excluded.SizeBytes)
}

func TestClassifySymlinkIsPermissionDenied(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"target/big.bin": 4096})
	link := filepath.Join(root, "link")
	if err := os.Symlink(filepath.Join(root, "target"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result, err := NewPathClassifier(nil, nil).Classify(context.Background(), link, "link")
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionDenied, result.Kind)
	assert.Zero(t, result.SizeBytes)
}

func TestDirSizeIgnoresLinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"dir/file": 100, "outside/huge": 1 << 16})
	if err := os.Symlink(filepath.Join(root, "outside"), filepath.Join(root, "dir", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	size, err := dirSize(context.Background(), filepath.Join(root, "dir"))
	require.NoError(t, err)
	assert.Equal(t, int64(100), size)
}

func TestClassifyMissingPathIsScanError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	_, err := NewPathClassifier(nil, nil).Classify(context.Background(), missing, "gone")
	require.Error(t, err)

	var scanErr *domain.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, missing, scanErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirSizeStopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a": 1, "b": 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dirSize(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}
