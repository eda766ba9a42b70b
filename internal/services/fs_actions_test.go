package services

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"toomuchleft/internal/domain"
)

func runDelete(t *testing.T, actions *FSActions, token *CancelToken, items []domain.DeleteItem, opts DeleteOptions) ([]domain.DeletionOutcome, []string, DeleteResult) {
	t.Helper()
	outcomes := NewSink[domain.DeletionOutcome]()
	progress := NewSink[string]()
	result, _ := actions.Delete(context.Background(), token, items, opts, outcomes, progress)
	outcomes.Close()
	progress.Close()
	return outcomes.Drain(), progress.Drain(), result
}

func TestDeleteReadOnlyFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "locked.txt")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o444))

	outcomes, progress, result := runDelete(t, NewFSActions(nil, Settings{Workers: 2}), NewCancelToken(),
		[]domain.DeleteItem{{Path: target}}, DeleteOptions{})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, []string{target}, progress)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.NoError(t, result.Err)
	assert.NoFileExists(t, target)
}

func TestDeleteDirectoryTreeWithReadOnlyFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"dir/a": 1, "dir/nested/b": 2, "dir/empty/": 0})
	readOnly := filepath.Join(root, "dir", "nested", "b")
	require.NoError(t, os.Chmod(readOnly, 0o444))

	outcomes, _, result := runDelete(t, NewFSActions(nil, Settings{Workers: 2}), NewCancelToken(),
		[]domain.DeleteItem{{Path: filepath.Join(root, "dir"), IsDir: true}}, DeleteOptions{})

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, 1, result.SuccessCount)
	assert.NoDirExists(t, filepath.Join(root, "dir"))
}

func TestDeleteDoesNotFollowLinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, outside, map[string]int{"keep.me": 3})
	writeTree(t, root, map[string]int{"dir/file": 1})
	if err := os.Symlink(outside, filepath.Join(root, "dir", "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, _, result := runDelete(t, NewFSActions(nil, Settings{}), NewCancelToken(),
		[]domain.DeleteItem{{Path: filepath.Join(root, "dir"), IsDir: true}}, DeleteOptions{})

	assert.Equal(t, 1, result.SuccessCount)
	assert.FileExists(t, filepath.Join(outside, "keep.me"))
}

func TestDeleteFailureIsReportedPerItem(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a": 1, "b": 1})
	missing := filepath.Join(root, "missing")

	items := []domain.DeleteItem{
		{Path: filepath.Join(root, "a")},
		{Path: missing},
		{Path: filepath.Join(root, "b")},
	}
	outcomes, progress, result := runDelete(t, NewFSActions(zap.New(core), Settings{Workers: 2}), NewCancelToken(), items, DeleteOptions{})

	require.Len(t, outcomes, 3)
	assert.Len(t, progress, 2)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, StatusCompleted, result.Status)

	failures := domain.DeleteErrors(result.Err)
	require.Len(t, failures, 1)
	assert.Equal(t, missing, failures[0].Path)
	assert.Equal(t, missing, failures[0].Item)
	assert.ErrorIs(t, failures[0], fs.ErrNotExist)
	assert.Equal(t, domain.KindDelete, domain.KindOf(result.Err))

	for _, outcome := range outcomes {
		if outcome.Path == missing {
			assert.False(t, outcome.Success)
			assert.Error(t, outcome.Err)
		} else {
			assert.True(t, outcome.Success)
			assert.NoFileExists(t, outcome.Path)
		}
	}
	assert.Equal(t, 1, logs.FilterMessage("delete failed").Len())
}

func TestDeleteOneOutcomePerItem(t *testing.T) {
	root := t.TempDir()
	var items []domain.DeleteItem
	files := map[string]int{}
	for i := 0; i < 40; i++ {
		name := filepath.Join("f", string(rune('a'+i%26))+string(rune('a'+i/26)))
		files[filepath.ToSlash(name)] = i
		items = append(items, domain.DeleteItem{Path: filepath.Join(root, name)})
	}
	writeTree(t, root, files)

	outcomes, _, result := runDelete(t, NewFSActions(nil, Settings{Workers: 4}), NewCancelToken(), items, DeleteOptions{})
	require.Len(t, outcomes, len(items))
	seen := map[string]int{}
	for _, outcome := range outcomes {
		seen[outcome.Path]++
		assert.True(t, outcome.Success)
		assert.NoFileExists(t, outcome.Path)
	}
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
	assert.Zero(t, result.Skipped)
}

func TestDeleteCancelledBeforeStartSkipsEverything(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a": 1, "b": 1})
	token := NewCancelToken()
	token.Cancel()

	outcomes, progress, result := runDelete(t, NewFSActions(nil, Settings{}), token, []domain.DeleteItem{
		{Path: filepath.Join(root, "a")},
		{Path: filepath.Join(root, "b")},
	}, DeleteOptions{})

	assert.Empty(t, outcomes)
	assert.Empty(t, progress)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 2, result.Skipped)
	assert.FileExists(t, filepath.Join(root, "a"))
}

func TestDeleteStopOnFirstError(t *testing.T) {
	root := t.TempDir()
	items := []domain.DeleteItem{{Path: filepath.Join(root, "missing")}}
	files := map[string]int{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files[name] = 1
		items = append(items, domain.DeleteItem{Path: filepath.Join(root, name)})
	}
	writeTree(t, root, files)

	token := NewCancelToken()
	outcomes, _, result := runDelete(t, NewFSActions(nil, Settings{Workers: 1}), token, items, DeleteOptions{StopOnFirstError: true})

	assert.True(t, token.Cancelled())
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 1, result.FailureCount)
	assert.LessOrEqual(t, len(outcomes), len(items))
	assert.Equal(t, result.Requested, result.SuccessCount+result.FailureCount+result.Skipped)
}

func TestPreview(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"dir/a": 10, "dir/sub/b": 20, "single": 5})
	actions := NewFSActions(nil, Settings{})

	preview, err := actions.Preview(context.Background(), []domain.DeleteItem{
		{Path: filepath.Join(root, "dir"), IsDir: true},
		{Path: filepath.Join(root, "single")},
		{Path: filepath.Join(root, "single")},
		{Path: filepath.Join(root, "gone")},
	})
	require.NoError(t, err)
	assert.Len(t, preview.Items, 3)
	assert.Equal(t, 3, preview.TotalFiles)
	assert.Equal(t, 2, preview.TotalDirs)
	assert.Equal(t, int64(35), preview.TotalBytes)
	assert.Len(t, preview.Warnings, 1)
}

func TestSafeModeBlocksCriticalPaths(t *testing.T) {
	scanRoot := t.TempDir()
	actions := NewFSActions(nil, Settings{SafeMode: true, Protected: []string{scanRoot}})

	assert.True(t, actions.isCriticalPath(string(filepath.Separator)))
	assert.True(t, actions.isCriticalPath(scanRoot))
	assert.False(t, actions.isCriticalPath(filepath.Join(scanRoot, "child")))
	if home, err := os.UserHomeDir(); err == nil {
		assert.True(t, actions.isCriticalPath(home))
		assert.False(t, actions.isCriticalPath(filepath.Join(home, "Downloads", "old.iso")))
	}

	_, err := actions.prepare([]domain.DeleteItem{{Path: scanRoot, IsDir: true}})
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))

	prepared, err := actions.prepare([]domain.DeleteItem{
		{Path: filepath.Join(scanRoot, "x")},
		{Path: filepath.Join(scanRoot, ".", "x")},
		{Path: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.DeleteItem{{Path: filepath.Join(scanRoot, "x")}}, prepared)
}
