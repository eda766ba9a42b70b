package ui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toomuchleft/internal/config"
	"toomuchleft/internal/domain"
	"toomuchleft/internal/services"
	"toomuchleft/internal/state"
)

func sampleRecords() []domain.SearchResultRecord {
	var records []domain.SearchResultRecord
	for _, rel := range []string{"a.log", "b.log", "cache", "notes.txt"} {
		records = append(records, domain.NewRecord("/data", domain.Classification{
			Kind:         domain.Matched,
			RelativePath: rel,
			AbsolutePath: "/data/" + rel,
			IsDir:        rel == "cache",
			SizeBytes:    int64(len(rel)) * 100,
		}))
	}
	return records
}

func newTestModel(mock *services.MockOperations) Model {
	appState := state.NewState(config.DefaultConfig())
	return NewModel(appState, mock, services.ScanRequest{RootPath: "/data", Include: []string{"*.log"}})
}

func update(t *testing.T, model Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := model.Update(msg)
	updated, ok := next.(Model)
	require.True(t, ok)
	return updated, cmd
}

func press(t *testing.T, model Model, keys string) (Model, tea.Cmd) {
	t.Helper()
	return update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func drainScan(t *testing.T, model Model) Model {
	t.Helper()
	for model.scan != nil {
		model, _ = update(t, model, streamScan(model.scan)())
	}
	return model
}

func drainDelete(t *testing.T, model Model) Model {
	t.Helper()
	for model.deletion != nil {
		model, _ = update(t, model, streamDelete(model.deletion)())
	}
	return model
}

func scanned(t *testing.T, mock *services.MockOperations) Model {
	t.Helper()
	model, _ := update(t, newTestModel(mock), startScanMsg{})
	require.True(t, model.scanning)
	return drainScan(t, model)
}

func TestInitStartsScan(t *testing.T) {
	model := newTestModel(services.NewMockOperations(nil))
	assert.IsType(t, startScanMsg{}, model.Init()())
}

func TestScanStreamsResults(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	assert.False(t, model.scanning)
	assert.Len(t, model.state.Records, 4)
	assert.Contains(t, model.status, "Scan complete - 4 results")

	count, _ := model.state.SelectionSummary()
	assert.Equal(t, 4, count)
	assert.Contains(t, model.View(), "notes.txt")
}

func TestStaleScanMessagesAreIgnored(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	model, _ = update(t, model, scanBatchMsg{id: "previous", records: []domain.SearchResultRecord{{AbsolutePath: "/old"}}})
	model, _ = update(t, model, scanFinishedMsg{id: "previous", result: services.ScanResult{Status: services.StatusFailed, Err: errors.New("boom")}})
	assert.Len(t, model.state.Records, 4)
	assert.Contains(t, model.status, "Scan complete")
}

func TestEscCancelsScan(t *testing.T) {
	mock := services.NewMockOperations(make([]domain.SearchResultRecord, 50))
	for i := range mock.Records {
		mock.Records[i] = domain.SearchResultRecord{RelativePath: string(rune('a' + i%26)), AbsolutePath: "/data/" + string(rune('a'+i%26)) + string(rune('a'+i/26))}
	}
	mock.Delay = 5 * time.Millisecond

	model, _ := update(t, newTestModel(mock), startScanMsg{})
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "Cancelling scan...", model.status)
	model = drainScan(t, model)
	assert.Contains(t, model.status, "Scan cancelled")
	assert.Less(t, len(model.state.Records), 50)
}

func TestScanConfigErrorIsReported(t *testing.T) {
	mock := services.NewMockOperations(nil)
	mock.StartErr = &domain.ConfigError{Field: "root", Value: "/missing", Err: errors.New("not found")}
	model, cmd := update(t, newTestModel(mock), startScanMsg{})
	assert.Nil(t, cmd)
	assert.False(t, model.scanning)
	assert.Contains(t, model.status, "Scan error")
}

func TestDeleteFlow(t *testing.T) {
	mock := services.NewMockOperations(sampleRecords())
	model := scanned(t, mock)

	model, cmd := press(t, model, "d")
	require.NotNil(t, cmd)
	model, _ = update(t, model, cmd())
	require.True(t, model.confirming)
	assert.Len(t, model.pendingItems, 4)
	assert.Contains(t, model.View(), "Delete Preview")

	model, cmd = press(t, model, "y")
	require.NotNil(t, cmd)
	require.True(t, model.deleting)
	model = drainDelete(t, model)

	assert.False(t, model.deleting)
	assert.Empty(t, model.state.Records)
	assert.Equal(t, 4, model.deleteDone)
	assert.Contains(t, model.status, "Delete complete - 4 deleted, 0 failed")
}

func TestDeleteFailureKeepsRecord(t *testing.T) {
	mock := services.NewMockOperations(sampleRecords())
	mock.FailPaths["/data/b.log"] = errors.New("busy")
	model := scanned(t, mock)

	model, cmd := press(t, model, "d")
	model, _ = update(t, model, cmd())
	model, _ = press(t, model, "y")
	model = drainDelete(t, model)

	require.Len(t, model.state.Records, 1)
	assert.Equal(t, "/data/b.log", model.state.Records[0].AbsolutePath)
	assert.Equal(t, 1, model.deleteFailed)
	assert.Contains(t, model.status, "Delete warning")
	assert.Contains(t, model.status, "cannot delete /data/b.log")
}

func TestDeleteDeclined(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	model, cmd := press(t, model, "d")
	model, _ = update(t, model, cmd())
	model, _ = press(t, model, "n")
	assert.False(t, model.confirming)
	assert.Equal(t, "Delete cancelled", model.status)
	assert.Len(t, model.state.Records, 4)
}

func TestDeleteNothingSelected(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	model, _ = press(t, model, "a")
	count, _ := model.state.SelectionSummary()
	require.Zero(t, count)

	model, cmd := press(t, model, "d")
	assert.Nil(t, cmd)
	assert.Equal(t, "Nothing selected", model.status)
}

func TestDeletePreviewErrorIsReported(t *testing.T) {
	mock := services.NewMockOperations(sampleRecords())
	mock.PreviewErr = &domain.ConfigError{Field: "delete", Value: "/", Err: errors.New("blocked critical path in safe mode")}
	model := scanned(t, mock)
	model, cmd := press(t, model, "d")
	model, _ = update(t, model, cmd())
	assert.False(t, model.confirming)
	assert.Contains(t, model.status, "blocked critical path")
}

func TestSearchInput(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	model, _ = press(t, model, "/")
	model, _ = press(t, model, "log")
	model, _ = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "log", model.state.SearchQuery)
	assert.Len(t, model.state.VisibleRecords(), 2)
	assert.Equal(t, "2 matching", model.status)

	model, _ = press(t, model, "x")
	assert.Len(t, model.state.VisibleRecords(), 4)
}

func TestQuitCancelsRunningScan(t *testing.T) {
	mock := services.NewMockOperations(make([]domain.SearchResultRecord, 10))
	mock.Delay = time.Second
	model, _ := update(t, newTestModel(mock), startScanMsg{})
	handle := model.scan

	_, cmd := press(t, model, "q")
	require.NotNil(t, cmd)
	assert.True(t, handle.Token.Cancelled())
	assert.Equal(t, services.StatusCancelled, handle.Wait().Status)
}

func TestConfigSnapshotCarriesSortMode(t *testing.T) {
	model := scanned(t, services.NewMockOperations(sampleRecords()))
	model, _ = press(t, model, "o")
	assert.Equal(t, "Sorted by size", model.status)

	base := config.DefaultConfig()
	snapshot := model.ConfigSnapshot(base)
	assert.Equal(t, domain.SortBySize, snapshot.SortMode)
	assert.Equal(t, base.Theme, snapshot.Theme)
}
