package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"toomuchleft/internal/config"
	"toomuchleft/internal/domain"
	"toomuchleft/internal/services"
	"toomuchleft/internal/sizeunit"
	"toomuchleft/internal/state"
)

const streamBatch = 256

type Model struct {
	state            *state.State
	ops              services.Operations
	request          services.ScanRequest
	keys             KeyMap
	showHelp         bool
	help             help.Model
	status           string
	scanning         bool
	scan             *services.ScanHandle
	scanID           string
	confirming       bool
	pendingItems     []domain.DeleteItem
	pendingPreview   services.DeletePreview
	deleting         bool
	deletion         *services.DeleteHandle
	deleteID         string
	deleteDone       int
	deleteFailed     int
	filterInputMode  string
	filterInputValue string
	spinner          spinner.Model
	bar              progress.Model
	width            int
	height           int
	viewTop          int
}

// NewModel builds the ui over ops. The scan described by request starts as
// soon as the program runs; request.RootPath falls back to the state root.
func NewModel(appState *state.State, ops services.Operations, request services.ScanRequest) Model {
	if request.RootPath != "" {
		appState.Root = request.RootPath
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{
		state:   appState,
		ops:     ops,
		request: request,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		status:  "Ready - press s to scan",
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		width:   100,
		height:  30,
	}
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

type ConfigProvider interface {
	ConfigSnapshot(base config.Config) config.Config
}

// ConfigSnapshot carries preferences changed in the ui back into base.
func (model Model) ConfigSnapshot(base config.Config) config.Config {
	base.SortMode = model.state.Prefs.SortMode
	return base
}

func (model Model) Init() tea.Cmd {
	return func() tea.Msg { return startScanMsg{} }
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.help.Width = typed.Width
		model.bar.Width = max(typed.Width/4, 10)
		model.ensureCursorVisible()
		return model, nil
	case spinner.TickMsg:
		if !model.scanning && !model.deleting {
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	case startScanMsg:
		return model.beginScan()
	case scanBatchMsg:
		if typed.id != model.scanID || model.scan == nil {
			return model, nil
		}
		model.state.AddRecords(typed.records)
		model.ensureCursorVisible()
		model.status = fmt.Sprintf("Scanning... %s found", humanize.Comma(int64(len(model.state.Records))))
		return model, streamScan(model.scan)
	case scanFinishedMsg:
		if typed.id != model.scanID {
			return model, nil
		}
		model.scanning = false
		model.scan = nil
		model.status = scanSummary(typed.result, len(model.state.Records))
		model.ensureCursorVisible()
		return model, nil
	case deletePreviewMsg:
		if typed.err != nil {
			model.status = fmt.Sprintf("Delete error: %s", domain.Describe(typed.err))
			return model, nil
		}
		model.pendingItems = typed.items
		model.pendingPreview = typed.preview
		model.confirming = true
		model.status = previewPrompt(typed.preview)
		return model, nil
	case deleteOutcomeMsg:
		if typed.id != model.deleteID || model.deletion == nil {
			return model, nil
		}
		var removed []string
		for _, outcome := range typed.outcomes {
			model.deleteDone++
			if outcome.Success {
				removed = append(removed, outcome.Path)
				continue
			}
			model.deleteFailed++
			model.status = fmt.Sprintf("Delete warning: %s", domain.Describe(outcome.Err))
		}
		model.state.RemoveDeleted(removed)
		model.ensureCursorVisible()
		return model, streamDelete(model.deletion)
	case deleteFinishedMsg:
		if typed.id != model.deleteID {
			return model, nil
		}
		model.deleting = false
		model.deletion = nil
		model.status = deleteSummary(typed.result)
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case model.filterInputMode != "":
		return model.handleFilterInput(msg)
	case key.Matches(msg, model.keys.Quit):
		model = model.cancelAll()
		return model, tea.Quit
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case model.confirming && key.Matches(msg, model.keys.Confirm):
		return model.confirmDelete()
	case model.confirming && key.Matches(msg, model.keys.Cancel):
		model.confirming = false
		model.pendingItems = nil
		model.status = "Delete cancelled"
		return model, nil
	case model.confirming:
		return model, nil
	case key.Matches(msg, model.keys.Cancel):
		switch {
		case model.deleting:
			if model.deletion.Token.Cancel() {
				model.status = "Cancelling delete - items in progress will finish"
			}
		case model.scanning:
			if model.scan.Token.Cancel() {
				model.status = "Cancelling scan..."
			}
		default:
			model.showHelp = false
		}
		return model, nil
	case key.Matches(msg, model.keys.Up):
		model.state.MoveCursor(-1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Down):
		model.state.MoveCursor(1)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Top):
		model.state.CursorToEdge(false)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Bottom):
		model.state.CursorToEdge(true)
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.Select):
		if record := model.state.CurrentRecord(); record != nil {
			model.state.ToggleSelection(record.AbsolutePath)
		}
		return model, nil
	case key.Matches(msg, model.keys.SelectAll):
		count, _ := model.state.SelectionSummary()
		model.state.SelectAll(count < len(model.state.Records))
		return model, nil
	case key.Matches(msg, model.keys.Delete):
		return model.beginDelete()
	case key.Matches(msg, model.keys.Scan):
		if model.deleting {
			model.status = "Delete in progress"
			return model, nil
		}
		return model.beginScan()
	case key.Matches(msg, model.keys.Sort):
		mode := model.state.ToggleSortMode()
		model.ensureCursorVisible()
		model.status = fmt.Sprintf("Sorted by %s", mode)
		return model, nil
	case key.Matches(msg, model.keys.Search):
		model.filterInputMode = "search"
		model.filterInputValue = model.state.SearchQuery
		model.status = "Search: " + model.filterInputValue
		return model, nil
	case key.Matches(msg, model.keys.ExtFilter):
		if ext := model.state.FilterToCurrentExt(); ext != "" {
			model.status = fmt.Sprintf("Showing %s only", extLabel(ext))
		} else {
			model.status = "Extension filter cleared"
		}
		model.ensureCursorVisible()
		return model, nil
	case key.Matches(msg, model.keys.ClearFilter):
		model.state.ClearFilters()
		model.ensureCursorVisible()
		model.status = "Filters cleared"
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		model.filterInputMode = ""
		model.filterInputValue = ""
		model.status = "Search cancelled"
		return model, nil
	case tea.KeyEnter:
		model.filterInputMode = ""
		model.state.SetSearch(strings.TrimSpace(model.filterInputValue))
		model.ensureCursorVisible()
		model.status = fmt.Sprintf("%d matching", len(model.state.VisibleRecords()))
		return model, nil
	case tea.KeyBackspace, tea.KeyDelete:
		if len(model.filterInputValue) > 0 {
			runes := []rune(model.filterInputValue)
			model.filterInputValue = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		model.filterInputValue += " "
	case tea.KeyRunes:
		model.filterInputValue += string(msg.Runes)
	}
	model.status = "Search: " + model.filterInputValue
	return model, nil
}

func (model Model) beginScan() (Model, tea.Cmd) {
	model = model.cancelScan("")
	model.state.Reset(model.state.Root)
	model.viewTop = 0
	request := model.request
	request.RootPath = model.state.Root
	handle, err := model.ops.StartScan(request)
	if err != nil {
		model.status = fmt.Sprintf("Scan error: %s", domain.Describe(err))
		return model, nil
	}
	model.scan = handle
	model.scanID = handle.ID
	model.scanning = true
	model.status = fmt.Sprintf("Scanning %s...", handle.Root)
	return model, tea.Batch(model.spinner.Tick, streamScan(handle))
}

func (model Model) cancelScan(message string) Model {
	if model.scan != nil {
		model.scan.Cancel()
		model.scan = nil
	}
	model.scanID = ""
	model.scanning = false
	if message != "" {
		model.status = message
	}
	return model
}

func (model Model) cancelAll() Model {
	model = model.cancelScan("")
	if model.deletion != nil {
		model.deletion.Cancel()
	}
	return model
}

func (model Model) beginDelete() (Model, tea.Cmd) {
	if model.deleting {
		model.status = "Delete in progress"
		return model, nil
	}
	items := model.state.SelectedItems()
	if len(items) == 0 {
		model.status = "Nothing selected"
		return model, nil
	}
	if model.scanning {
		model = model.cancelScan("")
	}
	ops := model.ops
	model.status = fmt.Sprintf("Preparing delete of %d items...", len(items))
	return model, func() tea.Msg {
		preview, err := ops.Preview(context.Background(), items)
		return deletePreviewMsg{items: items, preview: preview, err: err}
	}
}

func (model Model) confirmDelete() (Model, tea.Cmd) {
	items := model.pendingItems
	model.confirming = false
	model.pendingItems = nil
	handle, err := model.ops.StartDelete(items, services.DeleteOptions{})
	if err != nil {
		model.status = fmt.Sprintf("Delete error: %s", domain.Describe(err))
		return model, nil
	}
	model.deletion = handle
	model.deleteID = handle.ID
	model.deleting = true
	model.deleteDone = 0
	model.deleteFailed = 0
	model.status = fmt.Sprintf("Deleting %d items...", len(handle.Items))
	return model, tea.Batch(model.spinner.Tick, streamDelete(handle))
}

func streamScan(handle *services.ScanHandle) tea.Cmd {
	return func() tea.Msg {
		batch, ok := handle.Results.NextBatch(context.Background(), streamBatch)
		if !ok {
			return scanFinishedMsg{id: handle.ID, result: handle.Wait()}
		}
		return scanBatchMsg{id: handle.ID, records: batch}
	}
}

func streamDelete(handle *services.DeleteHandle) tea.Cmd {
	return func() tea.Msg {
		batch, ok := handle.Outcomes.NextBatch(context.Background(), streamBatch)
		if !ok {
			return deleteFinishedMsg{id: handle.ID, result: handle.Wait()}
		}
		return deleteOutcomeMsg{id: handle.ID, outcomes: batch}
	}
}

func scanSummary(result services.ScanResult, found int) string {
	switch result.Status {
	case services.StatusFailed:
		return fmt.Sprintf("Scan error: %s", domain.Describe(result.Err))
	case services.StatusCancelled:
		return fmt.Sprintf("Scan cancelled - %s partial results", humanize.Comma(int64(found)))
	default:
		return fmt.Sprintf("Scan complete - %s results in %s", humanize.Comma(int64(found)), result.Duration.Round(time.Millisecond))
	}
}

func deleteSummary(result services.DeleteResult) string {
	summary := fmt.Sprintf("%d deleted, %d failed", result.SuccessCount, result.FailureCount)
	if result.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", result.Skipped)
	}
	if result.Status == services.StatusCancelled {
		return "Delete cancelled - " + summary
	}
	if result.FailureCount > 0 {
		if failures := domain.DeleteErrors(result.Err); len(failures) > 0 {
			return fmt.Sprintf("Delete warning: %s (%s)", summary, domain.Describe(failures[0]))
		}
	}
	return "Delete complete - " + summary
}

func previewPrompt(preview services.DeletePreview) string {
	return fmt.Sprintf("Delete %d files, %d dirs, %s - confirm (y/n)", preview.TotalFiles, preview.TotalDirs, sizeunit.Format(preview.TotalBytes))
}

func extLabel(ext string) string {
	if ext == "." {
		return "files without extension"
	}
	return ext + " files"
}

func (model *Model) ensureCursorVisible() {
	visible := len(model.state.VisibleRecords())
	if visible == 0 {
		model.state.Cursor = 0
		model.viewTop = 0
		return
	}
	listHeight := model.listHeight()
	if listHeight <= 0 {
		return
	}
	if model.state.Cursor < model.viewTop {
		model.viewTop = model.state.Cursor
	}
	if model.state.Cursor >= model.viewTop+listHeight {
		model.viewTop = model.state.Cursor - listHeight + 1
	}
	maxTop := max(visible-listHeight, 0)
	if model.viewTop > maxTop {
		model.viewTop = maxTop
	}
}

func (model *Model) listHeight() int {
	return model.height - 7
}
