package state

import (
	"path"
	"sort"
	"strings"

	"toomuchleft/internal/config"
	"toomuchleft/internal/domain"
)

type Preferences struct {
	SafeMode bool
	SortMode domain.SortMode
	Theme    string
}

// State is the browsing model behind the ui: the records found so far, the
// cursor over the visible subset and the set of paths marked for deletion.
type State struct {
	Root        string
	Records     []domain.SearchResultRecord
	Cursor      int
	Selected    map[string]bool
	Prefs       Preferences
	SearchQuery string
	FilterExt   string
}

type ExtGroup struct {
	Extension string
	Count     int
	Bytes     int64
}

func NewState(cfg config.Config) *State {
	return &State{
		Root:     cfg.Path,
		Selected: make(map[string]bool),
		Prefs: Preferences{
			SafeMode: cfg.SafeMode,
			SortMode: domain.ParseSortMode(string(cfg.SortMode), domain.SortByExt),
			Theme:    cfg.Theme,
		},
	}
}

func (appState *State) Reset(root string) {
	appState.Root = root
	appState.Records = nil
	appState.Cursor = 0
	appState.Selected = make(map[string]bool)
}

// AddRecords merges newly streamed records. New records start selected;
// a path already present is ignored.
func (appState *State) AddRecords(records []domain.SearchResultRecord) int {
	if len(records) == 0 {
		return 0
	}
	current := appState.CurrentRecord()
	known := make(map[string]bool, len(appState.Records))
	for _, record := range appState.Records {
		known[record.AbsolutePath] = true
	}
	added := 0
	for _, record := range records {
		if known[record.AbsolutePath] {
			continue
		}
		known[record.AbsolutePath] = true
		appState.Records = append(appState.Records, record)
		appState.Selected[record.AbsolutePath] = true
		added++
	}
	domain.SortRecords(appState.Records, appState.Prefs.SortMode)
	appState.follow(current)
	return added
}

func (appState *State) VisibleRecords() []domain.SearchResultRecord {
	if appState.SearchQuery == "" && appState.FilterExt == "" {
		return appState.Records
	}
	query := strings.ToLower(appState.SearchQuery)
	filterExt := appState.FilterExt != ""
	ext := strings.ToLower(strings.TrimPrefix(appState.FilterExt, "."))
	visible := make([]domain.SearchResultRecord, 0, len(appState.Records))
	for _, record := range appState.Records {
		if query != "" && !strings.Contains(strings.ToLower(record.RelativePath), query) {
			continue
		}
		if filterExt && (record.IsDir || strings.TrimPrefix(record.Extension, ".") != ext) {
			continue
		}
		visible = append(visible, record)
	}
	return visible
}

func (appState *State) CurrentRecord() *domain.SearchResultRecord {
	visible := appState.VisibleRecords()
	if appState.Cursor < 0 || appState.Cursor >= len(visible) {
		return nil
	}
	record := visible[appState.Cursor]
	return &record
}

func (appState *State) MoveCursor(delta int) {
	appState.Cursor = clamp(appState.Cursor+delta, len(appState.VisibleRecords()))
}

func (appState *State) CursorToEdge(end bool) {
	if end {
		appState.Cursor = clamp(len(appState.VisibleRecords())-1, len(appState.VisibleRecords()))
		return
	}
	appState.Cursor = 0
}

func (appState *State) ToggleSelection(id string) {
	if id == "" {
		return
	}
	appState.Selected[id] = !appState.Selected[id]
	if !appState.Selected[id] {
		delete(appState.Selected, id)
	}
}

// SelectAll marks or clears every visible record.
func (appState *State) SelectAll(selected bool) {
	for _, record := range appState.VisibleRecords() {
		if selected {
			appState.Selected[record.AbsolutePath] = true
		} else {
			delete(appState.Selected, record.AbsolutePath)
		}
	}
}

func (appState *State) IsSelected(id string) bool {
	return appState.Selected[id]
}

func (appState *State) SelectionSummary() (int, int64) {
	var total int64
	count := 0
	for _, record := range appState.Records {
		if appState.Selected[record.AbsolutePath] {
			count++
			total += record.SizeBytes
		}
	}
	return count, total
}

// SelectedItems returns the marked records in display order. A record whose
// directory is also marked is left out, since deleting the directory covers it.
func (appState *State) SelectedItems() []domain.DeleteItem {
	var dirs []string
	for _, record := range appState.Records {
		if record.IsDir && appState.Selected[record.AbsolutePath] {
			dirs = append(dirs, record.RelativePath)
		}
	}
	items := make([]domain.DeleteItem, 0, len(appState.Selected))
	for _, record := range appState.Records {
		if !appState.Selected[record.AbsolutePath] || coveredBy(record.RelativePath, dirs) {
			continue
		}
		items = append(items, record.DeleteItem())
	}
	return items
}

// RemoveDeleted drops records whose paths were removed and keeps the
// cursor on the same record where possible.
func (appState *State) RemoveDeleted(paths []string) {
	if len(paths) == 0 {
		return
	}
	gone := make(map[string]bool, len(paths))
	for _, removed := range paths {
		gone[removed] = true
	}
	current := appState.CurrentRecord()
	kept := appState.Records[:0]
	for _, record := range appState.Records {
		if gone[record.AbsolutePath] {
			delete(appState.Selected, record.AbsolutePath)
			continue
		}
		kept = append(kept, record)
	}
	appState.Records = kept
	appState.follow(current)
}

func (appState *State) ToggleSortMode() domain.SortMode {
	switch appState.Prefs.SortMode {
	case domain.SortByExt:
		appState.Prefs.SortMode = domain.SortBySize
	case domain.SortBySize:
		appState.Prefs.SortMode = domain.SortByPath
	default:
		appState.Prefs.SortMode = domain.SortByExt
	}
	current := appState.CurrentRecord()
	domain.SortRecords(appState.Records, appState.Prefs.SortMode)
	appState.follow(current)
	return appState.Prefs.SortMode
}

func (appState *State) SetSearch(query string) {
	appState.SearchQuery = query
	appState.Cursor = clamp(appState.Cursor, len(appState.VisibleRecords()))
}

// FilterToCurrentExt narrows the list to the extension under the cursor, or
// clears the filter when one is already set.
func (appState *State) FilterToCurrentExt() string {
	if appState.FilterExt != "" {
		appState.FilterExt = ""
	} else if record := appState.CurrentRecord(); record != nil && !record.IsDir {
		appState.FilterExt = record.Extension
		if appState.FilterExt == "" {
			appState.FilterExt = "."
		}
	}
	appState.Cursor = clamp(appState.Cursor, len(appState.VisibleRecords()))
	return appState.FilterExt
}

func (appState *State) ClearFilters() {
	appState.SearchQuery = ""
	appState.FilterExt = ""
	appState.Cursor = clamp(appState.Cursor, len(appState.Records))
}

// Groups summarises the records per extension; directories are grouped
// under "/" and files without an extension under "".
func (appState *State) Groups() []ExtGroup {
	index := map[string]int{}
	var groups []ExtGroup
	for _, record := range appState.Records {
		key := record.Extension
		if record.IsDir {
			key = "/"
		}
		position, ok := index[key]
		if !ok {
			position = len(groups)
			index[key] = position
			groups = append(groups, ExtGroup{Extension: key})
		}
		groups[position].Count++
		groups[position].Bytes += record.SizeBytes
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Bytes != groups[j].Bytes {
			return groups[i].Bytes > groups[j].Bytes
		}
		return groups[i].Extension < groups[j].Extension
	})
	return groups
}

func (appState *State) follow(current *domain.SearchResultRecord) {
	visible := appState.VisibleRecords()
	if current != nil {
		for index, record := range visible {
			if record.AbsolutePath == current.AbsolutePath {
				appState.Cursor = index
				return
			}
		}
	}
	appState.Cursor = clamp(appState.Cursor, len(visible))
}

func coveredBy(rel string, dirs []string) bool {
	for _, dir := range dirs {
		if rel != dir && strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

func clamp(cursor, length int) int {
	if length == 0 || cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}

// Parent returns the slash-separated parent of a relative result path, or
// "" for a top-level entry.
func Parent(rel string) string {
	parent := path.Dir(rel)
	if parent == "." {
		return ""
	}
	return parent
}
