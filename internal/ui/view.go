package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/pathspec"
	"toomuchleft/internal/sizeunit"
	"toomuchleft/internal/state"
)

type uiStyles struct {
	headerStyle   lipgloss.Style
	mutedStyle    lipgloss.Style
	statusStyle   lipgloss.Style
	warnStyle     lipgloss.Style
	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	panelBorder   lipgloss.Style
}

func stylesFor(model Model) uiStyles {
	if strings.ToLower(model.state.Prefs.Theme) == "light" {
		return uiStyles{
			headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("235")),
			mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
			statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("25")).Bold(true),
			warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")).Bold(true),
			cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("90")).Bold(true),
			selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
			panelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		}
	}
	return uiStyles{
		headerStyle:   lipgloss.NewStyle().Bold(true),
		mutedStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		statusStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true),
		warnStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true),
		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		panelBorder:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (model Model) View() string {
	styles := stylesFor(model)
	if model.showHelp {
		return renderHelpView(model, styles)
	}
	body := renderBody(model, styles)
	footer := renderFooter(model, styles)
	return strings.Join([]string{body, footer}, "\n")
}

func renderBody(model Model, styles uiStyles) string {
	visible := model.state.VisibleRecords()
	bodyHeight := max(model.listHeight(), 3)

	leftWidth, rightWidth, showRight := splitPanels(model.width)
	left := renderResultsPanel(model, styles, visible, bodyHeight, leftWidth)
	if !showRight {
		return left
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	right := renderDetailPanel(model, styles, rightWidth, bodyHeight)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func renderFooter(model Model, styles uiStyles) string {
	statusLine := trimStatus(model.status, model.width)
	if model.scanning || model.deleting {
		statusLine = model.spinner.View() + " " + statusLine
	}
	if model.deleting && model.deletion != nil {
		percent := 0.0
		if total := len(model.deletion.Items); total > 0 {
			percent = float64(model.deleteDone) / float64(total)
		}
		statusLine = fmt.Sprintf("%s  %s", statusLine, model.bar.ViewAs(percent))
	}
	statusStyle := styles.mutedStyle
	lower := strings.ToLower(model.status)
	if strings.Contains(lower, "error") || strings.Contains(lower, "warning") {
		statusStyle = styles.warnStyle
	}
	statusLine = statusStyle.Render(statusLine)

	selectedCount, selectedSize := model.state.SelectionSummary()
	selectionInfo := fmt.Sprintf("Selected: %s/%s (%s)",
		humanize.Comma(int64(selectedCount)),
		humanize.Comma(int64(len(model.state.Records))),
		sizeunit.Format(selectedSize))
	sortInfo := fmt.Sprintf("Sort: %s", strings.ToUpper(string(model.state.Prefs.SortMode)))
	left := fmt.Sprintf("%s  %s%s", selectionInfo, sortInfo, filterSummary(model))
	keys := model.help.ShortHelpView(model.keys.contextHelp(model))
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderResultsPanel(model Model, styles uiStyles, visible []domain.SearchResultRecord, height, width int) string {
	if width < 20 {
		width = 20
	}
	contentWidth := max(width-2, 10)
	status := "IDLE"
	switch {
	case model.deleting:
		status = "DELETING"
	case model.scanning:
		status = "SCANNING"
	}
	headerLine := padLine(styles.headerStyle.Render("TooMuchLeft")+"  "+model.state.Root, styles.statusStyle.Render(status), contentWidth)
	listHeight := max(height-1, 1)
	if len(visible) == 0 {
		message := "No results - press s to scan"
		if model.scanning {
			message = "Scanning..."
		} else if len(model.state.Records) > 0 {
			message = "No results match the current filter"
		}
		lines := []string{headerLine, message}
		for i := 0; i < max(listHeight-1, 0); i++ {
			lines = append(lines, "")
		}
		return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
	}
	start := min(max(model.viewTop, 0), max(len(visible)-1, 0))
	end := min(start+listHeight, len(visible))

	lines := make([]string, 0, height)
	lines = append(lines, headerLine)
	sizeWidth := 11
	for index := start; index < end; index++ {
		record := visible[index]
		marker := "[ ]"
		if model.state.IsSelected(record.AbsolutePath) {
			marker = styles.selectedStyle.Render("[x]")
		}
		name := record.RelativePath
		if record.IsDir {
			name += "/"
		}
		lineSize := fmt.Sprintf("%*s", sizeWidth, sizeunit.Format(record.SizeBytes))
		line := fmt.Sprintf("%s %s %s", lineSize, marker, name)
		if index == model.state.Cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func renderDetailPanel(model Model, styles uiStyles, width, height int) string {
	if model.confirming {
		return renderPreviewPanel(model, styles, width, height)
	}
	contentWidth := max(width-2, 10)
	lines := []string{
		styles.headerStyle.Render("Scan"),
		fmt.Sprintf("Include: %s", pathspec.Compile(model.request.Include)),
		fmt.Sprintf("Exclude: %s", pathspec.Compile(model.request.Exclude)),
		fmt.Sprintf("Size   : %s", filterLabel(model)),
	}
	if record := model.state.CurrentRecord(); record != nil {
		kind := "file"
		if record.IsDir {
			kind = "directory"
		}
		location := state.Parent(record.RelativePath)
		if location == "" {
			location = "."
		}
		lines = append(lines, "",
			styles.headerStyle.Render("Entry"),
			record.AbsolutePath,
			fmt.Sprintf("Type : %s", kind),
			fmt.Sprintf("In   : %s", location),
			fmt.Sprintf("Size : %s (%s bytes)", sizeunit.Format(record.SizeBytes), humanize.Comma(record.SizeBytes)),
		)
	}
	if groups := model.state.Groups(); len(groups) > 0 {
		lines = append(lines, "", styles.headerStyle.Render("By extension"))
		for i, group := range groups {
			if i == 8 {
				lines = append(lines, fmt.Sprintf("... %d more", len(groups)-i))
				break
			}
			lines = append(lines, fmt.Sprintf("%-10s %6s  %s", groupLabel(group.Extension), humanize.Comma(int64(group.Count)), sizeunit.Format(group.Bytes)))
		}
	}
	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderPreviewPanel(model Model, styles uiStyles, width, height int) string {
	preview := model.pendingPreview
	lines := []string{
		styles.headerStyle.Render("Delete Preview"),
		fmt.Sprintf("Items: %d", len(preview.Items)),
		fmt.Sprintf("Files: %d", preview.TotalFiles),
		fmt.Sprintf("Dirs : %d", preview.TotalDirs),
		fmt.Sprintf("Size : %s", sizeunit.Format(preview.TotalBytes)),
	}
	if len(preview.Samples) > 0 {
		lines = append(lines, "", styles.headerStyle.Render("Samples"))
		lines = append(lines, preview.Samples...)
	}
	if len(preview.Warnings) > 0 {
		lines = append(lines, "", styles.warnStyle.Render("Warnings"))
		lines = append(lines, preview.Warnings...)
	}
	lines = append(lines, "", "Read-only files are deleted too.", "Press y to delete, n to cancel.")
	contentWidth := max(width-2, 10)
	content := strings.Join(lines, "\n")
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderHelpView(model Model, styles uiStyles) string {
	lines := []string{styles.headerStyle.Render("TooMuchLeft Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Results"))
	lines = append(lines, "entries matching the include patterns, minus excludes,", "filtered by size; matched directories are listed whole")
	lines = append(lines, "", styles.headerStyle.Render("Selection"))
	lines = append(lines, "new results start selected", "entries inside a selected directory are covered by it")
	lines = append(lines, "", styles.headerStyle.Render("Safety"))
	lines = append(lines, "confirm with y", "esc stops a running scan or delete", "safe mode blocks /, $HOME, /etc, /usr and friends")
	lines = append(lines, "", styles.headerStyle.Render("Keys"), model.help.FullHelpView(model.keys.FullHelp()))
	lines = append(lines, "", "Press ? to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(max(width-2, 10)).Render(strings.Join(lines, "\n"))
}

func filterLabel(model Model) string {
	op, err := domain.ParseCompareOp(string(model.request.Compare))
	if err != nil {
		return "unlimited"
	}
	filter, err := sizeunit.ParseFilter(op, model.request.Threshold)
	if err != nil {
		return "unlimited"
	}
	return sizeunit.FormatFilter(filter)
}

func groupLabel(ext string) string {
	switch ext {
	case "/":
		return "dirs"
	case "":
		return "(none)"
	default:
		return ext
	}
}

func padLine(left, right string, width int) string {
	if width <= 0 {
		return left
	}
	space := width - lipgloss.Width(left) - lipgloss.Width(right)
	if space < 1 {
		return left + " " + right
	}
	return left + strings.Repeat(" ", space) + right
}

func splitPanels(width int) (int, int, bool) {
	if width < 80 {
		return width, 0, false
	}
	left := int(float64(width) * 0.6)
	if left < 40 {
		left = 40
	}
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

func trimStatus(message string, width int) string {
	if width <= 0 {
		return message
	}
	limit := width - 4
	if limit <= 0 || len(message) <= limit {
		return message
	}
	return message[:limit] + "..."
}

func filterSummary(model Model) string {
	parts := []string{}
	if model.state.SearchQuery != "" {
		parts = append(parts, fmt.Sprintf("Search:%s", model.state.SearchQuery))
	}
	if model.state.FilterExt != "" {
		parts = append(parts, fmt.Sprintf("Ext:%s", model.state.FilterExt))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  Filters[" + strings.Join(parts, ", ") + "]"
}
