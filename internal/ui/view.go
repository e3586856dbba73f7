package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/internal/state"
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
	if strings.ToLower(model.theme) == "light" {
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
	bodyHeight := maxInt(model.listHeight(), 3)
	leftWidth, rightWidth, showRight := splitPanels(model.width)
	if !showRight {
		rightWidth = model.width
	}

	var modal string
	switch {
	case model.form != nil:
		modal = renderPanel(styles, model.form.view(styles, maxInt(rightWidth-4, 30)), rightWidth, bodyHeight)
	case model.confirm != nil:
		modal = renderConfirmPanel(model.confirm, styles, rightWidth, bodyHeight)
	case model.previewing:
		modal = renderPreviewPanel(model, styles, rightWidth, bodyHeight)
	}
	if !showRight {
		if modal != "" {
			return modal
		}
		return renderTreePanel(model, styles, bodyHeight, leftWidth)
	}

	left := renderTreePanel(model, styles, bodyHeight, leftWidth)
	right := modal
	if right == "" {
		right = renderDetailPanel(model, styles, rightWidth, bodyHeight)
	}
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Render("│")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func renderTreePanel(model Model, styles uiStyles, height, width int) string {
	width = maxInt(width, 20)
	contentWidth := maxInt(width-2, 10)
	visible := model.store.Visible()

	mode := "IDLE"
	if model.busy > 0 {
		mode = model.spinner.View() + " WORKING"
	}
	if model.dragging != domain.NoRef {
		mode = "MOVING"
	}
	headerLine := padLine(styles.headerStyle.Render("Pebble")+"  "+styles.mutedStyle.Render("connections"), styles.statusStyle.Render(mode), contentWidth)
	listHeight := maxInt(height-1, 1)

	lines := make([]string, 0, height)
	lines = append(lines, headerLine)
	start := clamp(model.viewTop, 0, maxInt(len(visible)-1, 0))
	end := minInt(start+listHeight, len(visible))
	for index := start; index < end; index++ {
		line := renderRow(model, styles, visible[index], contentWidth)
		if index == model.cursor {
			line = styles.cursorStyle.Render(line)
		}
		lines = append(lines, line)
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return styles.panelBorder.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

func renderRow(model Model, styles uiStyles, item state.VisibleNode, width int) string {
	node := item.Node
	indent := strings.Repeat("  ", item.Depth)
	var line string
	switch node.Kind {
	case domain.KindToolbar:
		if model.core.IsEmpty() {
			line = "＋ No connections, press n to add a connection"
		} else {
			line = "＋ New connection   r reload   d delete"
		}
	case domain.KindLoading:
		line = indent + model.spinner.View() + " " + node.Name
	case domain.KindConnection:
		line = indent + marker(node) + " ⛁ " + node.Name + "  " + node.Connection.Server
	case domain.KindCollection:
		line = indent + marker(node) + " 📁 " + node.Name
	default:
		line = indent + "  📄 " + node.Name
	}
	if node.Ref == model.dragging {
		return truncate(line, maxInt(width-10, 1)) + styles.selectedStyle.Render("  (moving)")
	}
	return truncate(line, width)
}

func marker(node domain.Node) string {
	if node.Expanded {
		return "▾"
	}
	return "▸"
}

func renderDetailPanel(model Model, styles uiStyles, width, height int) string {
	node, ok := model.current()
	if !ok || node.IsToolbar() {
		return renderPanel(styles, styles.mutedStyle.Render("No selection"), width, height)
	}
	contentWidth := maxInt(width-4, 10)
	lines := []string{
		styles.headerStyle.Render(cases.Title(language.English).String(node.Kind.String())),
		truncate(node.Name, contentWidth),
	}
	if connection := node.Connection; connection != nil {
		lines = append(lines, "",
			styles.headerStyle.Render("Connection"),
			truncate(connection.Name, contentWidth),
			truncate(connection.Username+"@"+connection.Server, contentWidth),
		)
	}
	if node.Link != "" {
		lines = append(lines, "", styles.headerStyle.Render("Link"), truncate(node.Link, contentWidth))
	}
	if model.showProps {
		lines = append(lines, "", styles.headerStyle.Render("Properties"),
			fmt.Sprintf("ID      : %s", truncate(node.ID, contentWidth-10)),
			fmt.Sprintf("Expanded: %t", node.Expanded),
			fmt.Sprintf("Loaded  : %t", node.Loaded),
			fmt.Sprintf("Children: %d", len(node.Children)),
		)
		if node.Resource != "" {
			lines = append(lines, fmt.Sprintf("Resource: %s", truncate(node.Resource, contentWidth-10)))
		}
	}
	return renderPanel(styles, strings.Join(lines, "\n"), width, height)
}

func renderConfirmPanel(request *dialog.Request, styles uiStyles, width, height int) string {
	contentWidth := maxInt(width-4, 20)
	lines := []string{styles.headerStyle.Render(request.Title), ""}
	for _, line := range request.Lines {
		lines = append(lines, truncate(line, contentWidth))
	}
	lines = append(lines, "",
		styles.warnStyle.Render("y "+request.OK)+"   "+styles.mutedStyle.Render("n "+request.Cancel),
	)
	return renderPanel(styles, strings.Join(lines, "\n"), width, height)
}

func renderPreviewPanel(model Model, styles uiStyles, width, height int) string {
	lines := []string{
		styles.headerStyle.Render(truncate(model.previewTitle, maxInt(width-4, 10))),
		model.preview.View(),
		styles.mutedStyle.Render(fmt.Sprintf("%3.f%%  esc close", model.preview.ScrollPercent()*100)),
	}
	return renderPanel(styles, strings.Join(lines, "\n"), width, height)
}

func renderPanel(styles uiStyles, content string, width, height int) string {
	contentWidth := maxInt(width-2, 10)
	content = lipgloss.NewStyle().Width(contentWidth).Height(height).Render(content)
	return styles.panelBorder.Width(contentWidth).Render(content)
}

func renderFooter(model Model, styles uiStyles) string {
	statusStyle := styles.mutedStyle
	if model.statusErr {
		statusStyle = styles.warnStyle
	}
	statusLine := statusStyle.Render(truncate(model.status, maxInt(model.width-1, 10)))

	keys := "↑/↓ move  enter open  ← collapse  n new  d delete  r reload  m move  c copy  i info  ? help  q quit"
	switch {
	case model.form != nil:
		keys = "tab next  enter create  esc cancel"
	case model.confirm != nil:
		keys = "y confirm  n cancel"
	case model.previewing:
		keys = "↑/↓ scroll  esc close"
	case model.dragging != domain.NoRef:
		keys = "navigate + p drop  esc cancel"
	}
	left := fmt.Sprintf("Connections: %d", len(model.store.Connections()))
	footerLine := padLine(left, keys, model.width)
	return strings.Join([]string{statusLine, styles.mutedStyle.Render(footerLine)}, "\n")
}

func renderHelpView(model Model, styles uiStyles) string {
	lines := []string{styles.headerStyle.Render("Pebble Help"), ""}
	lines = append(lines, styles.headerStyle.Render("Tree"))
	lines = append(lines, "connections open on expand", "collections list their content once, r lists again")
	lines = append(lines, "", styles.headerStyle.Render("Moving"))
	lines = append(lines, "pick up a collection or document, then drop it on a collection")
	lines = append(lines, "", styles.headerStyle.Render("Keys"))
	for _, binding := range model.keys.helpBindings() {
		keysLabel := strings.Join(binding.Keys(), ", ")
		lines = append(lines, fmt.Sprintf("%-18s %s", keysLabel, binding.Help().Desc))
	}
	lines = append(lines, "", "Press ? to close help")
	width := model.width
	if width <= 0 {
		width = 80
	}
	return styles.panelBorder.Width(maxInt(width-2, 10)).Render(strings.Join(lines, "\n"))
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
	left := int(float64(width) * 0.55)
	if left < 40 {
		left = 40
	}
	right := width - left - 1
	if right < 30 {
		return width, 0, false
	}
	return left, right, true
}

// truncate cuts s to width terminal cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
