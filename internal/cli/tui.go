package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/hierarchy"
	"github.com/matzehuels/taxotree/pkg/render"
	"github.com/matzehuels/taxotree/pkg/search"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	statusErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

type viewMode int

const (
	modeTree viewMode = iota
	modeSearch
	modeInfo
)

type (
	toggledMsg struct {
		id    string
		frame explorer.Frame
	}
	frameMsg struct {
		frame explorer.Frame
		err   error
	}
	searchMsg struct{ outcome search.Outcome }
	infoMsg   struct {
		info *taxonomy.NodeInfo
		err  error
	}
)

// ExplorerModel is the bubbletea model of the terminal explorer.
type ExplorerModel struct {
	ctx    context.Context
	sess   *explorer.Session
	style  render.Style
	rootID string

	mode   viewMode
	rows   []*hierarchy.VisibleNode
	cursor int
	offset int
	height int
	labels bool
	busy   map[string]bool
	status string
	failed bool

	input    textinput.Model
	limit    int
	results  []taxonomy.SearchResult
	resultAt int

	info     *taxonomy.NodeInfo
	parentAt int
}

// NewExplorerModel creates the explorer. With an empty rootID it opens on
// the search box.
func NewExplorerModel(ctx context.Context, sess *explorer.Session, rootID string, labels bool, searchLimit int) ExplorerModel {
	ti := textinput.New()
	ti.Placeholder = "search concepts"
	ti.CharLimit = 256

	m := ExplorerModel{
		ctx:    ctx,
		sess:   sess,
		style:  render.DefaultStyle(),
		rootID: rootID,
		height: 20,
		labels: labels,
		busy:   make(map[string]bool),
		input:  ti,
		limit:  searchLimit,
	}
	if rootID == "" {
		m.mode = modeSearch
		m.input.Focus()
	}
	return m
}

func (m ExplorerModel) Init() tea.Cmd {
	if m.rootID == "" {
		return textinput.Blink
	}
	return m.selectCmd(m.rootID)
}

func (m ExplorerModel) selectCmd(id string) tea.Cmd {
	return func() tea.Msg {
		f, err := m.sess.Select(m.ctx, id)
		return frameMsg{frame: f, err: err}
	}
}

func (m ExplorerModel) toggleCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return toggledMsg{id: id, frame: m.sess.Click(m.ctx, id)}
	}
}

func (m ExplorerModel) searchCmd(q string) tea.Cmd {
	req := search.Request{Query: q, Limit: m.limit}
	return func() tea.Msg {
		return searchMsg{outcome: m.sess.Search(m.ctx, req)}
	}
}

func (m ExplorerModel) infoCmd(id string) tea.Cmd {
	return func() tea.Msg {
		info, err := m.sess.Info(m.ctx, id)
		return infoMsg{info: info, err: err}
	}
}

// refresh rebuilds the row list from the store, keeping the cursor on the
// same node when it is still visible.
func (m *ExplorerModel) refresh() {
	var current string
	if m.cursor < len(m.rows) {
		current = m.rows[m.cursor].Node.ID
	}
	store := m.sess.Store()
	if store == nil {
		m.rows = nil
		return
	}
	m.rows = store.Visible().Nodes
	m.cursor = 0
	for i, r := range m.rows {
		if r.Node.ID == current {
			m.cursor = i
			break
		}
	}
	m.scroll()
}

func (m *ExplorerModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *ExplorerModel) setStatus(failed bool, format string, args ...any) {
	m.failed = failed
	m.status = fmt.Sprintf(format, args...)
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-6, 5)
		m.scroll()
		return m, nil

	case frameMsg:
		if msg.err != nil {
			m.setStatus(true, "%v", msg.err)
			return m, nil
		}
		m.mode = modeTree
		m.input.Blur()
		m.cursor, m.offset = 0, 0
		m.refresh()
		m.setStatus(false, "%s of %s", m.sess.Direction(), msg.frame.Scene.RootID)
		return m, nil

	case toggledMsg:
		delete(m.busy, msg.id)
		m.refresh()
		if msg.frame.Outcome == explorer.OutcomeFetchFailed {
			m.setStatus(true, "could not fetch %s", msg.id)
		} else {
			m.setStatus(false, "%s %s", msg.id, msg.frame.Outcome)
		}
		return m, nil

	case searchMsg:
		m.results = msg.outcome.Results
		m.resultAt = 0
		if msg.outcome.Empty() {
			m.setStatus(true, "%s", msg.outcome.ErrorMessage)
		} else {
			m.setStatus(false, "%d results", len(m.results))
		}
		return m, nil

	case infoMsg:
		if msg.err != nil {
			m.setStatus(true, "%v", msg.err)
			return m, nil
		}
		m.info = msg.info
		m.parentAt = 0
		m.mode = modeInfo
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeInfo:
			return m.updateInfo(msg)
		default:
			return m.updateTree(msg)
		}
	}
	return m, nil
}

func (m ExplorerModel) updateTree(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.scroll()
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			m.scroll()
		}
	case "enter", " ":
		if len(m.rows) == 0 {
			return m, nil
		}
		id := m.rows[m.cursor].Node.ID
		if m.busy[id] {
			return m, nil
		}
		m.busy[id] = true
		return m, m.toggleCmd(id)
	case "i":
		if len(m.rows) > 0 {
			return m, m.infoCmd(m.rows[m.cursor].Node.ID)
		}
	case "s":
		if len(m.rows) > 0 {
			return m, m.selectCmd(m.rows[m.cursor].Node.ID)
		}
	case "/":
		m.mode = modeSearch
		m.input.Focus()
		return m, textinput.Blink
	case "l":
		m.labels = !m.labels
	case "d":
		next := taxonomy.Parents
		if m.sess.Direction() == taxonomy.Parents {
			next = taxonomy.Children
		}
		return m, func() tea.Msg { return frameMsg{frame: m.sess.SetDirection(m.ctx, next)} }
	case "x":
		on := !m.sess.IncludeDeprecated()
		return m, func() tea.Msg { return frameMsg{frame: m.sess.SetIncludeDeprecated(m.ctx, on)} }
	}
	return m, nil
}

func (m ExplorerModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.sess.Store() == nil {
			return m, tea.Quit
		}
		m.mode = modeTree
		m.input.Blur()
		return m, nil
	case "enter":
		if len(m.results) > 0 && m.input.Value() == "" {
			return m, m.selectCmd(m.results[m.resultAt].ID)
		}
		q := strings.TrimSpace(m.input.Value())
		if q == "" {
			return m, nil
		}
		m.input.SetValue("")
		return m, m.searchCmd(q)
	case "up":
		if m.resultAt > 0 {
			m.resultAt--
		}
		return m, nil
	case "down":
		if m.resultAt < len(m.results)-1 {
			m.resultAt++
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ExplorerModel) updateInfo(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "i":
		m.mode = modeTree
	case "up", "k":
		if m.parentAt > 0 {
			m.parentAt--
		}
	case "down", "j":
		if m.info != nil && m.parentAt < len(m.info.Parents)-1 {
			m.parentAt++
		}
	case "enter":
		if m.info != nil && len(m.info.Parents) > 0 {
			return m, m.selectCmd(m.info.Parents[m.parentAt])
		}
	}
	return m, nil
}

func (m ExplorerModel) View() string {
	var b strings.Builder
	switch m.mode {
	case modeSearch:
		m.viewSearch(&b)
	case modeInfo:
		m.viewInfo(&b)
	default:
		m.viewTree(&b)
	}
	if m.status != "" {
		b.WriteString("\n")
		if m.failed {
			b.WriteString(statusErrorStyle.Render(m.status))
		} else {
			b.WriteString(listDimStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m ExplorerModel) viewTree(b *strings.Builder) {
	dep := "hidden"
	if m.sess.IncludeDeprecated() {
		dep = "shown"
	}
	b.WriteString(StyleTitle.Render(fmt.Sprintf("taxotree · %s · deprecated %s", m.sess.Direction(), dep)))
	if store := m.sess.Store(); store != nil {
		known, fetched := 0, 0
		for _, e := range store.Snapshot() {
			known++
			if e.State.Fetched() {
				fetched++
			}
		}
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d known · %d fetched", known, fetched)))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ move  ⏎ toggle  i info  s re-root  / search  d direction  x deprecated  l labels  q quit"))
	b.WriteString("\n\n")

	dir := m.sess.Direction()
	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		b.WriteString(m.row(m.rows[i], i == m.cursor, dir))
		b.WriteString("\n")
	}
}

func (m ExplorerModel) row(vn *hierarchy.VisibleNode, selected bool, dir taxonomy.Direction) string {
	n := vn.Node
	marker := "•"
	switch {
	case m.busy[n.ID]:
		marker = "…"
	case n.Expanded && n.HasMore(dir):
		marker = "▾"
	case n.HasMore(dir):
		marker = "▸"
	}

	name := n.ID
	if m.labels && n.Label != "" {
		name = n.Label
	}
	st := m.style.Classify(n, vn.Parent == nil, dir)
	text := nodeStyle(st, m.style).Render(name)
	if selected {
		text = listSelectedStyle.Render(name)
	}

	line := strings.Repeat("  ", vn.Depth) + marker + " " + text
	if extra := n.Extra(dir); len(extra) > 0 {
		line += listDimStyle.Render(fmt.Sprintf("  ⇢ %s", strings.Join(extra, ", ")))
	}
	if selected {
		return "▸ " + line
	}
	return "  " + line
}

func (m ExplorerModel) viewSearch(b *strings.Builder) {
	b.WriteString(StyleTitle.Render("Search"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎ search / select  ↑/↓ move  esc back"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	for i, r := range m.results {
		label := r.Label
		if r.Deprecated() {
			label += " (deprecated)"
		}
		if i == m.resultAt {
			b.WriteString(listSelectedStyle.Render("▸ " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString(listDimStyle.Render("  " + r.ID))
		b.WriteString("\n")
	}
}

func (m ExplorerModel) viewInfo(b *strings.Builder) {
	if m.info == nil {
		return
	}
	info := m.info
	b.WriteString(StyleTitle.Render(info.Label))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("⏎ re-root at parent  ↑/↓ move  esc back"))
	b.WriteString("\n\n")
	b.WriteString(styleKey.Render("id") + " " + info.ID + "\n")
	if info.Definition != "" {
		b.WriteString(styleKey.Render("definition") + " " + info.Definition + "\n")
	}
	if info.Dep != nil && *info.Dep != "" {
		b.WriteString(styleKey.Render("deprecated") + " " + *info.Dep + "\n")
	}
	for _, t := range info.Types {
		b.WriteString(styleKey.Render("type") + " " + t + "\n")
	}
	for i, p := range info.Parents {
		if i == m.parentAt {
			b.WriteString(styleKey.Render("parent") + " " + listSelectedStyle.Render(p) + "\n")
		} else {
			b.WriteString(styleKey.Render("parent") + " " + p + "\n")
		}
	}
}
