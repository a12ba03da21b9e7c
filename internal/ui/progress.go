package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"schemelex/internal/driver"
)

// listAllLimit: up to this many files every row is listed; above it finished
// files collapse into the header and only active or failed ones stay visible.
const listAllLimit = 20

const statusWidth = 10

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	detailStyle  = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path   string
	stage  driver.Stage
	status driver.Status
	tokens int
	cached bool
	err    error
}

func (it fileItem) finished() bool {
	return it.status == driver.StatusDone || it.status == driver.StatusError
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders per-file tokenization progress.
// The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items[i] = fileItem{path: file, status: driver.StatusQueued}
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.applyEvent(driver.Event(msg)), m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		updated, cmd := m.prog.Update(msg)
		m.prog = updated.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) counts() (finished, failed, tokens int) {
	for _, it := range m.items {
		if it.finished() {
			finished++
			tokens += it.tokens
		}
		if it.status == driver.StatusError {
			failed++
		}
	}
	return finished, failed, tokens
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	finished, failed, tokens := m.counts()
	header := fmt.Sprintf("%s (%d/%d)", m.title, finished, len(m.items))
	if failed > 0 {
		header = fmt.Sprintf("%s, %d failed", header, failed)
	}
	if m.done {
		header = fmt.Sprintf("done: %s, %d tokens", header, tokens)
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusWidth-4, 20)
	listAll := len(m.items) <= listAllLimit
	for _, it := range m.items {
		// в длинных списках показываем только активные и упавшие файлы
		if !listAll && it.status != driver.StatusWorking && it.status != driver.StatusError {
			continue
		}
		b.WriteString(m.row(it, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) row(it fileItem, nameWidth int) string {
	label := statusLabel(it.stage, it.status)
	line := fmt.Sprintf("  %s %s", styleFor(it.status).Render(fmt.Sprintf("%*s", statusWidth, label)), truncate(it.path, nameWidth))
	if detail := itemDetail(it); detail != "" {
		line += "  " + detailStyle.Render(detail)
	}
	return line
}

func itemDetail(it fileItem) string {
	switch it.status {
	case driver.StatusDone:
		if it.cached {
			return fmt.Sprintf("%d tokens, cached", it.tokens)
		}
		return fmt.Sprintf("%d tokens", it.tokens)
	case driver.StatusError:
		if it.err != nil {
			return truncate(it.err.Error(), 60)
		}
	}
	return ""
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	it.stage, it.status = ev.Stage, ev.Status
	if it.finished() {
		it.tokens, it.cached, it.err = ev.Tokens, ev.Cached, ev.Err
	}

	total := 0.0
	for _, item := range m.items {
		total += itemProgress(item)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func itemProgress(it fileItem) float64 {
	if it.finished() {
		return 1
	}
	if it.status != driver.StatusWorking {
		return 0
	}
	switch it.stage {
	case driver.StageLoad:
		return 0.1
	case driver.StageScan:
		return 0.5
	default:
		return 0
	}
}

func statusLabel(stage driver.Stage, status driver.Status) string {
	if status != driver.StatusWorking {
		return string(status)
	}
	switch stage {
	case driver.StageLoad:
		return "loading"
	case driver.StageScan:
		return "scanning"
	default:
		return "working"
	}
}

func styleFor(status driver.Status) lipgloss.Style {
	switch status {
	case driver.StatusDone:
		return doneStyle
	case driver.StatusError:
		return errorStyle
	case driver.StatusWorking:
		return workingStyle
	default:
		return idleStyle
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
