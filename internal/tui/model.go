package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sunrisies/rustkill/internal/deleter"
	"github.com/Sunrisies/rustkill/internal/logger"
	"github.com/Sunrisies/rustkill/internal/scanner"
	"github.com/Sunrisies/rustkill/pkg/sizefmt"
)

type status int

const (
	statusScanning status = iota
	statusReady
	statusConfirm
	statusDeleting
	statusDone
)

type item struct {
	entry *scanner.FileEntry
	disp  string
	sel   bool
}

type model struct {
	root      string
	opts      scanner.Options
	sp        spinner.Model
	startedAt time.Time

	st        status
	items     []item
	totalSize uint64

	cursor       int
	scrollOffset int
	sortBy       string // "size" or "path"
	sortReverse  bool
	selectedSize uint64

	// scanning stream
	scanCh      chan tea.Msg
	scanCancel  context.CancelFunc
	scanPercent int
	scanPath    string
	scanDone    scanner.Completed

	// deletion
	lifecycle    *deleter.Lifecycle
	delCh        chan tea.Msg
	delCancel    context.CancelFunc
	delTotal     int
	delCompleted int
	delLastPath  string
	delFreed     uint64
	delFailures  []deleter.Failure
	dryRun       bool

	termW int
	termH int

	showHelp bool
}

func newModel(root string, opts scanner.Options, dryRun bool, log *logger.Logger) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := model{
		root:        root,
		opts:        opts,
		sp:          sp,
		startedAt:   time.Now(),
		st:          statusScanning,
		dryRun:      dryRun,
		lifecycle:   deleter.NewLifecycle(dryRun),
		sortBy:      "size",
		sortReverse: true,
	}

	ch := make(chan tea.Msg)
	m.scanCh = ch
	ctx, cancel := context.WithCancel(context.Background())
	m.scanCancel = cancel
	out, statusCh := scanner.Stream(ctx, root, opts, log)
	go func() {
		entries, statuses := out, statusCh
		for entries != nil || statuses != nil {
			select {
			case e, ok := <-entries:
				if !ok {
					entries = nil
					continue
				}
				ch <- scanEntryMsg{entry: e}
			case st, ok := <-statuses:
				if !ok {
					statuses = nil
					continue
				}
				ch <- scanStatusMsg{st: st}
			}
		}
		ch <- scanCompleteMsg{}
		close(ch)
	}()
	return m
}

// Run starts the interactive session and blocks until the user quits.
func Run(root string, opts scanner.Options, dryRun bool, log *logger.Logger) error {
	p := tea.NewProgram(newModel(root, opts, dryRun, log))
	_, err := p.Run()
	return err
}

// scan stream messages
type scanEntryMsg struct{ entry scanner.FileEntry }
type scanStatusMsg struct{ st scanner.ScanStatus }
type scanCompleteMsg struct{}

// deletion messages
type delProgressMsg struct {
	completed int
	total     int
	path      string
	err       error
}
type delDoneMsg struct{ summary deleter.Summary }

func (m model) Init() tea.Cmd {
	return tea.Batch(m.sp.Tick, m.waitScanMsg())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.st == statusConfirm {
				m.st = statusReady
				return m, nil
			}
			if m.st == statusDeleting && m.delCancel != nil {
				// the pending reader keeps draining until delDoneMsg
				m.delCancel()
				return m, nil
			}
			if m.st == statusScanning && m.scanCancel != nil {
				m.scanCancel()
			}
			return m, tea.Quit
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "enter", "d":
			if m.st == statusReady {
				if m.selectedCount() == 0 {
					return m, nil
				}
				m.st = statusConfirm
				return m, nil
			}
			if m.st == statusDone {
				m.st = statusReady
				return m, nil
			}
		case "y":
			if m.st == statusConfirm {
				return m.startDeletion()
			}
		case "n":
			if m.st == statusConfirm {
				m.st = statusReady
				return m, nil
			}
		case "up", "k":
			if m.st == statusReady && m.cursor > 0 {
				m.cursor--
				m.adjustScroll()
				return m, nil
			}
		case "down", "j":
			if m.st == statusReady && m.cursor < len(m.items)-1 {
				m.cursor++
				m.adjustScroll()
				return m, nil
			}
		case " ":
			if m.st == statusReady {
				m.toggleSelected()
				return m, nil
			}
		case "a":
			if m.st == statusReady {
				m.selectAll()
				return m, nil
			}
		case "s":
			if m.st == statusReady {
				m.toggleSortField()
				m.applySort()
				return m, nil
			}
		case "r":
			if m.st == statusReady {
				m.sortReverse = !m.sortReverse
				m.applySort()
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		m.termW, m.termH = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		// Stream readers are re-armed only by the handler of each
		// delivered message, keeping exactly one pending reader per
		// channel; ticks just advance the spinner.
		var cmd tea.Cmd
		m.sp, cmd = m.sp.Update(msg)
		return m, cmd

	case scanEntryMsg:
		m.appendEntry(msg.entry)
		return m, m.waitScanMsg()
	case scanStatusMsg:
		switch st := msg.st.(type) {
		case scanner.Scanning:
			m.scanPercent = st.ProgressPercent
			m.scanPath = st.CurrentPath
		case scanner.Completed:
			m.scanDone = st
		}
		return m, m.waitScanMsg()
	case scanCompleteMsg:
		m.st = statusReady
		return m, nil

	case delProgressMsg:
		m.delCompleted = msg.completed
		m.delLastPath = msg.path
		return m, m.waitDeleteMsg()
	case delDoneMsg:
		m.delFailures = msg.summary.Failures
		m.delFreed = msg.summary.Freed
		m.removeDeleted()
		m.selectedSize = 0
		m.totalSize -= m.delFreed
		m.st = statusDone
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	switch m.st {
	case statusScanning, statusReady:
		base := m.headerText() + m.renderList()
		if m.showHelp {
			base += "\n" + m.helpText()
		}
		return base
	case statusConfirm:
		cnt := m.selectedCount()
		size := sizefmt.Bytes(m.selectedSize)
		return fmt.Sprintf("Confirm delete %d directories, freeing ~%s? (y/N)\nPress y to confirm, n/esc to cancel.\n", cnt, size)
	case statusDeleting:
		mode := ""
		if m.dryRun {
			mode = " [dry-run]"
		}
		return fmt.Sprintf("Deleting%s... %s\nProgress: %d/%d\nLast: %s\nPress q to cancel.\n", mode, m.sp.View(), m.delCompleted, m.delTotal, m.delLastPath)
	case statusDone:
		mode := ""
		if m.dryRun {
			mode = " (dry-run; no files removed)"
		}
		s := fmt.Sprintf("Delete complete%s. Freed %s. Failures: %d\n", mode, sizefmt.Bytes(m.delFreed), len(m.delFailures))
		for _, f := range m.delFailures {
			s += fmt.Sprintf(" - %s: %v\n", f.Path, f.Err)
		}
		s += "Press enter to return, q to quit.\n"
		return s
	default:
		return ""
	}
}

func (m *model) headerText() string {
	switch m.st {
	case statusScanning:
		elapsed := time.Since(m.startedAt).Round(time.Millisecond)
		line := fmt.Sprintf("Scanning... %s %3d%%  Found: %d  Total: %s  Elapsed: %s\n",
			m.sp.View(), m.scanPercent, len(m.items), sizefmt.Bytes(m.totalSize), elapsed)
		if m.scanPath != "" {
			line += fmt.Sprintf("Current: %s\n", m.displayPath(m.scanPath))
		}
		return line + "Press ? for help\n\n"
	case statusReady:
		return fmt.Sprintf("Found: %d  Total: %s  Selected: %s  | Keys: ? help, ↑↓ move, space select, a all, s sort, r reverse, d/enter delete, q quit\n\n",
			len(m.items), sizefmt.Bytes(m.totalSize), sizefmt.Bytes(m.selectedSize))
	default:
		return ""
	}
}

func (m *model) renderList() string {
	if len(m.items) == 0 {
		if m.st == statusScanning {
			return ""
		}
		return "No matching directories found.\n"
	}

	var b strings.Builder
	headerLines := strings.Count(m.headerText(), "\n") + 1
	visibleHeight := m.termH - headerLines - 1
	if visibleHeight < 3 {
		visibleHeight = 3
	}

	start := m.scrollOffset
	end := start + visibleHeight
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := start; i < end; i++ {
		it := m.items[i]

		var prefix string
		if i == m.cursor {
			prefix = cursorStyle.Render(">") + " "
		} else {
			prefix = "  "
		}

		var mark string
		if it.sel {
			mark = markSelectedStyle.Render("[x]")
		} else {
			mark = markStyle.Render("[ ]")
		}

		sizeStr := sizeColorStyle(it.entry.SizeRaw).Render(fmt.Sprintf("%9s", it.entry.SizeDisplay))

		pathStr := it.disp
		if it.sel {
			pathStr = pathStyleSelected.Render(it.disp)
		}

		b.WriteString(prefix + mark + " " + sizeStr + " " + pathStr + "\n")
	}

	return b.String()
}

func (m *model) adjustScroll() {
	headerLines := strings.Count(m.headerText(), "\n") + 1
	visibleHeight := m.termH - headerLines - 1
	if visibleHeight < 3 {
		visibleHeight = 3
	}
	if m.cursor >= m.scrollOffset+visibleHeight {
		m.scrollOffset = m.cursor - visibleHeight + 1
	}
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
}

func (m *model) toggleSelected() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	m.items[m.cursor].sel = !m.items[m.cursor].sel
	if m.items[m.cursor].sel {
		m.selectedSize += m.items[m.cursor].entry.SizeRaw
	} else {
		m.selectedSize -= m.items[m.cursor].entry.SizeRaw
	}
}

func (m *model) selectAll() {
	allSelected := true
	for _, it := range m.items {
		if !it.sel {
			allSelected = false
			break
		}
	}
	m.selectedSize = 0
	for i := range m.items {
		m.items[i].sel = !allSelected
		if m.items[i].sel {
			m.selectedSize += m.items[i].entry.SizeRaw
		}
	}
}

func (m *model) toggleSortField() {
	if m.sortBy == "size" {
		m.sortBy = "path"
	} else {
		m.sortBy = "size"
	}
}

func (m *model) applySort() {
	sort.Slice(m.items, func(i, j int) bool {
		if m.sortBy == "path" {
			if m.sortReverse {
				return m.items[i].disp > m.items[j].disp
			}
			return m.items[i].disp < m.items[j].disp
		}
		if m.sortReverse {
			return m.items[i].entry.SizeRaw > m.items[j].entry.SizeRaw
		}
		return m.items[i].entry.SizeRaw < m.items[j].entry.SizeRaw
	})
}

func (m *model) waitScanMsg() tea.Cmd {
	if m.scanCh == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-m.scanCh
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *model) appendEntry(e scanner.FileEntry) {
	entry := e
	m.totalSize += entry.SizeRaw
	m.items = append(m.items, item{
		entry: &entry,
		disp:  m.displayPath(entry.Path),
	})
	m.applySort()
}

func (m *model) displayPath(p string) string {
	if rel, err := filepath.Rel(m.root, p); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}

func (m *model) helpText() string {
	lines := []string{
		"Help (press ? to close):",
		"  ↑/k, ↓/j  Move cursor",
		"  space     Toggle selection",
		"  a         Select/unselect all",
		"  s         Toggle sort field (size/path)",
		"  r         Reverse sort",
		"  d/enter   Delete selected",
		"  q/esc     Quit (cancels delete; cancels scan)",
	}
	return lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder()).Render(strings.Join(lines, "\n"))
}

var (
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	markStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	markSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	pathStyleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// Size color ramp: the bigger the subtree, the hotter the color.
func sizeColorStyle(b uint64) lipgloss.Style {
	const (
		MB = 1024 * 1024
		GB = 1024 * MB
	)
	switch {
	case b >= 8*GB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("160")) // dark red
	case b >= 4*GB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // light red
	case b >= 2*GB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // orange
	case b >= 1*GB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("226")) // yellow
	case b >= 256*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("46")) // green
	case b >= 64*MB:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("250")) // light gray
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // dark gray
	}
}

func (m *model) startDeletion() (tea.Model, tea.Cmd) {
	m.st = statusDeleting
	m.sp = spinner.New()
	m.sp.Spinner = spinner.Dot
	m.delCompleted = 0
	targets := m.selectedEntries()
	m.delTotal = len(targets)
	ch := make(chan tea.Msg)
	m.delCh = ch

	ctx, cancel := context.WithCancel(context.Background())
	m.delCancel = cancel

	go func() {
		pch := make(chan deleter.Progress, 16)
		done := make(chan deleter.Summary, 1)
		go func() {
			done <- m.lifecycle.DeleteAll(ctx, targets, m.opts.Concurrency, pch)
		}()
		for {
			select {
			case p := <-pch:
				ch <- delProgressMsg{completed: p.Completed, total: p.Total, path: p.Path, err: p.Err}
			case sum := <-done:
				ch <- delDoneMsg{summary: sum}
				close(ch)
				return
			}
		}
	}()

	return m, tea.Batch(m.sp.Tick, m.waitDeleteMsg())
}

func (m *model) waitDeleteMsg() tea.Cmd {
	if m.delCh == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-m.delCh
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *model) selectedCount() int {
	c := 0
	for _, it := range m.items {
		if it.sel {
			c++
		}
	}
	return c
}

func (m *model) selectedEntries() []*scanner.FileEntry {
	var out []*scanner.FileEntry
	for _, it := range m.items {
		if it.sel {
			out = append(out, it.entry)
		}
	}
	return out
}

// removeDeleted drops entries the lifecycle marked Deleted from the list.
func (m *model) removeDeleted() {
	kept := m.items[:0]
	for _, it := range m.items {
		if it.entry.DeleteStatus == scanner.Deleted {
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	if m.cursor >= len(m.items) && len(m.items) > 0 {
		m.cursor = len(m.items) - 1
	}
}
