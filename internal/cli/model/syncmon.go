// Package model contains the bubbletea models backing the interactive
// CLI commands.
package model

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voidtab/voidtab/internal/cli/styles"
	"github.com/voidtab/voidtab/internal/config"
	"github.com/voidtab/voidtab/internal/store"
)

// SyncMonitor displays the live sync loop state and lets the user
// trigger a manual pass.
type SyncMonitor struct {
	store   *store.Store
	theme   *styles.Theme
	spinner spinner.Model

	syncing  bool
	lastTick time.Time
	width    int
}

// NewSyncMonitor creates a monitor over a store whose scheduler is
// already started.
func NewSyncMonitor(st *store.Store, theme *styles.Theme) SyncMonitor {
	return SyncMonitor{
		store:   st,
		theme:   theme,
		spinner: styles.NewSpinner(theme),
		width:   80,
	}
}

type refreshMsg time.Time

type manualSyncDoneMsg struct{}

func refreshEvery(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Init implements tea.Model.
func (m SyncMonitor) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshEvery(time.Second))
}

func (m SyncMonitor) runManualSync() tea.Msg {
	m.store.SyncNow()
	return manualSyncDoneMsg{}
}

// Update implements tea.Model.
func (m SyncMonitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "s":
			if !m.syncing {
				m.syncing = true
				return m, m.runManualSync
			}
		}

	case manualSyncDoneMsg:
		m.syncing = false

	case refreshMsg:
		m.lastTick = time.Time(msg)
		return m, refreshEvery(time.Second)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m SyncMonitor) View() string {
	profile := m.store.Profile()

	state := m.theme.Subtle.Render("idle")
	if m.syncing {
		state = m.spinner.View() + m.theme.Normal.Render("syncing")
	} else if !m.store.SyncRunning() {
		state = m.theme.WarningStyle.Render("stopped")
	}

	lastSync := "never"
	if profile.LastSyncTime > 0 {
		lastSync = time.UnixMilli(profile.LastSyncTime).Local().Format("15:04:05")
	}

	doc := m.store.Document()
	body := fmt.Sprintf(
		"%s\n\n%s %s\n%s %s\n%s %s\n%s %d min\n%s %s\n%s %d / %d\n\n%s",
		m.theme.BoxHeader.Render("voidtab sync"),
		m.theme.Subtle.Render("State:    "), state,
		m.theme.Subtle.Render("Provider: "), m.theme.Normal.Render(string(profile.Provider)),
		m.theme.Subtle.Render("Last sync:"), m.theme.Normal.Render(lastSync),
		m.theme.Subtle.Render("Interval: "), profile.Interval(),
		m.theme.Subtle.Render("Document: "), m.theme.Normal.Render(documentSummary(doc)),
		m.theme.Subtle.Render("Revision: "), m.store.Revision(), m.store.LastUploadedRevision(),
		m.theme.HelpKey.Render("s")+m.theme.HelpDesc.Render(" sync now  ")+
			m.theme.HelpKey.Render("q")+m.theme.HelpDesc.Render(" quit"),
	)

	return m.theme.Box.Width(min(m.width-2, 60)).Render(body)
}

func documentSummary(doc *config.Document) string {
	items := 0
	for _, g := range doc.Layout {
		items += len(g.Items)
	}
	return fmt.Sprintf("%d groups, %d sites", len(doc.Layout), items)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
