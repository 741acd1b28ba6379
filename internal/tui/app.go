package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/mactile/internal/config"
	"github.com/1broseidon/mactile/internal/ipc"
)

// refreshInterval is how often the inspector polls the daemon.
const refreshInterval = time.Second

// refreshTickMsg schedules the next daemon poll.
type refreshTickMsg struct{}

// refreshMsg carries one round of daemon state.
type refreshMsg struct {
	status  *ipc.StatusData
	windows *ipc.WindowsData
	frames  *ipc.FramesData
	metrics *ipc.MetricsData
	events  *ipc.EventsData
	err     error
}

// model is the root bubbletea model for the inspector.
type model struct {
	client *ipc.Client
	result *config.LoadResult

	// Tab navigation
	activeTab Tab

	// Sub-models
	windowsTab  WindowsTab
	eventsTab   EventsTab
	metricsTab  MetricsTab
	settingsTab SettingsTab

	// Save overlay
	originalConfig *config.Config
	saveOverlay    SaveOverlay

	// Daemon state
	daemonConnected bool
	status          *ipc.StatusData

	// Terminal dimensions
	width  int
	height int
}

// Run starts the inspector. It refuses to run without a TTY.
func Run(configPath string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("inspect requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	m := newModel(configPath)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(configPath string) model {
	m := model{activeTab: TabWindows}

	// Load config. A broken config file is not fatal: the data tabs
	// still work, the settings tab shows the load error.
	var res *config.LoadResult
	var err error
	if configPath == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(configPath)
	}
	if err == nil {
		m.result = res
	}

	// Connect to daemon through the configured socket when available.
	if m.result != nil {
		if sock, serr := m.result.Config.SocketPath(); serr == nil {
			m.client = ipc.NewClientWithSocket(sock)
		}
	}
	if m.client == nil {
		if client, cerr := ipc.NewClient(); cerr == nil {
			m.client = client
		}
	}

	// Snapshot original config for diff preview on save
	var cfg *config.Config
	if m.result != nil {
		cfg = m.result.Config
		m.originalConfig = cloneConfig(cfg)
	}

	m.windowsTab = NewWindowsTab()
	m.eventsTab = NewEventsTab()
	m.metricsTab = NewMetricsTab()
	m.settingsTab = NewSettingsTab(cfg, err)

	return m
}

// refreshCmd polls the daemon for one round of inspector data.
func refreshCmd(client *ipc.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return refreshMsg{err: fmt.Errorf("no daemon client")}
		}
		status, err := client.Status()
		if err != nil {
			return refreshMsg{err: err}
		}
		msg := refreshMsg{status: status}
		msg.windows, _ = client.Windows()
		msg.frames, _ = client.Frames()
		msg.metrics, _ = client.Metrics()
		msg.events, _ = client.Events(eventLogLimit)
		return msg
	}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (1)
	h := m.height - 4
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return refreshCmd(m.client)
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Polling messages are handled regardless of overlay/edit state so
	// the inspector stays live.
	switch msg := msg.(type) {
	case refreshTickMsg:
		return m, refreshCmd(m.client)

	case refreshMsg:
		m.applyRefresh(msg)
		return m, scheduleRefresh()
	}

	// Save overlay captures all input when active
	if m.saveOverlay.Active() {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			prevPhase := m.saveOverlay.phase
			m.saveOverlay = m.saveOverlay.Update(msg, m.currentConfig(), m.client, m.daemonConnected)
			// After successful save, update the original snapshot
			if prevPhase == savePreview && m.saveOverlay.SaveSucceeded() {
				m.originalConfig = cloneConfig(m.currentConfig())
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
		}
		return m, nil
	}

	// ctrl+s triggers the save overlay from any context
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+s" {
		if cfg := m.currentConfig(); cfg != nil {
			m.saveOverlay.Show(m.originalConfig, cfg)
		}
		return m, nil
	}

	// The settings form consumes keys while editing; only ctrl+c
	// escapes to quit.
	if m.activeTab == TabSettings && m.settingsTab.editing {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
			m.forwardSize()
			return m, nil
		}
		var cmd tea.Cmd
		m.settingsTab, cmd = m.settingsTab.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil

		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil

		case "1":
			m.activeTab = TabWindows
			return m, nil
		case "2":
			m.activeTab = TabEvents
			return m, nil
		case "3":
			m.activeTab = TabMetrics
			return m, nil
		case "4":
			m.activeTab = TabSettings
			return m, nil

		case "r":
			return m, refreshCmd(m.client)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.forwardSize()
		return m, nil
	}

	// Delegate to active tab's sub-model
	var cmd tea.Cmd
	switch m.activeTab {
	case TabWindows:
		m.windowsTab, cmd = m.windowsTab.Update(msg)
	case TabEvents:
		m.eventsTab, cmd = m.eventsTab.Update(msg)
	case TabMetrics:
		m.metricsTab, cmd = m.metricsTab.Update(msg)
	case TabSettings:
		m.settingsTab, cmd = m.settingsTab.Update(msg)
	}
	return m, cmd
}

func (m *model) applyRefresh(msg refreshMsg) {
	if msg.err != nil {
		m.daemonConnected = false
		m.status = nil
		return
	}
	m.daemonConnected = true
	m.status = msg.status
	m.windowsTab.SetData(msg.windows, msg.frames)
	m.eventsTab.SetEvents(msg.events)
	m.metricsTab.SetMetrics(msg.metrics)
}

func (m *model) forwardSize() {
	subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
	m.windowsTab, _ = m.windowsTab.Update(subMsg)
	m.eventsTab, _ = m.eventsTab.Update(subMsg)
	m.metricsTab, _ = m.metricsTab.Update(subMsg)
	m.settingsTab, _ = m.settingsTab.Update(subMsg)
}

func (m model) currentConfig() *config.Config {
	if m.result == nil {
		return nil
	}
	return m.result.Config
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.daemonConnected, m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)
	contentHeight := m.height - usedHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	if m.saveOverlay.Active() {
		content = m.saveOverlay.View(m.width, contentHeight)
	} else {
		switch m.activeTab {
		case TabWindows:
			content = m.windowsTab.View()
		case TabEvents:
			content = m.eventsTab.View()
		case TabMetrics:
			content = m.metricsTab.View()
		case TabSettings:
			content = m.settingsTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
