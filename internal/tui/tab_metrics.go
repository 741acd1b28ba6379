package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/mactile/internal/ipc"
)

// MetricsTab is the sub-model for the engine counters tab.
type MetricsTab struct {
	metrics *ipc.MetricsData

	width  int
	height int
}

// NewMetricsTab creates the metrics sub-model.
func NewMetricsTab() MetricsTab {
	return MetricsTab{}
}

// SetMetrics replaces the counters with a fresh daemon snapshot.
func (mt *MetricsTab) SetMetrics(metrics *ipc.MetricsData) {
	if metrics == nil {
		return
	}
	mt.metrics = metrics
}

// Init implements tea.Model.
func (mt MetricsTab) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (mt MetricsTab) Update(msg tea.Msg) (MetricsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		mt.width = size.Width
		mt.height = size.Height
	}
	return mt, nil
}

// View implements tea.Model.
func (mt MetricsTab) View() string {
	if mt.metrics == nil {
		style := lipgloss.NewStyle().
			Width(mt.width).
			Height(mt.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render("no metrics yet")
	}
	m := mt.metrics

	headStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	lines := []string{
		"",
		headStyle.Render("  Placement stages"),
		dimStyle.Render(fmt.Sprintf("  %-18s %9s %9s %11s", "stage", "attempts", "verified", "settle")),
	}
	if len(m.Stages) == 0 {
		lines = append(lines, dimStyle.Render("  (no placements yet)"))
	}
	for _, st := range m.Stages {
		lines = append(lines, fmt.Sprintf("  %-18s %9d %9d %10dms",
			st.Stage, st.Attempts, st.Verified, st.SettleMS))
	}

	lines = append(lines,
		"",
		row("Safe parks", fmt.Sprintf("%d", m.SafeParks)),
		row("Failures", fmt.Sprintf("%d", m.Failures)),
		"",
		headStyle.Render("  AX bridge"),
		row("Inflight", fmt.Sprintf("%d (peak %d)", m.AXInflight, m.AXPeak)),
		row("Stale drops", fmt.Sprintf("%d", m.AXStaleDrops)),
		row("Cache size", fmt.Sprintf("%d", m.AXCacheSize)),
		"",
		headStyle.Render("  Events"),
		row("Subscribers", fmt.Sprintf("%d", m.Subscribers)),
		row("Published", fmt.Sprintf("%d", m.Published)),
		row("Lost", fmt.Sprintf("%d", m.Lost)),
	)

	content := strings.Join(lines, "\n")
	contentStyle := lipgloss.NewStyle().
		Width(mt.width).
		Height(mt.height).
		Padding(0, 2)
	return contentStyle.Render(content)
}
