package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/mactile/internal/config"
)

// SettingsTab is the sub-model for the config settings tab.
type SettingsTab struct {
	cfg     *config.Config
	loadErr error

	// Display dimensions
	width  int
	height int

	// Edit mode
	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fLogLevel   string
	fGridCols   string
	fGridRows   string
	fPollMin    string
	fPollMax    string
	fCoalesce   string
	fVerifyEps  string
	fHideCorner string
}

// NewSettingsTab creates a SettingsTab from the loaded config.
func NewSettingsTab(cfg *config.Config, loadErr error) SettingsTab {
	return SettingsTab{cfg: cfg, loadErr: loadErr}
}

// Init implements tea.Model.
func (st SettingsTab) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (st SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if st.editing {
		return st.updateEditing(msg)
	}
	return st.updateDisplay(msg)
}

func (st SettingsTab) updateDisplay(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "e" && st.cfg != nil {
			st.startEditing()
			return st, st.form.Init()
		}
	case tea.WindowSizeMsg:
		st.width = msg.Width
		st.height = msg.Height
	}
	return st, nil
}

func (st SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			st.editing = false
			st.form = nil
			return st, nil
		}
	case tea.WindowSizeMsg:
		st.width = msg.Width
		st.height = msg.Height
	}

	form, cmd := st.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		st.form = f
	}

	if st.form.State == huh.StateCompleted {
		st.applyForm()
		st.editing = false
		st.form = nil
		return st, nil
	}

	return st, cmd
}

func (st *SettingsTab) startEditing() {
	cfg := st.cfg

	st.fLogLevel = cfg.LogLevel
	st.fGridCols = strconv.Itoa(cfg.Grid.Cols)
	st.fGridRows = strconv.Itoa(cfg.Grid.Rows)
	st.fPollMin = strconv.Itoa(cfg.World.PollMinMS)
	st.fPollMax = strconv.Itoa(cfg.World.PollMaxMS)
	st.fCoalesce = strconv.Itoa(cfg.World.CoalesceMS)
	st.fVerifyEps = strconv.FormatFloat(cfg.Engine.VerifyEps, 'f', -1, 64)
	st.fHideCorner = cfg.Hide.Corner

	levelOpts := []huh.Option[string]{
		huh.NewOption("debug", "debug"),
		huh.NewOption("info", "info"),
		huh.NewOption("warn", "warn"),
		huh.NewOption("error", "error"),
	}
	cornerOpts := []huh.Option[string]{
		huh.NewOption("bottom-right", "bottom-right"),
		huh.NewOption("bottom-left", "bottom-left"),
		huh.NewOption("top-right", "top-right"),
		huh.NewOption("top-left", "top-left"),
	}

	w := st.width - 4
	if w < 40 {
		w = 40
	}

	st.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Description("Daemon log verbosity").
				Options(levelOpts...).
				Value(&st.fLogLevel),

			huh.NewInput().
				Key("grid_cols").
				Title("Grid Columns").
				Description("Default grid width for place/move").
				Value(&st.fGridCols),

			huh.NewInput().
				Key("grid_rows").
				Title("Grid Rows").
				Description("Default grid height for place/move").
				Value(&st.fGridRows),

			huh.NewSelect[string]().
				Key("hide_corner").
				Title("Hide Corner").
				Description("Screen corner hidden windows park at").
				Options(cornerOpts...).
				Value(&st.fHideCorner),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("poll_min_ms").
				Title("Poll Min (ms)").
				Description("Reconcile cadence while changes arrive").
				Value(&st.fPollMin),

			huh.NewInput().
				Key("poll_max_ms").
				Title("Poll Max (ms)").
				Description("Backoff cap on a quiet system").
				Value(&st.fPollMax),

			huh.NewInput().
				Key("coalesce_ms").
				Title("Coalesce (ms)").
				Description("Per-window debounce for frame events").
				Value(&st.fCoalesce),

			huh.NewInput().
				Key("verify_eps").
				Title("Verify Epsilon").
				Description("Placement tolerance in points").
				Value(&st.fVerifyEps),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	st.editing = true
}

func (st *SettingsTab) applyForm() {
	if st.cfg == nil {
		return
	}

	if st.fLogLevel != "" {
		st.cfg.LogLevel = st.fLogLevel
	}
	if v, err := strconv.Atoi(st.fGridCols); err == nil && v >= 1 {
		st.cfg.Grid.Cols = v
	}
	if v, err := strconv.Atoi(st.fGridRows); err == nil && v >= 1 {
		st.cfg.Grid.Rows = v
	}
	if v, err := strconv.Atoi(st.fPollMin); err == nil && v >= 1 {
		st.cfg.World.PollMinMS = v
	}
	if v, err := strconv.Atoi(st.fPollMax); err == nil && v >= 1 {
		st.cfg.World.PollMaxMS = v
	}
	if v, err := strconv.Atoi(st.fCoalesce); err == nil && v >= 0 {
		st.cfg.World.CoalesceMS = v
	}
	if v, err := strconv.ParseFloat(st.fVerifyEps, 64); err == nil && v > 0 {
		st.cfg.Engine.VerifyEps = v
	}
	if st.fHideCorner != "" {
		st.cfg.Hide.Corner = st.fHideCorner
	}
}

// View implements tea.Model.
func (st SettingsTab) View() string {
	if st.editing && st.form != nil {
		return st.viewEditing()
	}
	return st.viewDisplay()
}

func (st SettingsTab) viewDisplay() string {
	if st.cfg == nil {
		msg := "No config loaded"
		if st.loadErr != nil {
			msg = "Config failed to load:\n" + st.loadErr.Error()
		}
		style := lipgloss.NewStyle().
			Width(st.width).
			Height(st.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render(msg)
	}
	cfg := st.cfg

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

	retries := fmt.Sprintf("nudges:%d opposite:%d anchor:%d fallback:%d",
		cfg.Engine.Retries.AxisNudges, cfg.Engine.Retries.OppositeOrder,
		cfg.Engine.Retries.AnchorAttempts, cfg.Engine.Retries.FallbackRuns)

	lines := []string{
		"",
		row("Log Level", cfg.LogLevel),
		row("Socket", displayOrDefault(cfg.Socket, "(runtime default)")),
		"",
		row("Grid", fmt.Sprintf("%d x %d", cfg.Grid.Cols, cfg.Grid.Rows)),
		row("Hide Corner", cfg.Hide.Corner),
		"",
		row("Poll Min / Max", fmt.Sprintf("%dms / %dms", cfg.World.PollMinMS, cfg.World.PollMaxMS)),
		row("Coalesce", fmt.Sprintf("%dms", cfg.World.CoalesceMS)),
		row("Event Buffer", strconv.Itoa(cfg.World.EventBuffer)),
		row("AX Frontmost", strconv.FormatBool(cfg.World.GetAXFrontmost())),
		"",
		row("Verify Epsilon", strconv.FormatFloat(cfg.Engine.VerifyEps, 'f', -1, 64)),
		row("Settle Poll / Budget", fmt.Sprintf("%dms / %dms", cfg.Engine.SettlePollMS, cfg.Engine.SettleBudgetMS)),
		row("Retries", retries),
		"",
		dimStyle.Render("  Press 'e' to edit settings, ctrl-s to save"),
	}

	content := strings.Join(lines, "\n")

	contentStyle := lipgloss.NewStyle().
		Width(st.width).
		Height(st.height).
		Padding(1, 2)

	return contentStyle.Render(content)
}

func (st SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing Settings") +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	content := header + "\n\n" + st.form.View()

	style := lipgloss.NewStyle().
		Width(st.width).
		Height(st.height).
		Padding(1, 2)

	return style.Render(content)
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
