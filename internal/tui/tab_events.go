package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/mactile/internal/ipc"
)

// eventLogLimit is how many recent transitions the inspector requests.
const eventLogLimit = 100

var eventKindStyles = map[string]lipgloss.Style{
	"added":          lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	"removed":        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	"frames-changed": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	"focus-changed":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	"space-changed":  lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
}

// EventsTab is the sub-model for the event log tab.
type EventsTab struct {
	events []ipc.EventData

	// scrollBack counts lines scrolled away from the newest event.
	// Zero keeps the view pinned to the tail.
	scrollBack int

	width  int
	height int
}

// NewEventsTab creates the event log sub-model.
func NewEventsTab() EventsTab {
	return EventsTab{}
}

// SetEvents replaces the log with a fresh daemon snapshot.
func (et *EventsTab) SetEvents(events *ipc.EventsData) {
	if events == nil {
		return
	}
	et.events = events.Events
}

// Init implements tea.Model.
func (et EventsTab) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (et EventsTab) Update(msg tea.Msg) (EventsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		et.width = msg.Width
		et.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if et.scrollBack < len(et.events) {
				et.scrollBack++
			}
		case "down", "j":
			if et.scrollBack > 0 {
				et.scrollBack--
			}
		case "G", "end":
			et.scrollBack = 0
		}
	}
	return et, nil
}

// View implements tea.Model.
func (et EventsTab) View() string {
	if len(et.events) == 0 {
		style := lipgloss.NewStyle().
			Width(et.width).
			Height(et.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render("no events yet")
	}

	visible := et.height - 2
	if visible < 1 {
		visible = 1
	}

	// Window the log so the newest visible line sits scrollBack lines
	// before the tail.
	end := len(et.events) - et.scrollBack
	if end < 1 {
		end = 1
	}
	if end > len(et.events) {
		end = len(et.events)
	}
	start := end - visible
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, visible+1)
	for _, ev := range et.events[start:end] {
		lines = append(lines, et.renderEvent(ev))
	}
	if et.scrollBack > 0 {
		more := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
			Render(fmt.Sprintf("  ... %d newer (G: latest)", et.scrollBack))
		lines = append(lines, more)
	}

	content := strings.Join(lines, "\n")
	style := lipgloss.NewStyle().
		Width(et.width).
		Height(et.height).
		Padding(0, 1)
	return style.Render(content)
}

func (et EventsTab) renderEvent(ev ipc.EventData) string {
	kindStyle, ok := eventKindStyles[ev.Kind]
	if !ok {
		kindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	}

	seq := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).
		Render(fmt.Sprintf("%6d", ev.Seq))
	kind := kindStyle.Render(fmt.Sprintf("%-15s", ev.Kind))

	var subject string
	switch {
	case ev.App != "":
		subject = ev.App
		if ev.Title != "" {
			subject += ": " + ev.Title
		}
	case ev.PID != 0:
		subject = fmt.Sprintf("pid %d id %d", ev.PID, ev.ID)
	}
	if ev.Detail != "" {
		if subject != "" {
			subject += "  "
		}
		subject += ev.Detail
	}

	// seq (6) + gap (2) + kind (15) + gap (1) cells precede the subject.
	maxSubject := et.width - 2 - 24
	if maxSubject > 3 && len(subject) > maxSubject {
		subject = subject[:maxSubject-3] + "..."
	}

	return seq + "  " + kind + " " + subject
}
