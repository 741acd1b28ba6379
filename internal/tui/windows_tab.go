package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/mactile/internal/ipc"
)

// windowItem implements list.Item for one tracked window.
type windowItem struct {
	win   ipc.WindowData
	frame *ipc.FrameData
}

func (i windowItem) Title() string {
	prefix := "  "
	if i.win.Focused {
		prefix = "* "
	}
	title := i.win.Title
	if title == "" {
		title = "(untitled)"
	}
	return prefix + i.win.App + ": " + title
}

func (i windowItem) Description() string {
	id := fmt.Sprintf("pid %d id %d", i.win.PID, i.win.ID)

	geometry := "no frame"
	if i.win.Frame != nil {
		f := i.win.Frame
		geometry = fmt.Sprintf("%.0fx%.0f at (%.0f, %.0f)", f.W, f.H, f.X, f.Y)
	}

	extra := ""
	if i.frame != nil {
		extra = fmt.Sprintf("  %s/%s display %d", i.frame.Kind, i.frame.Mode, i.frame.DisplayID)
	}
	if !i.win.OnActiveSpace {
		extra += "  off-space"
	}

	return id + "  " + geometry + extra
}

func (i windowItem) FilterValue() string { return i.win.App + " " + i.win.Title }

// WindowsTab is the sub-model for the window table tab.
type WindowsTab struct {
	list  list.Model
	empty bool

	width  int
	height int
	ready  bool
}

// NewWindowsTab creates the windows tab sub-model.
func NewWindowsTab() WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Windows (front to back)"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return WindowsTab{list: l, empty: true}
}

// SetData replaces the window rows with a fresh daemon snapshot.
func (wt *WindowsTab) SetData(wins *ipc.WindowsData, frames *ipc.FramesData) {
	if wins == nil {
		wt.empty = true
		wt.list.SetItems(nil)
		return
	}

	byKey := make(map[ipc.KeyData]*ipc.FrameData)
	if frames != nil {
		for i := range frames.Frames {
			f := &frames.Frames[i]
			byKey[ipc.KeyData{PID: f.PID, ID: f.ID}] = f
		}
	}

	items := make([]list.Item, 0, len(wins.Windows))
	for _, w := range wins.Windows {
		items = append(items, windowItem{
			win:   w,
			frame: byKey[ipc.KeyData{PID: w.PID, ID: w.ID}],
		})
	}
	wt.empty = len(items) == 0
	wt.list.SetItems(items)
}

// Init implements tea.Model.
func (wt WindowsTab) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (wt WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		wt.width = size.Width
		wt.height = size.Height
		wt.list.SetSize(size.Width, size.Height)
		wt.ready = true
		return wt, nil
	}

	var cmd tea.Cmd
	wt.list, cmd = wt.list.Update(msg)
	return wt, cmd
}

// View implements tea.Model.
func (wt WindowsTab) View() string {
	if !wt.ready || wt.empty {
		style := lipgloss.NewStyle().
			Width(wt.width).
			Height(wt.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center)
		return style.Render("no windows tracked")
	}
	return wt.list.View()
}
