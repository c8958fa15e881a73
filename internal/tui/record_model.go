package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/bitelog/internal/parser"
	"github.com/balkashynov/bitelog/internal/session"
)

const snapshotInterval = 100 * time.Millisecond

// RecordModel is the recording monitor. It polls the controller for its
// snapshot and maps keys onto controller operations.
type RecordModel struct {
	width  int
	height int

	ctrl         *session.Controller
	toggleMotion func() // simulated hardware only, may be nil

	spinner spinner.Model
	snap    session.Snapshot

	// Elapsed time of the session on screen
	sessionName string
	startedAt   time.Time
	elapsed     time.Duration

	lastAlert string
	err       error
	saved     []string
	quitting  bool
}

// snapshotTickMsg triggers a refresh of the controller snapshot
type snapshotTickMsg time.Time

// NewRecordModel creates a monitor for ctrl.
func NewRecordModel(ctrl *session.Controller, toggleMotion func()) RecordModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRecording))

	return RecordModel{
		ctrl:         ctrl,
		toggleMotion: toggleMotion,
		spinner:      s,
		snap:         ctrl.Snapshot(),
	}
}

func snapshotTick() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return snapshotTickMsg(t)
	})
}

// Init starts the spinner and the snapshot ticker
func (m RecordModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, snapshotTick())
}

// Update handles messages
func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotTickMsg:
		m = m.refresh(time.Time(msg))
		if m.quitting {
			return m, nil
		}
		return m, snapshotTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m RecordModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch msg.String() {
	case "r", "R":
		var err error
		if m.snap.Phase == session.PhaseResumable {
			_, err = m.ctrl.Resume()
		} else if m.snap.Phase != session.PhaseRecording {
			_, err = m.ctrl.Start()
		}
		m.err = err

	case "s", "S":
		m.ctrl.Stop(nil)

	case "x":
		if m.snap.Phase == session.PhasePaused || m.snap.Phase == session.PhaseResumable {
			m.ctrl.Discard()
		}

	case "c":
		if m.snap.Phase != session.PhaseRecording {
			m.ctrl.SetCategory(parser.NextCategory(m.ctrl.Category()))
		}

	case "d":
		if m.toggleMotion != nil {
			m.toggleMotion()
		}

	case "ctrl+c", "esc", "q":
		m.quitting = true
		return m, tea.Quit
	}

	return m.refresh(time.Now()), nil
}

// refresh pulls the latest snapshot and drains pending alerts.
func (m RecordModel) refresh(now time.Time) RecordModel {
	m.snap = m.ctrl.Snapshot()

	for {
		select {
		case a := <-m.ctrl.Alerts():
			m.lastAlert = a.Message
			if a.Err != nil {
				m.lastAlert = fmt.Sprintf("%s: %v", a.Message, a.Err)
			}
			continue
		default:
		}
		break
	}

	if m.snap.Phase == session.PhaseRecording {
		if m.snap.Session != m.sessionName {
			m.sessionName = m.snap.Session
			m.startedAt = now
			m.saved = append(m.saved, m.snap.Session)
		}
		m.elapsed = now.Sub(m.startedAt)
	}
	return m
}

// Sessions returns the names of sessions started from this monitor.
func (m RecordModel) Sessions() []string {
	return m.saved
}

// View renders the monitor
func (m RecordModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	helpBar := m.renderHelpBar()
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderClockPanel(m.width, contentHeight),
			helpBar,
		)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderClockPanel(leftWidth, contentHeight),
		"  ", // Gap
		m.renderStatusPanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, helpBar)
}

// renderClockPanel renders the phase header and the elapsed clock
func (m RecordModel) renderClockPanel(width, height int) string {
	center := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)

	var header string
	clockColor := ColorAccentBright
	switch m.snap.Phase {
	case session.PhaseRecording:
		header = m.spinner.View() + " RECORDING " + m.spinner.View()
		clockColor = ColorRecording
	case session.PhasePaused:
		header = "⏸  PAUSED, WAITING FOR MOTION"
		clockColor = ColorWarning
	case session.PhaseResumable:
		header = "⏸  PAUSED, PRESS R TO RESUME"
		clockColor = ColorWarning
	default:
		header = "●  READY"
	}

	components := []string{
		center.Foreground(lipgloss.Color(clockColor)).Bold(true).Render(header),
	}

	if m.sessionName != "" {
		components = append(components,
			center.Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true).Render(m.sessionName))
	}

	var clockLines []string
	for _, line := range strings.Split(renderBigClock(m.elapsed, clockColor), "\n") {
		clockLines = append(clockLines, center.Render(line))
	}
	components = append(components, strings.Join(clockLines, "\n"))

	status := m.snap.Status
	if m.err != nil {
		status = "Error: " + m.err.Error()
	}
	components = append(components,
		center.Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true).Render(status))

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

// renderStatusPanel renders category, motion and writer details
func (m RecordModel) renderStatusPanel(width, height int) string {
	var b strings.Builder
	line := lipgloss.NewStyle().Width(width - 4)
	value := func(color, text string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(text)
	}

	cat := m.snap.Category.String()
	b.WriteString(line.Render("🏷️  Category: " + value(categoryColor(cat), cat)))
	b.WriteString("\n")

	motionText, motionColor := "disconnected", ColorRecording
	if m.snap.Available {
		motionText, motionColor = "connected", ColorSuccess
	}
	b.WriteString(line.Render("🎧 Motion: " + value(motionColor, motionText)))
	b.WriteString("\n")

	a := m.snap.Accel
	accel := fmt.Sprintf("%+.3f %+.3f %+.3f", a.X, a.Y, a.Z)
	b.WriteString(line.Render("📈 Accel: " + value(ColorPrimaryText, accel)))
	b.WriteString("\n")

	frames := fmt.Sprintf("%d written, %d dropped", m.snap.Frames, m.snap.Dropped)
	framesColor := ColorPrimaryText
	if m.snap.Dropped > 0 {
		framesColor = ColorWarning
	}
	b.WriteString(line.Render("🎞️  Frames: " + value(framesColor, frames)))
	b.WriteString("\n")

	if m.lastAlert != "" {
		b.WriteString("\n")
		b.WriteString(line.Render("⚠️  " + value(ColorWarning, m.lastAlert)))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 1).
		Render(b.String())
}

// renderHelpBar renders the help bar at the bottom
func (m RecordModel) renderHelpBar() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHelpText)).
		Italic(true).
		Align(lipgloss.Center).
		Width(m.width)

	parts := []string{"r record/resume", "s stop", "c category", "x discard pause"}
	if m.toggleMotion != nil {
		parts = append(parts, "d toggle motion")
	}
	parts = append(parts, "q quit")
	return helpStyle.Render(strings.Join(parts, " · "))
}
