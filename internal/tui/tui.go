package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/bitelog/internal/session"
)

// RunRecordTUI runs the recording monitor until the user quits. An active
// recording is stopped and finalized before it returns.
func RunRecordTUI(ctrl *session.Controller, toggleMotion func()) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	p := tea.NewProgram(NewRecordModel(ctrl, toggleMotion), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	// Handle exit messages after TUI closes
	if res, ok := ctrl.StopAndWait(); ok {
		fmt.Printf("⏹️  Stopped recording %s\n", res.Name)
	}

	if m, ok := finalModel.(RecordModel); ok {
		for _, name := range m.Sessions() {
			fmt.Printf("✅ Session %s saved\n", name)
		}
	}
	return nil
}
