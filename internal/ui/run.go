package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/logging"
)

// Result is what the user did with an interactive form.
type Result struct {
	Submitted bool
	State     form.State
}

// Run shows def in the terminal until the user submits or quits. Edits are
// published on pub; ctrl must be subscribed to the same source (or pub may be
// nil to drive ctrl directly). Changes made to ctrl from elsewhere, such as the
// event bridge, are reflected on screen.
func Run(def *definition.Definition, ctrl *form.Controller, pub events.Publisher, opts ...tea.ProgramOption) (Result, error) {
	model := NewFormModel(def, ctrl, pub)

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(model, opts...)

	// Watchers may fire from inside Update; Send must not block the event loop.
	cancel := ctrl.Watch(func(s form.State) {
		go p.Send(StateMsg{State: s})
	})
	defer cancel()

	final, err := p.Run()
	if err != nil {
		return Result{}, fmt.Errorf("terminal UI failed: %w", err)
	}

	res := Result{State: ctrl.Snapshot()}
	if fm, ok := final.(FormModel); ok {
		res.Submitted = fm.Submitted
	}

	logging.Info("Form session ended",
		zap.String("form", def.Name),
		zap.Bool("submitted", res.Submitted),
		zap.Int("step", res.State.Step),
	)
	return res, nil
}
