package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/path"
)

// StateMsg tells the model that the controller changed outside of a key
// press, e.g. through the event bridge. Messages may arrive out of order;
// one older than the last seen revision is ignored.
type StateMsg struct {
	State form.State
}

// FormModel renders one step of a form at a time. Edits are reported as raw
// events on the publisher; the controller subscribed to the same source keeps
// the state, and the model reads everything back from the controller.
type FormModel struct {
	def  *definition.Definition
	ctrl *form.Controller
	pub  events.Publisher

	inputs   map[string]textinput.Model
	step     int
	cursor   int
	revision uint64

	// Submitted is set when the user confirms the review screen
	Submitted bool
	// Quit is set when the user leaves without submitting
	Quit bool

	Width  int
	Height int

	Help     help.Model
	Keys     formKeyMap
	progress *Progress
}

// NewFormModel creates a model for def backed by ctrl. When pub is nil the
// model calls the controller directly instead of publishing events.
func NewFormModel(def *definition.Definition, ctrl *form.Controller, pub events.Publisher) FormModel {
	inputs := make(map[string]textinput.Model, len(def.Fields))
	for _, f := range def.Fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 256
		ti.Width = 40
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		switch f.FieldType() {
		case definition.TypeNumber:
			ti.Placeholder = "0"
		case definition.TypeBool:
			ti.Placeholder = "false"
		}
		v, _ := ctrl.Value(f.Key)
		ti.SetValue(valueText(v))
		inputs[f.Key] = ti
	}

	titles := make([]string, def.StepCount())
	for i := range titles {
		titles[i] = def.StepTitle(i)
	}

	width, height := GetTerminalSize()
	m := FormModel{
		def:      def,
		ctrl:     ctrl,
		pub:      pub,
		inputs:   inputs,
		step:     ctrl.CurrentStep(),
		Width:    width,
		Height:   height,
		Help:     help.New(),
		Keys:     newFormKeyMap(),
		progress: NewProgress(titles),
	}
	m.focus()
	return m
}

// Init implements tea.Model
func (m FormModel) Init() tea.Cmd {
	return textinput.Blink
}

// Step returns the step being shown.
func (m FormModel) Step() int {
	return m.step
}

// InReview reports whether the model is past the last step.
func (m FormModel) InReview() bool {
	return m.step >= m.def.StepCount()
}

// Input returns the text currently in the input for key.
func (m FormModel) Input(key string) string {
	return m.inputs[key].Value()
}

// FocusedKey returns the key of the focused field, or "" in review.
func (m FormModel) FocusedKey() string {
	if f, ok := m.currentField(); ok {
		return f.Key
	}
	return ""
}

// Update implements tea.Model
func (m FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.progress.SetWidth(clampWidth(msg.Width))
		return m, nil

	case StateMsg:
		if msg.State.Revision < m.revision {
			return m, nil
		}
		m.revision = msg.State.Revision
		cmd := m.sync()
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.Keys.Quit) {
			m.Quit = true
			return m, tea.Quit
		}
		if m.InReview() {
			return m.updateReview(msg)
		}
		return m.updateStep(msg)
	}

	return m.updateInput(msg)
}

func (m FormModel) updateStep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := m.fields()

	switch {
	case key.Matches(msg, m.Keys.Next):
		m.leaveField()
		if len(fields) > 0 {
			m.cursor = (m.cursor + 1) % len(fields)
		}
		cmd := m.focus()
		return m, cmd

	case key.Matches(msg, m.Keys.Prev):
		m.leaveField()
		if len(fields) > 0 {
			m.cursor = (m.cursor - 1 + len(fields)) % len(fields)
		}
		cmd := m.focus()
		return m, cmd

	case key.Matches(msg, m.Keys.Enter):
		m.leaveField()
		keys := m.def.StepKeys(m.step)
		if !m.ctrl.FieldsValid(keys...) {
			// Touch the whole step so every problem is shown at once.
			for _, k := range keys {
				m.touch(k)
			}
			return m, nil
		}
		m.ctrl.NextStep()
		cmd := m.sync()
		return m, cmd

	case key.Matches(msg, m.Keys.Back):
		m.leaveField()
		if m.step == 0 {
			m.Quit = true
			return m, tea.Quit
		}
		m.ctrl.SetStep(m.step - 1)
		cmd := m.sync()
		return m, cmd

	case key.Matches(msg, m.Keys.Choose):
		if f, ok := m.currentField(); ok && hasOptions(f) {
			dir := 1
			if msg.String() == "left" {
				dir = -1
			}
			m.choose(f, dir)
			return m, nil
		}
	}

	return m.updateInput(msg)
}

func (m FormModel) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Enter):
		if m.ctrl.HasFormFieldError() {
			m.ctrl.SetStep(m.firstInvalidStep())
			cmd := m.sync()
			return m, cmd
		}
		m.Submitted = true
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Back):
		m.ctrl.SetStep(m.def.StepCount() - 1)
		cmd := m.sync()
		return m, cmd
	}
	return m, nil
}

// updateInput forwards msg to the focused input and reports a changed value.
func (m FormModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, ok := m.currentField()
	if !ok {
		return m, nil
	}
	if _, isKey := msg.(tea.KeyMsg); isKey && hasOptions(f) {
		// Option fields only change through Choose.
		return m, nil
	}

	ti := m.inputs[f.Key]
	before := ti.Value()
	ti, cmd := ti.Update(msg)
	m.inputs[f.Key] = ti

	if after := ti.Value(); after != before {
		m.edit(f, events.KindInput, f.Coerce(after))
	}
	return m, cmd
}

// choose cycles an option field and reports it like a click on a radio input.
func (m FormModel) choose(f definition.Field, dir int) {
	options := fieldOptions(f)
	current := m.inputs[f.Key].Value()
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(options)) % len(options)

	ti := m.inputs[f.Key]
	ti.SetValue(options[idx])
	m.inputs[f.Key] = ti
	m.edit(f, events.KindClick, f.Coerce(options[idx]))
}

func (m FormModel) edit(f definition.Field, kind events.Kind, value any) {
	if m.pub == nil {
		m.ctrl.SetValue(f.Key, value)
		return
	}
	m.pub.Publish(events.Event{Kind: kind, Name: f.Key, Value: value, Target: events.TargetInput})
}

func (m FormModel) touch(k string) {
	if m.pub == nil {
		m.ctrl.Touch(k)
		return
	}
	m.pub.Publish(events.Event{Kind: events.KindFocusOut, Name: k})
}

// leaveField reports focus loss for the focused field.
func (m FormModel) leaveField() {
	if f, ok := m.currentField(); ok {
		m.touch(f.Key)
	}
}

// sync pulls the step and values from the controller. The focused input is
// left alone while its step is shown so typing is never overwritten.
func (m *FormModel) sync() tea.Cmd {
	stepChanged := false
	if step := m.ctrl.CurrentStep(); step != m.step {
		m.step = step
		m.cursor = 0
		stepChanged = true
	}

	focused := ""
	if !stepChanged {
		focused = m.FocusedKey()
	}
	for _, f := range m.def.Fields {
		if f.Key == focused {
			continue
		}
		v, _ := m.ctrl.Value(f.Key)
		if text := valueText(v); text != m.inputs[f.Key].Value() {
			ti := m.inputs[f.Key]
			ti.SetValue(text)
			m.inputs[f.Key] = ti
		}
	}

	if stepChanged {
		return m.focus()
	}
	return nil
}

// focus focuses the input under the cursor and blurs the rest.
func (m *FormModel) focus() tea.Cmd {
	for k, ti := range m.inputs {
		ti.Blur()
		m.inputs[k] = ti
	}
	f, ok := m.currentField()
	if !ok {
		return nil
	}
	ti := m.inputs[f.Key]
	cmd := ti.Focus()
	m.inputs[f.Key] = ti
	return cmd
}

func (m FormModel) fields() []definition.Field {
	return m.def.StepFields(m.step)
}

func (m FormModel) currentField() (definition.Field, bool) {
	fields := m.fields()
	if m.cursor < 0 || m.cursor >= len(fields) {
		return definition.Field{}, false
	}
	return fields[m.cursor], true
}

func (m FormModel) firstInvalidStep() int {
	for i := 0; i < m.def.StepCount(); i++ {
		if !m.ctrl.FieldsValid(m.def.StepKeys(i)...) {
			return i
		}
	}
	return 0
}

// showError reports whether f's message should be shown: its top-level key
// must be touched and in error.
func (m FormModel) showError(f definition.Field) bool {
	if !m.ctrl.IsFieldTouched(path.Top(f.Key)) {
		return false
	}
	return fieldInvalid(f, m.ctrl.Snapshot())
}

func hasOptions(f definition.Field) bool {
	switch f.FieldType() {
	case definition.TypeChoice, definition.TypeBool:
		return true
	}
	return false
}

func fieldOptions(f definition.Field) []string {
	if f.FieldType() == definition.TypeBool {
		return []string{"false", "true"}
	}
	return f.Options
}

// View implements tea.Model
func (m FormModel) View() string {
	if m.Quit || m.Submitted {
		return ""
	}
	return RenderApplicationContainer(m.renderContent(), m.Help.View(m.Keys), m.Width, m.Height)
}

func (m FormModel) renderContent() string {
	var b strings.Builder

	title := m.def.Title
	if title == "" {
		title = m.def.Name
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	m.progress.Update(m.step, func(i int) bool {
		return m.ctrl.FieldsValid(m.def.StepKeys(i)...)
	})
	b.WriteString(m.progress.Render())
	b.WriteString("\n\n")

	if m.InReview() {
		b.WriteString(m.renderReview())
		return b.String()
	}

	if st := m.def.StepTitle(m.step); st != "" {
		b.WriteString(SubtitleStyle.Render(st))
		b.WriteString("\n\n")
	}

	for i, f := range m.fields() {
		b.WriteString(m.renderField(i, f))
		b.WriteString("\n")
	}
	return b.String()
}

func (m FormModel) renderField(i int, f definition.Field) string {
	var lines []string

	label := f.DisplayLabel()
	if f.Required {
		label += " *"
	}
	if i == m.cursor {
		lines = append(lines, FocusedLabelStyle.Render(CursorMarker+" "+label))
	} else {
		lines = append(lines, LabelStyle.Render(label))
	}

	lines = append(lines, "    "+m.inputs[f.Key].View())

	if hasOptions(f) && i == m.cursor {
		lines = append(lines, HintStyle.Render("←/→  "+strings.Join(fieldOptions(f), " / ")))
	}
	if m.showError(f) {
		lines = append(lines, FieldErrorStyle.Render(FailureMarker+" "+f.ErrorMessage()))
	}
	return strings.Join(lines, "\n")
}

func (m FormModel) renderReview() string {
	var b strings.Builder
	b.WriteString(RenderSnapshot(m.def, m.ctrl.Snapshot(), m.Width-4))
	b.WriteString("\n\n")
	if m.ctrl.HasFormFieldError() {
		b.WriteString(ErrorMessageStyle.Render(fmt.Sprintf("%s Press enter to fix step %d", FailureMarker, m.firstInvalidStep()+1)))
	} else {
		b.WriteString(SuccessTitleStyle.Render(SuccessMarker + " Press enter to submit"))
	}
	return b.String()
}
