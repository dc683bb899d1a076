package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/formstate/internal/definition"
	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
)

const testForm = `version: 1
name: signup
title: Sign up
fields:
  - key: name
    label: Name
    required: true
    message: Name must be provided
  - key: phone
    label: Phone
    rules: required,phone
    message: Number is wrong format
  - key: address.city
    label: City
    required: true
  - key: plan
    type: choice
    options: [free, pro]
  - key: newsletter
    type: bool
steps:
  - title: About you
    fields: [name, phone]
  - title: Address
    fields: [address.city, plan, newsletter]
`

func newTestModel(t *testing.T, withBus bool) (FormModel, *form.Controller) {
	t.Helper()
	def, err := definition.Parse([]byte(testForm))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var bus *events.Bus
	var pub events.Publisher
	if withBus {
		bus = events.NewBus()
		pub = bus
	}

	var source events.Source
	if bus != nil {
		source = bus
	}
	ctrl, err := def.NewController(source)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	t.Cleanup(ctrl.Close)

	return NewFormModel(def, ctrl, pub), ctrl
}

func press(t *testing.T, m FormModel, k tea.KeyType) (FormModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(FormModel), cmd
}

func typeText(t *testing.T, m FormModel, s string) FormModel {
	t.Helper()
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(FormModel)
	}
	return m
}

func TestTypingPublishesInput(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	if m.FocusedKey() != "name" {
		t.Fatalf("FocusedKey() = %q, want name", m.FocusedKey())
	}

	m = typeText(t, m, "Ann")

	if v, _ := ctrl.Value("name"); v != "Ann" {
		t.Errorf("controller name = %v, want Ann", v)
	}
	if ctrl.IsFieldTouched("name") {
		t.Error("typing alone should not touch the field")
	}
	if m.Input("name") != "Ann" {
		t.Errorf("Input(name) = %q", m.Input("name"))
	}
}

func TestTabTouchesField(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	// errors are only computed once a value changes
	m = typeText(t, m, "x")
	m, _ = press(t, m, tea.KeyBackspace)

	m, _ = press(t, m, tea.KeyTab)
	if !ctrl.IsFieldTouched("name") {
		t.Error("leaving name should touch it")
	}
	if m.FocusedKey() != "phone" {
		t.Errorf("FocusedKey() = %q, want phone", m.FocusedKey())
	}
	if !strings.Contains(m.View(), "Name must be provided") {
		t.Error("touched invalid field should show its message")
	}

	m, _ = press(t, m, tea.KeyShiftTab)
	if m.FocusedKey() != "name" {
		t.Errorf("FocusedKey() after shift+tab = %q, want name", m.FocusedKey())
	}
}

func TestErrorHiddenUntilTouched(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	m = typeText(t, m, "x")
	m, _ = press(t, m, tea.KeyBackspace)

	if ctrl.IsFieldValid("name") {
		t.Fatal("empty name should be invalid")
	}
	if strings.Contains(m.View(), "Name must be provided") {
		t.Error("untouched field should not show its message")
	}
}

func TestEnterBlocksInvalidStep(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	m = typeText(t, m, "Ann")
	m, _ = press(t, m, tea.KeyEnter)

	if ctrl.CurrentStep() != 0 || m.Step() != 0 {
		t.Errorf("step = %d/%d, want 0", ctrl.CurrentStep(), m.Step())
	}
	if !ctrl.IsFieldTouched("phone") {
		t.Error("enter on an invalid step should touch every field in it")
	}
	if !strings.Contains(m.View(), "Number is wrong format") {
		t.Error("phone message should be shown")
	}
}

func TestStepNavigation(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	m = typeText(t, m, "Ann")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "+44 20 7946")
	m, _ = press(t, m, tea.KeyEnter)

	if ctrl.CurrentStep() != 1 || m.Step() != 1 {
		t.Fatalf("step = %d/%d, want 1", ctrl.CurrentStep(), m.Step())
	}
	if m.FocusedKey() != "address.city" {
		t.Errorf("FocusedKey() = %q, want address.city", m.FocusedKey())
	}

	m, _ = press(t, m, tea.KeyEsc)
	if ctrl.CurrentStep() != 0 || m.Step() != 0 {
		t.Errorf("esc should go back, step = %d/%d", ctrl.CurrentStep(), m.Step())
	}
	if m.Input("name") != "Ann" {
		t.Errorf("values should survive navigation, name = %q", m.Input("name"))
	}
}

func TestChooseOption(t *testing.T) {
	m, ctrl := newTestModel(t, true)
	ctrl.SetValue("name", "Ann")
	ctrl.SetValue("phone", "123")
	ctrl.SetStep(1)
	next, _ := m.Update(StateMsg{})
	m = next.(FormModel)

	m, _ = press(t, m, tea.KeyTab)
	if m.FocusedKey() != "plan" {
		t.Fatalf("FocusedKey() = %q, want plan", m.FocusedKey())
	}

	m, _ = press(t, m, tea.KeyRight)
	if v, _ := ctrl.Value("plan"); v != "pro" {
		t.Errorf("plan = %v, want pro", v)
	}
	m, _ = press(t, m, tea.KeyRight)
	if v, _ := ctrl.Value("plan"); v != "free" {
		t.Errorf("plan should wrap around, got %v", v)
	}

	// typing is ignored on option fields
	m = typeText(t, m, "zzz")
	if v, _ := ctrl.Value("plan"); v != "free" {
		t.Errorf("plan = %v after typing, want free", v)
	}

	m, _ = press(t, m, tea.KeyTab)
	m, _ = press(t, m, tea.KeyRight)
	if v, _ := ctrl.Value("newsletter"); v != true {
		t.Errorf("newsletter = %v (%T), want true", v, v)
	}
}

func TestReviewAndSubmit(t *testing.T) {
	m, ctrl := newTestModel(t, true)

	m = typeText(t, m, "Ann")
	m, _ = press(t, m, tea.KeyTab)
	m = typeText(t, m, "123")
	m, _ = press(t, m, tea.KeyEnter)
	m = typeText(t, m, "Paris")
	m, _ = press(t, m, tea.KeyEnter)

	if !m.InReview() {
		t.Fatalf("should be in review, step = %d", m.Step())
	}
	if ctrl.CurrentStep() != 2 {
		t.Errorf("controller step = %d, want 2", ctrl.CurrentStep())
	}
	if !strings.Contains(m.View(), "Press enter to submit") {
		t.Error("review should offer submit")
	}

	m, cmd := press(t, m, tea.KeyEnter)
	if !m.Submitted {
		t.Error("enter in review should submit")
	}
	if cmd == nil {
		t.Error("submit should quit the program")
	}
}

func TestReviewWithErrorsReturnsToStep(t *testing.T) {
	m, ctrl := newTestModel(t, false)
	ctrl.SetValue("name", "Ann")
	ctrl.SetValue("phone", "123")
	ctrl.SetValue("address.city", "Paris")
	ctrl.SetStep(2)
	next, _ := m.Update(StateMsg{})
	m = next.(FormModel)
	if !m.InReview() {
		t.Fatal("should be in review")
	}

	ctrl.SetValue("phone", "abc")
	m, _ = press(t, m, tea.KeyEnter)

	if m.Submitted {
		t.Error("form with errors should not submit")
	}
	if m.Step() != 0 {
		t.Errorf("step = %d, want first invalid step 0", m.Step())
	}

	ctrl.SetValue("phone", "123")
	ctrl.SetStep(2)
	next, _ = m.Update(StateMsg{})
	m = next.(FormModel)
	m, _ = press(t, m, tea.KeyEsc)
	if m.Step() != 1 {
		t.Errorf("esc in review should return to last step, got %d", m.Step())
	}
}

func TestSyncLeavesFocusedInputAlone(t *testing.T) {
	m, ctrl := newTestModel(t, true)
	m = typeText(t, m, "An")

	ctrl.SetValue("name", "Bob")
	ctrl.SetValue("phone", "555")
	next, _ := m.Update(StateMsg{State: ctrl.Snapshot()})
	m = next.(FormModel)

	if m.Input("name") != "An" {
		t.Errorf("focused input overwritten: %q", m.Input("name"))
	}
	if m.Input("phone") != "555" {
		t.Errorf("Input(phone) = %q, want 555", m.Input("phone"))
	}
}

func TestStaleStateMsgIgnored(t *testing.T) {
	m, ctrl := newTestModel(t, false)

	ctrl.SetValue("name", "Ann")
	old := ctrl.Snapshot()
	ctrl.SetStep(1)
	next, _ := m.Update(StateMsg{State: ctrl.Snapshot()})
	m = next.(FormModel)
	if m.Step() != 1 {
		t.Fatalf("step = %d, want 1", m.Step())
	}

	ctrl.SetStep(0)
	next, _ = m.Update(StateMsg{State: old})
	m = next.(FormModel)
	if m.Step() != 1 {
		t.Errorf("older snapshot resynced the model: step = %d, want 1", m.Step())
	}

	next, _ = m.Update(StateMsg{State: ctrl.Snapshot()})
	m = next.(FormModel)
	if m.Step() != 0 {
		t.Errorf("step = %d, want 0 after newest snapshot", m.Step())
	}
}

func TestNilPublisherDrivesController(t *testing.T) {
	m, ctrl := newTestModel(t, false)

	m = typeText(t, m, "Ann")
	m, _ = press(t, m, tea.KeyTab)

	if v, _ := ctrl.Value("name"); v != "Ann" {
		t.Errorf("name = %v, want Ann", v)
	}
	if !ctrl.IsFieldTouched("name") {
		t.Error("name should be touched")
	}
	_ = m
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, true)

	m, cmd := press(t, m, tea.KeyCtrlC)
	if !m.Quit || cmd == nil {
		t.Error("ctrl+c should quit")
	}
	if m.View() != "" {
		t.Error("view should be empty after quitting")
	}

	m2, _ := newTestModel(t, true)
	m2, cmd = press(t, m2, tea.KeyEsc)
	if !m2.Quit || cmd == nil {
		t.Error("esc on the first step should quit")
	}
}

func TestWindowResize(t *testing.T) {
	m, _ := newTestModel(t, true)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 90, Height: 40})
	m = next.(FormModel)
	if m.Width != 90 || m.Height != 40 {
		t.Errorf("size = %dx%d", m.Width, m.Height)
	}
}
