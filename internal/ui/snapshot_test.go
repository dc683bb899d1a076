package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/formstate/internal/definition"
)

const snapshotForm = `version: 1
name: account
fields:
  - key: user
    label: User
    required: true
  - key: password
    label: Password
    secret: true
  - key: address.city
    label: City
    required: true
    message: City is missing
  - key: address.zip
    label: Zip
    pattern: '^[0-9]+$'
`

func TestRenderSnapshot(t *testing.T) {
	def, err := definition.Parse([]byte(snapshotForm))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ctrl, err := def.NewController(nil)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.SetValue("user", "ann")
	ctrl.SetValue("password", "hunter2")
	ctrl.SetValue("address.zip", "123")
	ctrl.Touch("user")

	out := RenderSnapshot(def, ctrl.Snapshot(), 80)

	for _, want := range []string{"account", "step 1 of 1", "User", "ann", "(touched)", secretMask, "Some fields are invalid"} {
		if !strings.Contains(out, want) {
			t.Errorf("snapshot missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hunter2") {
		t.Error("secret value should be masked")
	}

	msgs := FieldErrors(def, ctrl.Snapshot())
	if len(msgs) != 1 || msgs[0] != "address.city: City is missing" {
		t.Errorf("FieldErrors() = %v", msgs)
	}

	ctrl.SetValue("address.city", "Oslo")
	out = RenderSnapshot(def, ctrl.Snapshot(), 80)
	if !strings.Contains(out, "All fields are valid") {
		t.Errorf("valid form should say so:\n%s", out)
	}
	if len(FieldErrors(def, ctrl.Snapshot())) != 0 {
		t.Error("no field errors expected")
	}
}

func TestProgress(t *testing.T) {
	p := NewProgress([]string{"About you", "Address", ""})
	p.SetWidth(80)

	p.Update(1, func(i int) bool { return true })
	if p.Steps[0].Status != StepComplete || p.Steps[1].Status != StepRunning || p.Steps[2].Status != StepPending {
		t.Errorf("statuses = %v", p.Steps)
	}
	out := p.Render()
	if !strings.Contains(out, "[2/3]") || !strings.Contains(out, "Step 3") {
		t.Errorf("Render() = %s", out)
	}

	p.Update(3, func(i int) bool { return i != 1 })
	if p.Steps[1].Status != StepFailed {
		t.Errorf("step 2 should be failed, got %v", p.Steps[1].Status)
	}
	if p.Percent < 0.66 || p.Percent > 0.67 {
		t.Errorf("Percent = %v", p.Percent)
	}
	if !strings.Contains(p.String(), "[review]") {
		t.Error("past the last step should render as review")
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	p.PrintHeader("Check", "formctl check signup", map[string]string{"Form": "signup", "Fields": "7"})
	p.PrintSuccess("Form is valid", map[string]string{"Step": "1"})
	p.PrintError("Form has errors", errors.New("name is invalid"), []string{"Set name"})

	out := buf.String()
	for _, want := range []string{"CHECK", "formctl check signup", "Fields:", "Form is valid", "Form has errors", "name is invalid", "Set name"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Index(out, "Fields:") > strings.Index(out, "Form:") {
		t.Error("header params should be sorted")
	}
	if p.Width() != 80 {
		t.Errorf("Width() = %d", p.Width())
	}
}
