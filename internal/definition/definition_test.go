package definition

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muurk/formstate/internal/events"
)

func loadSignup(t *testing.T) *Definition {
	t.Helper()
	def, err := Load(filepath.Join("testdata", "signup.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return def
}

func TestLoad(t *testing.T) {
	def := loadSignup(t)

	if def.Name != "signup" {
		t.Errorf("Name = %q, want signup", def.Name)
	}
	if len(def.Fields) != 7 {
		t.Errorf("len(Fields) = %d, want 7", len(def.Fields))
	}
	if def.StepCount() != 3 {
		t.Errorf("StepCount() = %d, want 3", def.StepCount())
	}
	if def.StepTitle(1) != "Address" {
		t.Errorf("StepTitle(1) = %q", def.StepTitle(1))
	}
	if def.StepTitle(9) != "" {
		t.Errorf("StepTitle(9) = %q, want empty", def.StepTitle(9))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestInitialValues(t *testing.T) {
	def := loadSignup(t)
	v := def.InitialValues()

	if v["name"] != "" {
		t.Errorf("name = %v, want empty string", v["name"])
	}
	addr, ok := v["address"].(map[string]any)
	if !ok {
		t.Fatalf("address = %T, want nested map", v["address"])
	}
	if addr["city"] != "" || addr["zip"] != "0150" {
		t.Errorf("address = %v", addr)
	}
	if v["plan"] != "free" {
		t.Errorf("plan = %v, want first option", v["plan"])
	}
	if v["newsletter"] != false {
		t.Errorf("newsletter = %v, want false", v["newsletter"])
	}
	if len(v) != 6 {
		t.Errorf("top-level keys = %d, want 6", len(v))
	}
}

func TestStepFields(t *testing.T) {
	def := loadSignup(t)

	keys := def.StepKeys(1)
	if len(keys) != 2 || keys[0] != "address.city" || keys[1] != "address.zip" {
		t.Errorf("StepKeys(1) = %v", keys)
	}
	if def.StepFields(5) != nil {
		t.Error("out-of-range step should have no fields")
	}
}

func TestStepFieldsWithoutSteps(t *testing.T) {
	def, err := Parse([]byte("version: 1\nname: x\nfields:\n  - key: a\n  - key: b\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if def.StepCount() != 1 {
		t.Errorf("StepCount() = %d, want 1", def.StepCount())
	}
	if len(def.StepFields(0)) != 2 {
		t.Errorf("step 0 should hold every field")
	}
	if def.StepFields(1) != nil {
		t.Error("step 1 should be empty")
	}
}

func TestControllerFromDefinition(t *testing.T) {
	def := loadSignup(t)
	bus := events.NewBus()

	c, err := def.NewController(bus)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	if c.Name() != "signup" {
		t.Errorf("Name() = %q", c.Name())
	}

	c.SetValue("name", "Ann")
	c.SetValue("phoneNumber", "abc")
	if !c.IsFieldValid("name") {
		t.Error("name should be valid")
	}
	if c.IsFieldValid("phoneNumber") {
		t.Error("phoneNumber should be invalid")
	}

	// address is valid only when both nested rules pass
	c.SetValue("address.city", "Paris")
	if !c.IsFieldValid("address") {
		t.Errorf("address should be valid, errors = %v", c.Errors())
	}
	c.SetValue("address.zip", "x")
	if c.IsFieldValid("address") {
		t.Error("bad zip should invalidate address")
	}

	c.SetValue("plan", "gold")
	if c.IsFieldValid("plan") {
		t.Error("plan outside options should be invalid")
	}

	bus.Publish(events.Event{Kind: events.KindFocusOut, Name: "address.zip"})
	if !c.IsFieldTouched("address") {
		t.Error("focus on address.zip should touch address")
	}
}

func TestValidateOnInitFromYAML(t *testing.T) {
	def, err := Parse([]byte("version: 1\nname: x\nvalidate_on_init: true\nfields:\n  - key: a\n    required: true\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	c, err := def.NewController(nil)
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	if c.IsFieldValid("a") {
		t.Error("a should start invalid")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{"bad version", "version: 2\nname: x\nfields:\n  - key: a\n", "unsupported version"},
		{"no name", "version: 1\nfields:\n  - key: a\n", "form name is required"},
		{"no fields", "version: 1\nname: x\n", "at least one field"},
		{"missing key", "version: 1\nname: x\nfields:\n  - label: A\n", "field key is required"},
		{"bad key", "version: 1\nname: x\nfields:\n  - key: 'a[x]'\n", "invalid key"},
		{"duplicate", "version: 1\nname: x\nfields:\n  - key: a\n  - key: a\n", "duplicate field key"},
		{"overlap", "version: 1\nname: x\nfields:\n  - key: a\n  - key: a.b\n", "conflicts with nested field"},
		{"unknown type", "version: 1\nname: x\nfields:\n  - key: a\n    type: date\n", "unknown type"},
		{"choice without options", "version: 1\nname: x\nfields:\n  - key: a\n    type: choice\n", "needs options"},
		{"bad rule", "version: 1\nname: x\nfields:\n  - key: a\n    rules: bogus\n", "invalid rule"},
		{"bad pattern", "version: 1\nname: x\nfields:\n  - key: a\n    pattern: '('\n", "invalid pattern"},
		{"unknown step field", "version: 1\nname: x\nfields:\n  - key: a\nsteps:\n  - title: s\n    fields: [b]\n", "unknown field b"},
		{"field in two steps", "version: 1\nname: x\nfields:\n  - key: a\nsteps:\n  - title: s\n    fields: [a]\n  - title: t\n    fields: [a]\n", "already placed"},
		{"empty step", "version: 1\nname: x\nfields:\n  - key: a\nsteps:\n  - title: s\n", "step has no fields"},
		{"initial step out of range", "version: 1\nname: x\ninitial_step: 3\nfields:\n  - key: a\nsteps:\n  - title: s\n    fields: [a]\n", "initial_step"},
		{"initial step without steps", "version: 1\nname: x\ninitial_step: 1\nfields:\n  - key: a\n", "initial_step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %T, want *InvalidError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.wantMsg)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Error("individual errors should be *ValidationError")
			}
		})
	}
}

func TestParseBadYAML(t *testing.T) {
	_, err := Parse([]byte("version: [1"))
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("error = %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "No validation errors" {
		t.Errorf("FormatValidationErrors(nil) = %q", got)
	}
	got := FormatValidationErrors([]error{
		&ValidationError{Field: "a", Message: "bad"},
		&ValidationError{Message: "worse"},
	})
	if !strings.Contains(got, "2 error(s)") || !strings.Contains(got, "1. a: bad") || !strings.Contains(got, "2. worse") {
		t.Errorf("FormatValidationErrors() = %q", got)
	}
}

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		key     string
		value   any
		wantErr bool
	}{
		{"name=Ann", "name", "Ann", false},
		{"address.city=Paris", "address.city", "Paris", false},
		{"newsletter=true", "newsletter", true, false},
		{"age=42", "age", 42, false},
		{"phone=+1 555 1234", "phone", "+1 555 1234", false},
		{"empty=", "empty", "", false},
		{"note=a: b: c", "note", "a: b: c", false},
		{"noequals", "", nil, true},
		{"=value", "", nil, true},
		{"a[x]=1", "", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, value, err := ParseAssignment(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAssignment(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if key != tt.key || value != tt.value {
				t.Errorf("ParseAssignment(%q) = %q, %v (%T); want %q, %v", tt.in, key, value, value, tt.key, tt.value)
			}
		})
	}
}

func TestFieldValid(t *testing.T) {
	def := loadSignup(t)
	city, _ := def.Field("address.city")
	zip, _ := def.Field("address.zip")

	values := def.InitialValues()
	if city.Valid(values) {
		t.Error("empty city should be invalid")
	}
	if !zip.Valid(values) {
		t.Error("default zip should be valid on its own")
	}

	plain := Field{Key: "note"}
	if !plain.Valid(values) {
		t.Error("a field without rules is always valid")
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		field Field
		in    string
		want  any
	}{
		{Field{Type: TypeBool}, "yes", true},
		{Field{Type: TypeBool}, "", false},
		{Field{Type: TypeBool}, "maybe", "maybe"},
		{Field{Type: TypeNumber}, "42", 42},
		{Field{Type: TypeNumber}, "1.5", 1.5},
		{Field{Type: TypeNumber}, "abc", "abc"},
		{Field{}, "42", "42"},
	}
	for _, tt := range tests {
		if got := tt.field.Coerce(tt.in); got != tt.want {
			t.Errorf("Coerce(%q) as %s = %v (%T), want %v", tt.in, tt.field.FieldType(), got, got, tt.want)
		}
	}
}

func TestShippedForms(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("..", "..", "forms", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Skip("no shipped forms")
	}
	for _, m := range matches {
		if _, err := os.Stat(m); err != nil {
			continue
		}
		if _, err := Load(m); err != nil {
			t.Errorf("shipped form %s does not load: %v", m, err)
		}
	}
}
