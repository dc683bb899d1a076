package definition

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/logging"
	"github.com/muurk/formstate/internal/path"
	"github.com/muurk/formstate/internal/validation"
)

// Load reads and validates a definition file.
func Load(filename string) (*Definition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read form definition: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	logging.Info("Form definition loaded",
		zap.String("file", filename),
		zap.String("form", def.Name),
		zap.Int("fields", len(def.Fields)),
		zap.Int("steps", len(def.Steps)),
	)
	return def, nil
}

// Parse decodes and validates a definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse form definition: %w", err)
	}

	if errs := def.Validate(); len(errs) > 0 {
		return nil, &InvalidError{Errors: errs}
	}
	return &def, nil
}

// Field returns the field with the given key.
func (d *Definition) Field(key string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// StepCount returns the number of steps; a definition without steps has one.
func (d *Definition) StepCount() int {
	if len(d.Steps) == 0 {
		return 1
	}
	return len(d.Steps)
}

// StepTitle returns the title of step i, or "" when out of range.
func (d *Definition) StepTitle(i int) string {
	if i < 0 || i >= len(d.Steps) {
		if len(d.Steps) == 0 && i == 0 {
			return d.Title
		}
		return ""
	}
	return d.Steps[i].Title
}

// StepFields returns the fields of step i in declaration order. Without
// steps, step 0 holds every field. Out-of-range steps have no fields.
func (d *Definition) StepFields(i int) []Field {
	if len(d.Steps) == 0 {
		if i == 0 {
			return d.Fields
		}
		return nil
	}
	if i < 0 || i >= len(d.Steps) {
		return nil
	}
	out := make([]Field, 0, len(d.Steps[i].Fields))
	for _, key := range d.Steps[i].Fields {
		if f, ok := d.Field(key); ok {
			out = append(out, f)
		}
	}
	return out
}

// StepKeys returns the keys of step i's fields.
func (d *Definition) StepKeys(i int) []string {
	fields := d.StepFields(i)
	keys := make([]string, len(fields))
	for j, f := range fields {
		keys[j] = f.Key
	}
	return keys
}

// InitialValues builds the value tree from field defaults. Nested keys
// produce nested maps.
func (d *Definition) InitialValues() form.Values {
	values := form.Values{}
	for _, f := range d.Fields {
		path.Set(values, f.Key, f.initialValue())
	}
	return values
}

func (f Field) initialValue() any {
	if f.Default != nil {
		return f.Default
	}
	switch f.FieldType() {
	case TypeBool:
		return false
	case TypeNumber:
		return 0
	case TypeChoice:
		if len(f.Options) > 0 {
			return f.Options[0]
		}
	}
	return ""
}

// Validations builds one predicate per top-level key, the conjunction of the
// rules of every field under it.
func (d *Definition) Validations() (form.Validations, error) {
	grouped := make(map[string][]form.Predicate)
	for _, f := range d.Fields {
		preds, err := f.predicates()
		if err != nil {
			return nil, err
		}
		if len(preds) == 0 {
			continue
		}
		top := path.Top(f.Key)
		grouped[top] = append(grouped[top], preds...)
	}

	v := make(form.Validations, len(grouped))
	for top, preds := range grouped {
		if len(preds) == 1 {
			v[top] = preds[0]
		} else {
			v[top] = validation.All(preds...)
		}
	}
	return v, nil
}

func (f Field) predicates() ([]form.Predicate, error) {
	var preds []form.Predicate
	if f.Required {
		preds = append(preds, validation.Required(f.Key))
	}
	if f.Rules != "" {
		preds = append(preds, validation.Tag(f.Key, f.Rules))
	}
	if f.Pattern != "" {
		p, err := validation.Pattern(f.Key, f.Pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if f.FieldType() == TypeChoice && len(f.Options) > 0 {
		options := make([]any, len(f.Options))
		for i, o := range f.Options {
			options[i] = o
		}
		preds = append(preds, validation.OneOf(f.Key, options...))
	}
	return preds, nil
}

// Valid reports whether f's own rules hold for values. Unlike the controller's
// per top-level flags, fields sharing a top-level key are judged separately.
func (f Field) Valid(values form.Values) bool {
	preds, err := f.predicates()
	if err != nil {
		return false
	}
	for _, p := range preds {
		if !p(values) {
			return false
		}
	}
	return true
}

// Config builds a controller configuration wired to source (which may be nil).
func (d *Definition) Config(source events.Source) (form.Config, error) {
	v, err := d.Validations()
	if err != nil {
		return form.Config{}, fmt.Errorf("failed to build validations: %w", err)
	}
	return form.Config{
		Name:           d.Name,
		InitialValues:  d.InitialValues(),
		Validations:    v,
		InitialStep:    d.InitialStep,
		ValidateOnInit: d.ValidateOnInit,
		Source:         source,
	}, nil
}

// NewController builds a controller for d.
func (d *Definition) NewController(source events.Source) (*form.Controller, error) {
	cfg, err := d.Config(source)
	if err != nil {
		return nil, err
	}
	return form.New(cfg), nil
}

// ParseAssignment splits "key=value" as used on the command line. The value
// is decoded as YAML so "true", "3" and "[a, b]" keep their types; anything
// that does not decode stays a string.
func ParseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid assignment %q (expected key=value)", s)
	}
	if _, err := path.Parse(key); err != nil {
		return "", nil, fmt.Errorf("invalid assignment %q: %w", s, err)
	}
	if raw == "" {
		return key, "", nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return key, raw, nil
	}
	return key, v, nil
}

// Coerce converts text typed into a terminal field into the field's type.
// Text that does not convert is kept as a string so validation can flag it.
func (f Field) Coerce(text string) any {
	switch f.FieldType() {
	case TypeBool:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "y", "yes", "true", "1", "on":
			return true
		case "n", "no", "false", "0", "off", "":
			return false
		}
	case TypeNumber:
		var v any
		if err := yaml.Unmarshal([]byte(text), &v); err == nil {
			switch v.(type) {
			case int, float64:
				return v
			}
		}
	}
	return text
}
