package definition

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/muurk/formstate/internal/path"
	"github.com/muurk/formstate/internal/validation"
)

// ValidationError is one problem found in a definition.
type ValidationError struct {
	Field   string // Field key or document location, e.g. "steps[1]"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidError wraps every ValidationError found in a definition.
type InvalidError struct {
	Errors []error
}

func (e *InvalidError) Error() string {
	return FormatValidationErrors(e.Errors)
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *InvalidError) Unwrap() []error {
	return e.Errors
}

func newError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the whole definition and returns every problem found.
func (d *Definition) Validate() []error {
	var errs []error

	if d.Version != CurrentVersion {
		errs = append(errs, newError("version", "unsupported version %d (expected %d)", d.Version, CurrentVersion))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, newError("name", "form name is required"))
	}
	if len(d.Fields) == 0 {
		errs = append(errs, newError("fields", "at least one field is required"))
	}

	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		errs = append(errs, validateField(i, f)...)
		if f.Key == "" {
			continue
		}
		if seen[f.Key] {
			errs = append(errs, newError(f.Key, "duplicate field key"))
		}
		seen[f.Key] = true
	}
	errs = append(errs, checkOverlaps(d.Fields)...)
	errs = append(errs, d.validateSteps(seen)...)

	return errs
}

func validateField(i int, f Field) []error {
	var errs []error
	name := f.Key
	if name == "" {
		name = fmt.Sprintf("fields[%d]", i)
		return append(errs, newError(name, "field key is required"))
	}

	if _, err := path.Parse(f.Key); err != nil {
		errs = append(errs, newError(name, "invalid key: %v", err))
	}

	switch f.FieldType() {
	case TypeText, TypeBool, TypeNumber:
	case TypeChoice:
		if len(f.Options) == 0 {
			errs = append(errs, newError(name, "choice field needs options"))
		}
	default:
		errs = append(errs, newError(name, "unknown type %q", f.Type))
	}

	if f.Rules != "" {
		if err := validation.CheckTag(f.Rules); err != nil {
			errs = append(errs, newError(name, "%v", err))
		}
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			errs = append(errs, newError(name, "invalid pattern: %v", err))
		}
	}
	return errs
}

// checkOverlaps rejects a key that is also the parent of another key
// ("address" and "address.city"), since one default would overwrite the
// other.
func checkOverlaps(fields []Field) []error {
	var errs []error
	for _, a := range fields {
		for _, b := range fields {
			if a.Key == "" || a.Key == b.Key {
				continue
			}
			if strings.HasPrefix(b.Key, a.Key+".") || strings.HasPrefix(b.Key, a.Key+"[") {
				errs = append(errs, newError(a.Key, "conflicts with nested field %s", b.Key))
			}
		}
	}
	return errs
}

func (d *Definition) validateSteps(known map[string]bool) []error {
	var errs []error
	if len(d.Steps) == 0 {
		if d.InitialStep != 0 {
			errs = append(errs, newError("initial_step", "must be 0 for a form without steps"))
		}
		return errs
	}

	placed := make(map[string]int)
	for i, s := range d.Steps {
		loc := fmt.Sprintf("steps[%d]", i)
		if len(s.Fields) == 0 {
			errs = append(errs, newError(loc, "step has no fields"))
		}
		for _, key := range s.Fields {
			if !known[key] {
				errs = append(errs, newError(loc, "unknown field %s", key))
				continue
			}
			if prev, ok := placed[key]; ok {
				errs = append(errs, newError(loc, "field %s already placed in steps[%d]", key, prev))
				continue
			}
			placed[key] = i
		}
	}

	if d.InitialStep < 0 || d.InitialStep >= len(d.Steps) {
		errs = append(errs, newError("initial_step", "must be between 0 and %d, got %d", len(d.Steps)-1, d.InitialStep))
	}
	return errs
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("form definition is invalid (%d error(s)):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return strings.TrimRight(sb.String(), "\n")
}
