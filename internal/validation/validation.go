// Package validation builds form predicates for common field rules.
//
// Each constructor takes the path of the field it reads and returns a
// form.Predicate over the whole value tree, ready to be registered under the
// field's top-level key:
//
//	form.Validations{
//	    "name":        validation.Required("name"),
//	    "phoneNumber": validation.PhoneNumber("phoneNumber"),
//	    "email":       validation.Tag("email", "required,email"),
//	}
//
// Tag rules are go-playground/validator tags; the "phone" tag is registered
// in addition to the library's built-ins.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/path"
)

// phonePattern accepts digits, spaces, commas and dashes with an optional
// leading plus.
var phonePattern = regexp.MustCompile(`^\+?[0-9 ,-]+$`)

// fieldValidate is the shared validator instance for Tag rules.
var fieldValidate *validator.Validate

func init() {
	fieldValidate = validator.New()
	_ = fieldValidate.RegisterValidation("phone", validatePhone)
}

func validatePhone(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.String {
		return phonePattern.MatchString(field.String())
	}
	return phonePattern.MatchString(fmt.Sprint(field.Interface()))
}

// Present reports whether v counts as filled in: non-empty strings, true,
// non-zero numbers and any container. nil is not present.
func Present(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case string:
		return x != ""
	case bool:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	}
	return true
}

// Required is valid when the value at key is Present.
func Required(key string) form.Predicate {
	return func(values form.Values) bool {
		v, _ := path.Get(values, key)
		return Present(v)
	}
}

// Pattern is valid when the value at key, formatted as text, matches expr.
func Pattern(key, expr string) (form.Predicate, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern for %s: %w", key, err)
	}
	return func(values form.Values) bool {
		return re.MatchString(text(values, key))
	}, nil
}

// MustPattern is Pattern that panics on a bad expression.
func MustPattern(key, expr string) form.Predicate {
	p, err := Pattern(key, expr)
	if err != nil {
		panic(err)
	}
	return p
}

// PhoneNumber is valid for phone-like text such as "+1 555 1234".
func PhoneNumber(key string) form.Predicate {
	return func(values form.Values) bool {
		return phonePattern.MatchString(text(values, key))
	}
}

// MinLength is valid when the text at key has at least n characters.
func MinLength(key string, n int) form.Predicate {
	return func(values form.Values) bool {
		return utf8.RuneCountInString(text(values, key)) >= n
	}
}

// MaxLength is valid when the text at key has at most n characters.
func MaxLength(key string, n int) form.Predicate {
	return func(values form.Values) bool {
		return utf8.RuneCountInString(text(values, key)) <= n
	}
}

// OneOf is valid when the value at key equals one of the options.
func OneOf(key string, options ...any) form.Predicate {
	return func(values form.Values) bool {
		v, _ := path.Get(values, key)
		for _, o := range options {
			if reflect.DeepEqual(v, o) {
				return true
			}
		}
		return false
	}
}

// Tag is valid when the value at key passes the validator tag, e.g.
// "required,email" or "omitempty,min=3". Missing values are checked as "".
// Use CheckTag first for tags that come from user input.
func Tag(key, tag string) form.Predicate {
	return func(values form.Values) bool {
		v, ok := path.Get(values, key)
		if !ok || v == nil {
			v = ""
		}
		return fieldValidate.Var(v, tag) == nil
	}
}

// CheckTag reports whether tag is a usable validator tag.
func CheckTag(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid rule %q: %v", tag, r)
		}
	}()
	_ = fieldValidate.Var("", tag)
	return nil
}

// All is valid when every predicate is valid. An empty list is valid.
func All(preds ...form.Predicate) form.Predicate {
	return func(values form.Values) bool {
		for _, p := range preds {
			if p != nil && !p(values) {
				return false
			}
		}
		return true
	}
}

// text returns the value at key as a string; non-strings are formatted and
// missing values are "".
func text(values form.Values, key string) string {
	v, ok := path.Get(values, key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
