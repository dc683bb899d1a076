package form

import (
	"maps"
	"reflect"

	"github.com/muurk/formstate/internal/path"
)

// Values is the form's value tree. Containers are map[string]any and []any.
type Values = map[string]any

// Predicate reports whether the field it is registered for is valid, given
// the whole value tree. Predicates must not modify values.
type Predicate func(values Values) bool

// Validations maps top-level field keys to their predicates.
type Validations map[string]Predicate

// State is a snapshot of a controller. Snapshots handed out by a Controller
// are copies and may be kept or modified freely.
//
// Revision counts the changes the controller has applied; a snapshot with a
// higher revision is always newer.
type State struct {
	Revision          uint64          `json:"revision"`
	Step              int             `json:"step"`
	Values            Values          `json:"values"`
	Touched           map[string]bool `json:"touched"`
	Errors            map[string]bool `json:"errors"`
	HasFormFieldError bool            `json:"has_form_field_error"`
}

// newState builds the initial state: every top-level key untouched and
// without error.
func newState(initial Values, step int) State {
	values := path.CloneMap(initial)
	touched := make(map[string]bool, len(values))
	errs := make(map[string]bool, len(values))
	for k := range values {
		touched[k] = false
		errs[k] = false
	}
	return State{
		Step:    step,
		Values:  values,
		Touched: touched,
		Errors:  errs,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{
		Revision:          s.Revision,
		Step:              s.Step,
		Values:            path.CloneMap(s.Values),
		Touched:           maps.Clone(s.Touched),
		Errors:            maps.Clone(s.Errors),
		HasFormFieldError: s.HasFormFieldError,
	}
}

// IsFieldValid reports whether key has no error flag set.
func (s State) IsFieldValid(key string) bool {
	return !s.Errors[key]
}

// IsFieldTouched reports whether key has lost focus at least once.
func (s State) IsFieldTouched(key string) bool {
	return s.Touched[key]
}

type effect int

const (
	effectNone   effect = iota // nothing changed
	effectState                // step or touched changed
	effectValues               // values changed; revalidation required
)

// mutation is one change to a State. apply must not modify s; slots it
// changes are replaced with fresh copies.
type mutation interface {
	op() string
	key() string
	apply(s State) (State, effect)
}

// apply runs m and then, when values changed, revalidates. It is the only
// place a State moves forward.
func apply(s State, m mutation, v Validations) (State, effect) {
	next, eff := m.apply(s)
	if eff == effectValues {
		next = revalidate(next, v)
	}
	if eff != effectNone {
		next.HasFormFieldError = anyTrue(next.Errors)
	}
	return next, eff
}

// revalidate walks every top-level key of the current values. Keys without a
// predicate keep their previous flag.
func revalidate(s State, v Validations) State {
	errs := maps.Clone(s.Errors)
	for key := range s.Values {
		p, ok := v[key]
		if !ok || p == nil {
			continue
		}
		errs[key] = !p(s.Values)
	}
	s.Errors = errs
	return s
}

func anyTrue(m map[string]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

type setValue struct {
	k string
	v any
}

func (m setValue) op() string  { return "set_value" }
func (m setValue) key() string { return m.k }

func (m setValue) apply(s State) (State, effect) {
	values := path.CloneMap(s.Values)
	path.Set(values, m.k, m.v)
	s.Values = values

	// A write that introduces a new top-level key extends both flag maps
	top := path.Top(m.k)
	if _, ok := s.Touched[top]; !ok {
		s.Touched = maps.Clone(s.Touched)
		s.Touched[top] = false
	}
	if _, ok := s.Errors[top]; !ok {
		s.Errors = maps.Clone(s.Errors)
		s.Errors[top] = false
	}
	return s, effectValues
}

// externalChange is a value reported by an event source. It only applies to
// fields of this form and only when the value differs from the current one.
type externalChange struct {
	k string
	v any
}

func (m externalChange) op() string  { return "external_change" }
func (m externalChange) key() string { return m.k }

func (m externalChange) apply(s State) (State, effect) {
	if _, ok := s.Touched[path.Top(m.k)]; !ok {
		return s, effectNone
	}
	if current, ok := path.Get(s.Values, m.k); ok && reflect.DeepEqual(current, m.v) {
		return s, effectNone
	}
	return setValue(m).apply(s)
}

// touch marks the top-level field owning k as touched. Unknown fields are
// ignored and flags are never cleared.
type touch struct {
	k string
}

func (m touch) op() string  { return "touch" }
func (m touch) key() string { return m.k }

func (m touch) apply(s State) (State, effect) {
	top := path.Top(m.k)
	touched, ok := s.Touched[top]
	if !ok || touched {
		return s, effectNone
	}
	s.Touched = maps.Clone(s.Touched)
	s.Touched[top] = true
	return s, effectState
}

type nextStep struct{}

func (nextStep) op() string  { return "next_step" }
func (nextStep) key() string { return "" }

func (nextStep) apply(s State) (State, effect) {
	s.Step++
	return s, effectState
}

type setStep struct {
	n int
}

func (setStep) op() string    { return "set_step" }
func (m setStep) key() string { return "" }

func (m setStep) apply(s State) (State, effect) {
	if s.Step == m.n {
		return s, effectNone
	}
	s.Step = m.n
	return s, effectState
}
