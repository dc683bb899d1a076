package form

import "testing"

func TestApplyDoesNotModifyInput(t *testing.T) {
	s := newState(Values{"name": "", "address": map[string]any{"city": ""}}, 0)
	v := Validations{"name": func(v Values) bool { return v["name"] != "" }}

	next, eff := apply(s, setValue{k: "address.city", v: "Paris"}, v)
	if eff != effectValues {
		t.Fatalf("effect = %v, want effectValues", eff)
	}
	next, _ = apply(next, touch{k: "name"}, v)
	next, _ = apply(next, nextStep{}, v)

	if s.Values["address"].(map[string]any)["city"] != "" {
		t.Error("input values modified")
	}
	if s.Touched["name"] {
		t.Error("input touched map modified")
	}
	if s.Step != 0 {
		t.Error("input step modified")
	}
	if !next.Touched["name"] || next.Step != 1 {
		t.Errorf("next = %+v", next)
	}
	// name was revalidated during the address write
	if !next.Errors["name"] || !next.HasFormFieldError {
		t.Errorf("name should carry an error after revalidation: %+v", next.Errors)
	}
}

func TestApplyNoEffectLeavesState(t *testing.T) {
	s := newState(Values{"name": ""}, 3)

	next, eff := apply(s, setStep{n: 3}, nil)
	if eff != effectNone {
		t.Errorf("effect = %v, want effectNone", eff)
	}
	if next.Step != 3 {
		t.Errorf("step = %d, want 3", next.Step)
	}
}

func TestRevalidateSkipsNilPredicate(t *testing.T) {
	s := newState(Values{"a": ""}, 0)
	s.Errors["a"] = true

	got := revalidate(s, Validations{"a": nil})
	if !got.Errors["a"] {
		t.Error("nil predicate should leave the flag alone")
	}
}

func TestStateClone(t *testing.T) {
	s := newState(Values{"tags": []any{"x"}}, 0)
	cp := s.Clone()
	cp.Values["tags"].([]any)[0] = "y"
	cp.Touched["tags"] = true

	if s.Values["tags"].([]any)[0] != "x" || s.Touched["tags"] {
		t.Error("Clone shares storage with the original")
	}
}
