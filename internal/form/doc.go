// Package form implements the form state controller.
//
// A Controller holds four independent slots: the current step, the value
// tree, one touched flag per top-level field and one error flag per top-level
// field. A view layer drives it with SetValue, NextStep and SetStep and reads
// it back with IsFieldValid, IsFieldTouched, HasFormFieldError, CurrentStep
// and Values. An optional events.Source reports focus loss and raw value
// changes for fields edited outside those calls.
//
// # Update Rule
//
// Every mutating call runs one rule synchronously: apply the change, then,
// if values changed, walk every top-level key and set its error flag to the
// negation of its predicate. Keys without a predicate keep their flag.
// Reads issued after a call returns observe the result.
//
//	c := form.New(form.Config{
//	    InitialValues: form.Values{"name": "", "phoneNumber": ""},
//	    Validations: form.Validations{
//	        "name": func(v form.Values) bool { return v["name"] != "" },
//	    },
//	})
//	c.SetValue("name", "Ann")
//	c.IsFieldValid("name") // true
//
// # Nested Fields
//
// Keys may be paths ("address.city"). Touched and error flags exist only for
// top-level keys; a focus loss on "address.city" touches "address".
//
// # Events
//
// With Config.Source set, the controller subscribes on New and unsubscribes
// on Close. Focus loss touches the field. Input, change, and click-on-input
// events call SetValue when the reported value differs from the current one.
// Events naming fields that are not part of the form are ignored, so several
// controllers can share one source.
package form
