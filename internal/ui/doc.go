// Package ui provides the terminal surfaces of formstate.
//
// FormModel is an interactive Bubble Tea model that shows one step of a form
// at a time. It never changes form state itself: keystrokes are published as
// raw field events ("input" while typing, "focusout" when leaving a field,
// "click" when cycling an option) and the form controller, subscribed to the
// same event source, applies them. The model reads values, touched flags and
// errors back from the controller, so a field's message only appears once the
// field has been touched and is invalid.
//
// Printer and RenderSnapshot cover the "print and exit" commands.
//
// # Logging Integration
//
// zap logging is silent unless FORMSTATE_LOG_LEVEL is set, so log lines do not
// tear the full-screen view.
package ui
