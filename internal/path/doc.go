// Package path addresses slots inside a generic value tree.
//
// A tree is built from map[string]any and []any containers with arbitrary
// leaves. Keys are dotted or indexed path strings:
//
//	name
//	address.city
//	phones[0]
//	phones.0.number
//
// # Parsing
//
// Parse splits a key into segments and reports malformed keys
// (ErrEmptyPath, ErrMalformedPath). Resolve never fails: a key that does not
// parse is treated as one literal segment, which is how Set and Get address
// it.
//
// # Writing
//
// Set writes in place and returns the (possibly new) root. Missing or scalar
// intermediates are replaced by containers: a slice when the next segment is
// numeric, a map otherwise. Callers that need copy-on-write clone first:
//
//	next := path.Clone(values)
//	next = path.Set(next, "address.city", "Paris")
//
// The package has no state and is safe for concurrent use as long as the
// trees passed in are not shared between goroutines.
package path
