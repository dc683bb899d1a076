package path

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmptyPath is returned for an empty key or an empty segment ("a..b")
	ErrEmptyPath = errors.New("empty path")
	// ErrMalformedPath is returned for unbalanced or non-numeric brackets
	ErrMalformedPath = errors.New("malformed path")
)

// MaxIndex is the largest numeric segment treated as a slice index. Larger
// numbers address map keys, so a key can never force a huge allocation.
const MaxIndex = 4096

// Segment is one step of a parsed key.
type Segment struct {
	Key     string // Map key; for index segments the decimal form of Index
	Index   int    // Slice index, valid when IsIndex is true
	IsIndex bool   // Segment is numeric and may address a slice element
}

// String returns the segment as it would appear in a dotted key
func (s Segment) String() string {
	return s.Key
}

// Parse splits key into segments.
func Parse(key string) ([]Segment, error) {
	if key == "" {
		return nil, ErrEmptyPath
	}

	var segs []Segment
	var cur strings.Builder
	// closed is set right after "]" so "a[0]b" can be rejected
	closed := false

	flush := func() error {
		if cur.Len() == 0 {
			return fmt.Errorf("%w: %q", ErrEmptyPath, key)
		}
		segs = append(segs, newSegment(cur.String()))
		cur.Reset()
		return nil
	}

	for i := 0; i < len(key); i++ {
		c := key[i]
		switch c {
		case '.':
			if closed {
				closed = false
				continue
			}
			if err := flush(); err != nil {
				return nil, err
			}
		case '[':
			if !closed {
				if cur.Len() > 0 {
					segs = append(segs, newSegment(cur.String()))
					cur.Reset()
				} else if len(segs) == 0 {
					return nil, fmt.Errorf("%w: %q starts with an index", ErrMalformedPath, key)
				}
			}
			end := strings.IndexByte(key[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket in %q", ErrMalformedPath, key)
			}
			inner := key[i+1 : i+end]
			n, err := strconv.Atoi(inner)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: index %q in %q", ErrMalformedPath, inner, key)
			}
			if n > MaxIndex {
				segs = append(segs, Segment{Key: inner})
			} else {
				segs = append(segs, Segment{Key: inner, Index: n, IsIndex: true})
			}
			i += end
			closed = true
		case ']':
			return nil, fmt.Errorf("%w: unexpected ']' in %q", ErrMalformedPath, key)
		default:
			if closed {
				return nil, fmt.Errorf("%w: text after index in %q", ErrMalformedPath, key)
			}
			cur.WriteByte(c)
		}
	}

	if !closed {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return segs, nil
}

// Resolve parses key, falling back to a single literal segment when the key
// is malformed.
func Resolve(key string) []Segment {
	segs, err := Parse(key)
	if err != nil {
		return []Segment{{Key: key}}
	}
	return segs
}

// Top returns the first segment of key, the top-level field it belongs to.
func Top(key string) string {
	return Resolve(key)[0].Key
}

// IsNested reports whether key addresses something below a top-level field.
func IsNested(key string) bool {
	return len(Resolve(key)) > 1
}

func newSegment(s string) Segment {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= MaxIndex && strconv.Itoa(n) == s {
		return Segment{Key: s, Index: n, IsIndex: true}
	}
	return Segment{Key: s}
}

// Get returns the value stored at key, and whether every segment was found.
func Get(tree any, key string) (any, bool) {
	node := tree
	for _, seg := range Resolve(key) {
		switch n := node.(type) {
		case map[string]any:
			v, ok := n[seg.Key]
			if !ok {
				return nil, false
			}
			node = v
		case []any:
			if !seg.IsIndex || seg.Index >= len(n) {
				return nil, false
			}
			node = n[seg.Index]
		default:
			return nil, false
		}
	}
	return node, true
}

// Set writes value at key and returns the root, which is a new container
// only when tree was nil or not a container.
func Set(tree any, key string, value any) any {
	return setIn(tree, Resolve(key), value)
}

func setIn(node any, segs []Segment, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg, rest := segs[0], segs[1:]

	switch n := node.(type) {
	case map[string]any:
		if n == nil {
			n = make(map[string]any, 1)
		}
		n[seg.Key] = setIn(n[seg.Key], rest, value)
		return n
	case []any:
		if seg.IsIndex {
			for len(n) <= seg.Index {
				n = append(n, nil)
			}
			n[seg.Index] = setIn(n[seg.Index], rest, value)
			return n
		}
		// Named key on a slice: keep the elements under their index keys
		m := make(map[string]any, len(n)+1)
		for i, v := range n {
			m[strconv.Itoa(i)] = v
		}
		m[seg.Key] = setIn(nil, rest, value)
		return m
	default:
		if seg.IsIndex {
			s := make([]any, seg.Index+1)
			s[seg.Index] = setIn(nil, rest, value)
			return s
		}
		return map[string]any{seg.Key: setIn(nil, rest, value)}
	}
}

// Clone deep-copies maps and slices. Leaves are copied by assignment.
func Clone(tree any) any {
	switch n := tree.(type) {
	case map[string]any:
		if n == nil {
			return n
		}
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = Clone(v)
		}
		return out
	case []any:
		if n == nil {
			return n
		}
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Clone(v)
		}
		return out
	default:
		return tree
	}
}

// CloneMap is Clone for a map root.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return Clone(m).(map[string]any)
}
