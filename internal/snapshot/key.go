package snapshot

import (
	"fmt"
	"strings"
)

// Segment is one level of a description path: a suite or spec name plus its
// occurrence ordinal among identically named siblings in the same parent entry.
type Segment struct {
	Name    string
	Ordinal int
}

// nameEscaper backslash-escapes the characters keys use as delimiters, so a
// name can never read as a separator, an ordinal or a call suffix.
var nameEscaper = strings.NewReplacer(`\`, `\\`, `>`, `\>`, `(`, `\(`, `#`, `\#`)

// String renders the segment. The first occurrence is rendered bare.
func (s Segment) String() string {
	name := nameEscaper.Replace(s.Name)
	if s.Ordinal > 1 {
		return fmt.Sprintf("%s (%d)", name, s.Ordinal)
	}
	return name
}

// Key derives the snapshot key for the call-th assertion made at path.
//
// Example: Key([]Segment{{"math", 1}, {"adds", 1}}, 2) == "math > adds #2"
func Key(path []Segment, call int) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = seg.String()
	}
	return fmt.Sprintf("%s #%d", strings.Join(parts, " > "), call)
}

// Counter hands out occurrence ordinals keyed by (parent path, name).
//
// Ordinals of an entry are fixed when it is entered, so the ancestors of
// an assertion site keep the same rendering for the whole entry. A Counter
// belongs to a single run and is not safe for concurrent use.
type Counter struct {
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Next returns the ordinal for entering name under parent, starting at 1.
func (c *Counter) Next(parent []Segment, name string) int {
	var b strings.Builder
	for _, seg := range parent {
		b.WriteString(seg.String())
		b.WriteByte(0)
	}
	b.WriteString(name)
	k := b.String()
	c.counts[k]++
	return c.counts[k]
}
