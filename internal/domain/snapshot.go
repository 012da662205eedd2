package domain

import (
	"fmt"
	"strconv"
)

// Session storage keys for the window scroll position.
const (
	KeyScrollX = "scrollX"
	KeyScrollY = "scrollY"
)

// Per-element key fields, see ElementKey.
const (
	FieldX        = "x"
	FieldY        = "y"
	FieldID       = "id"
	FieldSelector = "selector"
)

// ElementKey returns the storage key for one field of the i-th tagged element.
func ElementKey(i int, field string) string {
	return fmt.Sprintf("element-scroll-%d-%s", i, field)
}

// ElementScroll is the saved scroll state of one tagged scrollable element.
type ElementScroll struct {
	// ID is the element id, empty when the element has none.
	ID string

	// Selector is the generated CSS path used when ID is empty or not found.
	Selector string

	X float64
	Y float64
}

// ScrollSnapshot is the scroll state captured right before a reload cycle.
// Elements are in document order; the slice index is the storage key index.
type ScrollSnapshot struct {
	WindowX  float64
	WindowY  float64
	Elements []ElementScroll
}

// Entries flattens the snapshot into its session storage representation.
func (s ScrollSnapshot) Entries() map[string]string {
	m := make(map[string]string, 2+4*len(s.Elements))
	m[KeyScrollX] = FormatOffset(s.WindowX)
	m[KeyScrollY] = FormatOffset(s.WindowY)
	for i, el := range s.Elements {
		m[ElementKey(i, FieldX)] = FormatOffset(el.X)
		m[ElementKey(i, FieldY)] = FormatOffset(el.Y)
		m[ElementKey(i, FieldID)] = el.ID
		m[ElementKey(i, FieldSelector)] = el.Selector
	}
	return m
}

// FormatOffset renders a scroll offset the way it is stored.
func FormatOffset(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseOffset parses a stored scroll offset.
func ParseOffset(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
