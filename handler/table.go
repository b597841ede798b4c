// Package handler implements the fixed-capacity topic-filter-to-callback
// table the Engine consults when an inbound PUBLISH arrives. Capacity is
// bounded at construction so embedded deployments never grow it
// unexpectedly; installing past capacity is a caller error.
package handler

import "errors"

// ErrFull is returned by Install when the table has no free slot left.
var ErrFull = errors.New("handler: table full")

// MessageHandler is invoked with the exact topic bytes a PUBLISH arrived
// on and its decoded payload. It runs synchronously on the caller's
// goroutine, before the cycle routine that dispatched it returns.
type MessageHandler func(topic string, payload []byte)

type slot struct {
	filter string
	fn     MessageHandler
	used   bool
}

// Table is a fixed-capacity, byte-exact topic-filter dispatch table.
// The zero value is not usable; construct with New.
type Table struct {
	slots   []slot
	deflt   MessageHandler
}

// New returns a Table with room for exactly capacity distinct filters.
func New(capacity int) *Table {
	return &Table{slots: make([]slot, capacity)}
}

// SetDefault registers the handler invoked when no installed filter
// matches an inbound topic. A nil default silently drops unmatched
// messages.
func (t *Table) SetDefault(fn MessageHandler) {
	t.deflt = fn
}

// Install places (filter, fn) in the first free slot. It returns ErrFull
// if the table has no room, replacing an existing slot for the same
// filter if one exists.
func (t *Table) Install(filter string, fn MessageHandler) error {
	free := -1
	for i := range t.slots {
		if t.slots[i].used && t.slots[i].filter == filter {
			t.slots[i].fn = fn
			return nil
		}
		if !t.slots[i].used && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return ErrFull
	}
	t.slots[free] = slot{filter: filter, fn: fn, used: true}
	return nil
}

// Remove clears the slot matching filter, if any. It is a no-op if the
// filter was never installed.
func (t *Table) Remove(filter string) {
	for i := range t.slots {
		if t.slots[i].used && t.slots[i].filter == filter {
			t.slots[i] = slot{}
			return
		}
	}
}

// Dispatch invokes the handler installed for the first filter that
// byte-exactly matches topic, or the default handler if none matches.
// Wildcard matching is out of scope (see the topic-filter open
// question); a filter matches iff it equals topic exactly.
func (t *Table) Dispatch(topic string, payload []byte) {
	for i := range t.slots {
		if t.slots[i].used && t.slots[i].filter == topic {
			t.slots[i].fn(topic, payload)
			return
		}
	}
	if t.deflt != nil {
		t.deflt(topic, payload)
	}
}

// Len reports the number of installed handlers.
func (t *Table) Len() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].used {
			n++
		}
	}
	return n
}

// Cap reports the table's fixed capacity.
func (t *Table) Cap() int {
	return len(t.slots)
}
