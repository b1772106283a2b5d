// Package actionqueue implements the Action Queue: an ordered set of
// (path, action) tuples fed by the Event Sink and the Scanner, drained by
// the Reconciliation Engine. Producers may run on any goroutine; there is
// exactly one consumer, the engine's own loop.
package actionqueue

import (
	"container/list"
	"sync"
)

// Action is the kind of filesystem change a queued entry represents.
type Action string

const (
	AddFile Action = "add_file"
	AddDir  Action = "add_dir"
	Change  Action = "change"
	Delete  Action = "delete"
)

// Entry is a single (path, action) tuple.
type Entry struct {
	Path   string
	Action Action
}

type key struct {
	path   string
	action Action
}

// Queue is a thread-safe FIFO with set-membership: re-adding an entry
// already present is a no-op, and Pop order matches insertion order.
type Queue struct {
	mu       sync.Mutex
	order    *list.List
	elements map[key]*list.Element
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{
		order:    list.New(),
		elements: make(map[key]*list.Element),
	}
}

// Add appends (path, action) unless that exact pair is already queued.
// Returns true if the entry was newly added.
func (q *Queue) Add(path string, action Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	k := key{path, action}
	if _, exists := q.elements[k]; exists {
		return false
	}

	el := q.order.PushBack(Entry{Path: path, Action: action})
	q.elements[k] = el
	return true
}

// Contains reports whether (path, action) is currently queued.
func (q *Queue) Contains(path string, action Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, exists := q.elements[key{path, action}]
	return exists
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

// DrainAll removes and returns every queued entry in insertion order. The
// queue is empty after this call returns.
func (q *Queue) DrainAll() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]Entry, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		entries = append(entries, el.Value.(Entry))
	}
	q.order.Init()
	q.elements = make(map[key]*list.Element)
	return entries
}
