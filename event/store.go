package event

import (
	"fmt"
	"sort"
)

// entry is one live registration: the adapted handler plus the bookkeeping
// needed for identity-based removal.
type entry struct {
	key      any
	ownerKey any
	handler  Handler
	priority int
}

// bucket is the insertion-ordered entry sequence of one priority.
type bucket struct {
	priority int
	entries  []*entry
}

// store is the ordered container behind an Event. The store itself carries no
// locks; the owning Event serializes access with its mutex.
type store interface {
	add(e *entry, allowDupes bool) error
	// remove drops the oldest live entry for key, returning it.
	remove(key any) (*entry, error)
	// removeOwned drops every entry bound to ownerKey; returns how many.
	removeOwned(ownerKey any) int
	clear()
	size() int
	// snapshot returns the entries in canonical order: ascending priority,
	// insertion order within a priority.
	snapshot() []*entry
	// byPriority returns one bucket per non-empty priority, ascending.
	byPriority() []bucket
}

// listStore keeps a single implicit priority: plain insertion order.
type listStore struct {
	order []*entry
	index map[any]int // key -> live entry count
}

func newListStore() *listStore {
	return &listStore{index: make(map[any]int)}
}

func (s *listStore) add(e *entry, allowDupes bool) error {
	if s.index[e.key] > 0 && !allowDupes {
		return ErrDuplicateHandler
	}
	s.order = append(s.order, e)
	s.index[e.key]++
	return nil
}

func (s *listStore) remove(key any) (*entry, error) {
	if s.index[key] == 0 {
		return nil, ErrHandlerNotFound
	}
	var removed *entry
	for i, e := range s.order {
		if e.key == key {
			removed = e
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.dropIndex(key)
	return removed, nil
}

func (s *listStore) removeOwned(ownerKey any) int {
	if ownerKey == nil {
		return 0
	}
	removed := 0
	kept := s.order[:0]
	for _, e := range s.order {
		if e.ownerKey == ownerKey {
			s.dropIndex(e.key)
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.order = kept
	return removed
}

func (s *listStore) dropIndex(key any) {
	if s.index[key]--; s.index[key] <= 0 {
		delete(s.index, key)
	}
}

func (s *listStore) clear() {
	s.order = nil
	s.index = make(map[any]int)
}

func (s *listStore) size() int { return len(s.order) }

func (s *listStore) snapshot() []*entry {
	return append([]*entry(nil), s.order...)
}

func (s *listStore) byPriority() []bucket {
	if len(s.order) == 0 {
		return nil
	}
	return []bucket{{priority: s.order[0].priority, entries: s.snapshot()}}
}

// priorityStore buckets entries by priority. Priorities stay sorted ascending;
// a bucket that empties out is dropped so traversal stays sparse. The reverse
// index gives O(1) key-to-priority lookup and is invalidated in the same step
// as the forward removal.
type priorityStore struct {
	priorities []int // sorted ascending
	buckets    map[int][]*entry
	index      map[any][]int // key -> priorities of live entries, oldest first
}

func newPriorityStore() *priorityStore {
	return &priorityStore{
		buckets: make(map[int][]*entry),
		index:   make(map[any][]int),
	}
}

func (s *priorityStore) add(e *entry, allowDupes bool) error {
	if len(s.index[e.key]) > 0 && !allowDupes {
		return fmt.Errorf("priority %d: %w", e.priority, ErrDuplicateHandler)
	}
	if _, ok := s.buckets[e.priority]; !ok {
		i := sort.SearchInts(s.priorities, e.priority)
		s.priorities = append(s.priorities, 0)
		copy(s.priorities[i+1:], s.priorities[i:])
		s.priorities[i] = e.priority
	}
	s.buckets[e.priority] = append(s.buckets[e.priority], e)
	s.index[e.key] = append(s.index[e.key], e.priority)
	return nil
}

func (s *priorityStore) remove(key any) (*entry, error) {
	priorities := s.index[key]
	if len(priorities) == 0 {
		return nil, ErrHandlerNotFound
	}
	p := priorities[0]
	s.unindex(key, p)

	var removed *entry
	entries := s.buckets[p]
	for i, e := range entries {
		if e.key == key {
			removed = e
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	s.setBucket(p, entries)
	return removed, nil
}

func (s *priorityStore) removeOwned(ownerKey any) int {
	if ownerKey == nil {
		return 0
	}
	removed := 0
	for _, p := range append([]int(nil), s.priorities...) {
		entries := s.buckets[p]
		kept := entries[:0]
		for _, e := range entries {
			if e.ownerKey == ownerKey {
				s.unindex(e.key, p)
				removed++
				continue
			}
			kept = append(kept, e)
		}
		s.setBucket(p, kept)
	}
	return removed
}

// unindex drops the first occurrence of priority p from key's reverse entry.
func (s *priorityStore) unindex(key any, p int) {
	priorities := s.index[key]
	for i, q := range priorities {
		if q == p {
			priorities = append(priorities[:i], priorities[i+1:]...)
			break
		}
	}
	if len(priorities) == 0 {
		delete(s.index, key)
	} else {
		s.index[key] = priorities
	}
}

func (s *priorityStore) setBucket(p int, entries []*entry) {
	if len(entries) > 0 {
		s.buckets[p] = entries
		return
	}
	delete(s.buckets, p)
	for i, q := range s.priorities {
		if q == p {
			s.priorities = append(s.priorities[:i], s.priorities[i+1:]...)
			break
		}
	}
}

func (s *priorityStore) clear() {
	s.priorities = nil
	s.buckets = make(map[int][]*entry)
	s.index = make(map[any][]int)
}

func (s *priorityStore) size() int {
	n := 0
	for _, entries := range s.buckets {
		n += len(entries)
	}
	return n
}

func (s *priorityStore) snapshot() []*entry {
	out := make([]*entry, 0, s.size())
	for _, p := range s.priorities {
		out = append(out, s.buckets[p]...)
	}
	return out
}

func (s *priorityStore) byPriority() []bucket {
	out := make([]bucket, 0, len(s.priorities))
	for _, p := range s.priorities {
		out = append(out, bucket{
			priority: p,
			entries:  append([]*entry(nil), s.buckets[p]...),
		})
	}
	return out
}
