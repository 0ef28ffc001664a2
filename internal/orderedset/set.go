// Package orderedset provides an insertion-ordered set with O(1) push, pop,
// shift, unshift, membership and delete.
//
// The set is an intrusive doubly linked list closed by a sentinel element,
// plus a map from value to list element. It is not safe for concurrent use.
package orderedset

import (
	"fmt"
	"iter"
	"strings"
)

type element[T comparable] struct {
	val        T
	prev, next *element[T]
}

// Set is an insertion-ordered set of comparable values.
// The zero value is not usable; call New.
type Set[T comparable] struct {
	index    map[T]*element[T]
	sentinel element[T]
}

// New creates an empty set.
func New[T comparable]() *Set[T] {
	s := &Set[T]{index: make(map[T]*element[T])}
	s.sentinel.prev = &s.sentinel
	s.sentinel.next = &s.sentinel
	return s
}

// Len returns the number of values in the set.
func (s *Set[T]) Len() int {
	return len(s.index)
}

// Has reports whether v is in the set.
func (s *Set[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Push appends v at the back. Pushing a present value does nothing.
func (s *Set[T]) Push(v T) {
	if s.Has(v) {
		return
	}
	s.link(v, s.sentinel.prev, &s.sentinel)
}

// Unshift inserts v at the front. Unshifting a present value does nothing.
func (s *Set[T]) Unshift(v T) {
	if s.Has(v) {
		return
	}
	s.link(v, &s.sentinel, s.sentinel.next)
}

// Pop removes and returns the last value.
func (s *Set[T]) Pop() (T, bool) {
	return s.take(s.sentinel.prev)
}

// Shift removes and returns the first value.
func (s *Set[T]) Shift() (T, bool) {
	return s.take(s.sentinel.next)
}

// Front returns the first value without removing it.
func (s *Set[T]) Front() (T, bool) {
	if e := s.sentinel.next; e != &s.sentinel {
		return e.val, true
	}
	var zero T
	return zero, false
}

// Delete removes v and reports whether it was present.
func (s *Set[T]) Delete(v T) bool {
	e, ok := s.index[v]
	if !ok {
		return false
	}
	s.unlink(e)
	return true
}

// Clear removes every value.
func (s *Set[T]) Clear() {
	clear(s.index)
	s.sentinel.prev = &s.sentinel
	s.sentinel.next = &s.sentinel
}

// All iterates the values front to back. The set must not be modified during
// iteration.
func (s *Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for e := s.sentinel.next; e != &s.sentinel; e = e.next {
			if !yield(e.val) {
				return
			}
		}
	}
}

// String formats the set as OrderedSet{a,b,c}.
func (s *Set[T]) String() string {
	parts := make([]string, 0, s.Len())
	for v := range s.All() {
		parts = append(parts, fmt.Sprint(v))
	}
	return "OrderedSet{" + strings.Join(parts, ",") + "}"
}

func (s *Set[T]) link(v T, prev, next *element[T]) {
	e := &element[T]{val: v, prev: prev, next: next}
	prev.next = e
	next.prev = e
	s.index[v] = e
}

func (s *Set[T]) take(e *element[T]) (T, bool) {
	if e == &s.sentinel {
		var zero T
		return zero, false
	}
	s.unlink(e)
	return e.val, true
}

func (s *Set[T]) unlink(e *element[T]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	delete(s.index, e.val)
}
