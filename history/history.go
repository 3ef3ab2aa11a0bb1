// Package history implements a bounded undo/redo container over immutable
// values. The container holds the current value plus two capped stacks of
// prior snapshots; when a stack is full the oldest snapshot is evicted
// silently. Values are treated as immutable: callers commit replacements,
// never mutate in place. Where an edit carries auxiliary state alongside the
// document (selection, grid counts), commit a struct pairing the two.
//
// A Store is single-writer: all operations are expected to be issued from
// one goroutine (typically the one driving the UI). It performs no internal
// locking.
package history

// DefaultCapacity is the number of prior states retained per direction.
const DefaultCapacity = 20

// Store is a bounded undo/redo container for values of type T.
type Store[T any] struct {
	capacity int
	current  T
	undo     []T
	redo     []T
	version  uint64
}

// New returns a store seeded with the initial value and DefaultCapacity.
func New[T any](initial T) *Store[T] {
	return NewWithCapacity(initial, DefaultCapacity)
}

// NewWithCapacity returns a store retaining up to capacity prior states per
// direction. A capacity below 1 is treated as 1.
func NewWithCapacity[T any](initial T, capacity int) *Store[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Store[T]{
		capacity: capacity,
		current:  initial,
		undo:     make([]T, 0, capacity),
		redo:     make([]T, 0, capacity),
	}
}

// Current returns the current value.
func (s *Store[T]) Current() T { return s.current }

// Version returns a token that increases on every structural change
// (Commit, effective Undo, effective Redo). Observers keyed on identity use
// it to detect updates even when the new value is structurally similar.
func (s *Store[T]) Version() uint64 { return s.version }

// CanUndo reports whether Undo would change the current value.
func (s *Store[T]) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether Redo would change the current value.
func (s *Store[T]) CanRedo() bool { return len(s.redo) > 0 }

// Commit replaces the current value with v. The prior value is pushed onto
// the undo stack, evicting the oldest snapshot if the stack is full, and the
// redo stack is cleared: history is linear after a commit.
func (s *Store[T]) Commit(v T) {
	s.undo = push(s.undo, s.current, s.capacity)
	s.redo = s.redo[:0]
	s.current = v
	s.version++
}

// Undo moves the current value onto the redo stack and restores the most
// recent undo snapshot. With an empty undo stack it is a no-op.
func (s *Store[T]) Undo() {
	if len(s.undo) == 0 {
		return
	}
	s.redo = push(s.redo, s.current, s.capacity)
	s.current = s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.version++
}

// Redo is symmetric to Undo. With an empty redo stack it is a no-op.
func (s *Store[T]) Redo() {
	if len(s.redo) == 0 {
		return
	}
	s.undo = push(s.undo, s.current, s.capacity)
	s.current = s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.version++
}

// push appends v, shifting out the oldest entry when at capacity.
func push[T any](stack []T, v T, capacity int) []T {
	if len(stack) < capacity {
		return append(stack, v)
	}
	copy(stack, stack[1:])
	stack[len(stack)-1] = v
	return stack
}
