// Package history implements a bounded undo/redo history over an arbitrary
// state value.
//
// Push records a new checkpoint (or replaces the current one when the caller
// asks to skip history, e.g. for live drag previews). Undo and Redo move the
// cursor and report the resulting state to the time-travel callback; Push
// never does.
package history

// DefaultLimit is the number of checkpoints kept when no limit is configured
const DefaultLimit = 100

// History keeps checkpoints of T and a cursor into them. It is not safe for
// concurrent use; an editing session owns its history.
type History[T any] struct {
	checkpoints []T
	cursor      int
	limit       int
	onTravel    func(T)
}

// Option configures a History
type Option[T any] func(*History[T])

// WithLimit bounds the number of checkpoints; the oldest ones are dropped first.
// Values below 1 mean DefaultLimit.
func WithLimit[T any](limit int) Option[T] {
	return func(h *History[T]) {
		if limit < 1 {
			limit = DefaultLimit
		}
		h.limit = limit
	}
}

// WithTimeTravel registers the callback invoked with the new state after
// every effective Undo or Redo.
func WithTimeTravel[T any](fn func(T)) Option[T] {
	return func(h *History[T]) {
		h.onTravel = fn
	}
}

// New creates a history with initial as its only checkpoint
func New[T any](initial T, opts ...Option[T]) *History[T] {
	h := &History[T]{
		checkpoints: []T{initial},
		limit:       DefaultLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// State returns the checkpoint under the cursor
func (h *History[T]) State() T {
	return h.checkpoints[h.cursor]
}

// Push records state. With skipHistory the current checkpoint is replaced in
// place; otherwise a new checkpoint is appended and any redo future dropped.
func (h *History[T]) Push(state T, skipHistory bool) {
	if skipHistory {
		h.checkpoints[h.cursor] = state
		return
	}

	h.checkpoints = append(h.checkpoints[:h.cursor+1], state)
	if overflow := len(h.checkpoints) - h.limit; overflow > 0 {
		h.checkpoints = append(h.checkpoints[:0], h.checkpoints[overflow:]...)
	}
	h.cursor = len(h.checkpoints) - 1
}

// Undo moves back one checkpoint. It returns the current state and false when
// there is nothing to undo.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		return h.State(), false
	}
	h.cursor--
	return h.travelled(), true
}

// Redo moves forward one checkpoint. It returns the current state and false
// when there is nothing to redo.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		return h.State(), false
	}
	h.cursor++
	return h.travelled(), true
}

func (h *History[T]) travelled() T {
	state := h.State()
	if h.onTravel != nil {
		h.onTravel(state)
	}
	return state
}

// CanUndo reports whether an earlier checkpoint exists
func (h *History[T]) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo reports whether a later checkpoint exists
func (h *History[T]) CanRedo() bool {
	return h.cursor < len(h.checkpoints)-1
}

// Reset replaces the whole history with a single checkpoint
func (h *History[T]) Reset(initial T) {
	h.checkpoints = []T{initial}
	h.cursor = 0
}

// Len returns the number of checkpoints
func (h *History[T]) Len() int {
	return len(h.checkpoints)
}

// Cursor returns the index of the current checkpoint
func (h *History[T]) Cursor() int {
	return h.cursor
}
