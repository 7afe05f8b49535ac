// Package history is a linear undo/redo buffer of snapshots.
package history

// Buffer holds snapshots and a cursor pointing at the current one.
// Pushing after an undo discards the redo tail.
type Buffer[T any] struct {
	entries []T
	cursor  int
	limit   int
}

// New returns a buffer seeded with a single snapshot. A positive limit caps
// the snapshots kept, dropping the oldest; limit <= 0 keeps every snapshot.
func New[T any](seed T, limit int) *Buffer[T] {
	return &Buffer[T]{entries: []T{seed}, limit: limit}
}

// Reset discards all history and seeds it with one snapshot.
func (b *Buffer[T]) Reset(seed T) {
	b.entries = []T{seed}
	b.cursor = 0
}

// Push records a new snapshot after the cursor, truncating any redo entries.
func (b *Buffer[T]) Push(s T) {
	b.entries = append(b.entries[:b.cursor+1], s)
	if b.limit > 0 && len(b.entries) > b.limit {
		b.entries = b.entries[len(b.entries)-b.limit:]
	}
	b.cursor = len(b.entries) - 1
}

// Undo steps back one snapshot. At the oldest snapshot it is a no-op and reports false.
func (b *Buffer[T]) Undo() (T, bool) {
	if b.cursor == 0 {
		return b.entries[b.cursor], false
	}
	b.cursor--
	return b.entries[b.cursor], true
}

// Redo steps forward one snapshot. At the newest snapshot it is a no-op and reports false.
func (b *Buffer[T]) Redo() (T, bool) {
	if b.cursor == len(b.entries)-1 {
		return b.entries[b.cursor], false
	}
	b.cursor++
	return b.entries[b.cursor], true
}

// Current returns the snapshot at the cursor.
func (b *Buffer[T]) Current() T {
	return b.entries[b.cursor]
}

// CanUndo reports whether Undo would move the cursor.
func (b *Buffer[T]) CanUndo() bool { return b.cursor > 0 }

// CanRedo reports whether Redo would move the cursor.
func (b *Buffer[T]) CanRedo() bool { return b.cursor < len(b.entries)-1 }

// Len returns the number of snapshots held.
func (b *Buffer[T]) Len() int { return len(b.entries) }
