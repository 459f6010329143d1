package queues

// Ring is a FIFO bounded to a fixed capacity. Pushing onto a full ring evicts the oldest item.
type Ring[T any] struct {
	items    []T
	capacity int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends x and reports whether an item was evicted to make room.
func (r *Ring[T]) Push(x T) bool {
	evicted := false
	if len(r.items) == r.capacity {
		copy(r.items, r.items[1:])
		r.items = r.items[:len(r.items)-1]
		evicted = true
	}
	r.items = append(r.items, x)
	return evicted
}

func (r *Ring[T]) Peek() T {
	return r.items[0]
}

func (r *Ring[T]) Pop() T {
	x := r.items[0]
	copy(r.items, r.items[1:])
	var zero T
	r.items[len(r.items)-1] = zero
	r.items = r.items[:len(r.items)-1]
	return x
}

// Last returns the most recently pushed item.
func (r *Ring[T]) Last() (T, bool) {
	if len(r.items) == 0 {
		var zero T
		return zero, false
	}
	return r.items[len(r.items)-1], true
}

func (r *Ring[T]) At(i int) T {
	return r.items[i]
}

func (r *Ring[T]) Replace(i int, x T) {
	r.items[i] = x
}

// Index returns the position of the first item matching fn, or -1.
func (r *Ring[T]) Index(fn func(T) bool) int {
	for i := range r.items {
		if fn(r.items[i]) {
			return i
		}
	}
	return -1
}

// Items returns a copy of the contents, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Ring[T]) Len() int {
	return len(r.items)
}

func (r *Ring[T]) Cap() int {
	return r.capacity
}

func (r *Ring[T]) IsEmpty() bool {
	return len(r.items) == 0
}
