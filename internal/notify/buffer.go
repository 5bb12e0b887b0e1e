package notify

import (
	"sync"

	"givecycle/internal/matching/models"
)

// ringBuffer is a bounded FIFO of intents. When full, the oldest intent is
// dropped to make room.
type ringBuffer struct {
	mu       sync.Mutex
	items    []models.Intent
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	return &ringBuffer{
		items:    make([]models.Intent, capacity),
		capacity: capacity,
	}
}

// push adds an intent and reports whether an older one was dropped.
func (b *ringBuffer) push(intent models.Intent) (droppedOldest bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.items[b.tail] = models.Intent{}
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		droppedOldest = true
	}

	b.items[b.head] = intent
	b.head = (b.head + 1) % b.capacity
	b.count++
	return droppedOldest
}

// popBatch removes up to n intents, oldest first.
func (b *ringBuffer) popBatch(n int) []models.Intent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	n = min(n, b.count)

	out := make([]models.Intent, n)
	for i := 0; i < n; i++ {
		out[i] = b.items[b.tail]
		b.items[b.tail] = models.Intent{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedTotal() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
