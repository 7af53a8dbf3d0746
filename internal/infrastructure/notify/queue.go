// Package notify keeps user-facing messages until a client drains them.
package notify

import (
	"sync"

	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"

	"github.com/google/uuid"
)

// Queue is a bounded in-memory message queue. When full, the oldest
// message is dropped to make room.
type Queue struct {
	mu       sync.Mutex
	messages []entity.Message
	capacity int
	dropped  int
	logger   port.Logger
}

// NewQueue creates a Queue holding at most capacity messages.
func NewQueue(capacity int, logger port.Logger) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		messages: make([]entity.Message, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Notify enqueues msg, assigning it an ID if it has none.
func (q *Queue) Notify(msg entity.Message) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == q.capacity {
		q.messages = q.messages[1:]
		q.dropped++
		q.logger.Warn("Message queue full, dropping oldest message", "capacity", q.capacity, "dropped_total", q.dropped)
	}
	q.messages = append(q.messages, msg)
	q.logger.Debug("Message queued", "id", msg.ID, "title", msg.Title, "success", msg.Success)
}

// Drain returns every queued message in arrival order and empties the queue.
func (q *Queue) Drain() []entity.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.messages
	q.messages = make([]entity.Message, 0, q.capacity)
	return out
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}
