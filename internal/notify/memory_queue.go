package notify

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryQueue implementa Queue em memória, com as mesmas garantias de
// ordenação da RedisQueue. Um único mutex serializa toda transição de
// estado. Uso: testes e ambientes sem Redis — não é durável.
type MemoryQueue struct {
	mu sync.Mutex

	queues     map[Priority][]*Message
	scheduled  []scheduledItem
	processing map[string]inflightItem
	dead       []*Message

	seq        int64
	maxRetries int
	now        func() time.Time
}

type scheduledItem struct {
	readyAt time.Time
	seq     int64
	msg     *Message
}

type inflightItem struct {
	leaseExpiry time.Time
	msg         *Message
}

func NewMemoryQueue(maxRetries int) *MemoryQueue {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &MemoryQueue{
		queues: map[Priority][]*Message{
			PriorityHigh:   {},
			PriorityNormal: {},
			PriorityLow:    {},
		},
		processing: map[string]inflightItem{},
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// SetNow troca o relógio (testes).
func (q *MemoryQueue) SetNow(now func() time.Time) {
	q.now = now
}

func (q *MemoryQueue) Enqueue(ctx context.Context, m *Message) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	m.normalize(now, q.maxRetries)

	if m.ScheduledAt != nil && m.ScheduledAt.After(now) {
		q.schedule(m, *m.ScheduledAt)
	} else {
		q.queues[m.Priority] = append(q.queues[m.Priority], m)
	}

	return m.ID, nil
}

// schedule insere ordenado por prontidão, empate por ordem de inserção.
func (q *MemoryQueue) schedule(m *Message, readyAt time.Time) {
	q.seq++
	item := scheduledItem{readyAt: readyAt, seq: q.seq, msg: m}

	idx := sort.Search(len(q.scheduled), func(i int) bool {
		if q.scheduled[i].readyAt.Equal(item.readyAt) {
			return q.scheduled[i].seq > item.seq
		}
		return q.scheduled[i].readyAt.After(item.readyAt)
	})

	q.scheduled = append(q.scheduled, scheduledItem{})
	copy(q.scheduled[idx+1:], q.scheduled[idx:])
	q.scheduled[idx] = item
}

func (q *MemoryQueue) Dequeue(ctx context.Context, leaseTTL time.Duration) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, p := range priorities() {
		if len(q.queues[p]) == 0 {
			continue
		}

		m := q.queues[p][0]
		q.queues[p] = q.queues[p][1:]
		q.processing[m.ID] = inflightItem{
			leaseExpiry: q.now().Add(leaseTTL),
			msg:         m,
		}
		return m, nil
	}

	return nil, nil
}

func (q *MemoryQueue) Ack(ctx context.Context, m *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, m.ID)
	return nil
}

func (q *MemoryQueue) Retry(ctx context.Context, m *Message, readyAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, m.ID)
	m.ScheduledAt = &readyAt
	q.schedule(m, readyAt)
	return nil
}

func (q *MemoryQueue) DeadLetter(ctx context.Context, m *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.processing, m.ID)
	q.dead = append(q.dead, m)
	return nil
}

func (q *MemoryQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for len(q.scheduled) > 0 && !q.scheduled[0].readyAt.After(now) {
		item := q.scheduled[0]
		q.scheduled = q.scheduled[1:]
		q.queues[item.msg.Priority] = append(q.queues[item.msg.Priority], item.msg)
		n++
	}
	return n, nil
}

func (q *MemoryQueue) ReapExpiredLeases(ctx context.Context, now time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for id, item := range q.processing {
		if item.leaseExpiry.After(now) {
			continue
		}
		delete(q.processing, id)
		// volta para a frente da fila da prioridade
		q.queues[item.msg.Priority] = append([]*Message{item.msg}, q.queues[item.msg.Priority]...)
		n++
	}
	return n, nil
}

func (q *MemoryQueue) DeadLetters(ctx context.Context, limit int64) ([]*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if limit <= 0 || limit > int64(len(q.dead)) {
		limit = int64(len(q.dead))
	}

	out := make([]*Message, limit)
	copy(out, q.dead[:limit])
	return out, nil
}

func (q *MemoryQueue) RequeueDeadLetter(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.dead {
		if m.ID == id {
			q.dead = append(q.dead[:i], q.dead[i+1:]...)
			m.RetryCount = 0
			m.LastError = ""
			q.queues[m.Priority] = append(q.queues[m.Priority], m)
			return nil
		}
	}
	return fmt.Errorf("dead-letter message %s not found", id)
}

func (q *MemoryQueue) Stats(ctx context.Context) (*Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return &Stats{
		High:       int64(len(q.queues[PriorityHigh])),
		Normal:     int64(len(q.queues[PriorityNormal])),
		Low:        int64(len(q.queues[PriorityLow])),
		Scheduled:  int64(len(q.scheduled)),
		Processing: int64(len(q.processing)),
		DeadLetter: int64(len(q.dead)),
	}, nil
}

var _ Queue = (*MemoryQueue)(nil)
