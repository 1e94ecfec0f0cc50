package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisQueue é a implementação durável da fila. O conteúdo sobrevive a
// restart do processo; um crash no máximo reprocessa itens cujo lease
// venceu. Cada transição de estado roda num script Lua (atômico no
// servidor), eliminando dupla entrega e perda de mensagem entre o pop
// e a marcação em processamento.
//
// Estruturas:
//
//	notify:q:{high,normal,low}  — listas FIFO (RPUSH produtor, LPOP consumidor)
//	notify:scheduled            — zset por timestamp de prontidão; membro
//	                              prefixado com seq de 20 dígitos para
//	                              desempatar por ordem de inserção
//	notify:processing           — zset de IDs, score = vencimento do lease
//	notify:inflight             — hash id → payload em processamento
//	notify:dead                 — lista terminal, inspeção manual
//	notify:seq                  — contador de inserção
type RedisQueue struct {
	client     *redis.Client
	maxRetries int
	now        func() time.Time
}

func NewRedisQueue(client *redis.Client, maxRetries int) *RedisQueue {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RedisQueue{
		client:     client,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

const (
	keyScheduled  = "notify:scheduled"
	keyProcessing = "notify:processing"
	keyInflight   = "notify:inflight"
	keyDead       = "notify:dead"
	keySeq        = "notify:seq"
)

func queueKey(p Priority) string {
	return fmt.Sprintf("notify:q:%s", p)
}

// ======================================================
// LUA
// ======================================================

var scheduleScript = redis.NewScript(`
local seq = redis.call("INCR", KEYS[2])
local member = string.format("%020d|%s", seq, ARGV[2])
redis.call("ZADD", KEYS[1], ARGV[1], member)
return 1
`)

// pop em ordem estrita de prioridade + marca em processamento
var dequeueScript = redis.NewScript(`
for i = 1, 3 do
	local raw = redis.call("LPOP", KEYS[i])
	if raw then
		local msg = cjson.decode(raw)
		redis.call("ZADD", KEYS[4], ARGV[1], msg["id"])
		redis.call("HSET", KEYS[5], msg["id"], raw)
		return raw
	end
end
return false
`)

var ackScript = redis.NewScript(`
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[2], ARGV[1])
return 1
`)

var retryScript = redis.NewScript(`
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[2], ARGV[1])
local seq = redis.call("INCR", KEYS[4])
local member = string.format("%020d|%s", seq, ARGV[3])
redis.call("ZADD", KEYS[3], ARGV[2], member)
return 1
`)

var deadLetterScript = redis.NewScript(`
redis.call("ZREM", KEYS[1], ARGV[1])
redis.call("HDEL", KEYS[2], ARGV[1])
redis.call("RPUSH", KEYS[3], ARGV[2])
return 1
`)

var promoteScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, 100)
local n = 0
for _, member in ipairs(due) do
	redis.call("ZREM", KEYS[1], member)
	local raw = string.sub(member, 22)
	local ok, msg = pcall(cjson.decode, raw)
	local key = KEYS[3]
	if ok and msg["priority"] == "high" then
		key = KEYS[2]
	elseif ok and msg["priority"] == "low" then
		key = KEYS[4]
	end
	redis.call("RPUSH", key, raw)
	n = n + 1
end
return n
`)

// lease vencido: devolve para a frente da fila da prioridade
var reapScript = redis.NewScript(`
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, 100)
local n = 0
for _, id in ipairs(expired) do
	redis.call("ZREM", KEYS[1], id)
	local raw = redis.call("HGET", KEYS[2], id)
	if raw then
		redis.call("HDEL", KEYS[2], id)
		local ok, msg = pcall(cjson.decode, raw)
		local key = KEYS[4]
		if ok and msg["priority"] == "high" then
			key = KEYS[3]
		elseif ok and msg["priority"] == "low" then
			key = KEYS[5]
		end
		redis.call("LPUSH", key, raw)
		n = n + 1
	end
end
return n
`)

var requeueDeadScript = redis.NewScript(`
local items = redis.call("LRANGE", KEYS[1], 0, -1)
for _, raw in ipairs(items) do
	local ok, msg = pcall(cjson.decode, raw)
	if ok and msg["id"] == ARGV[1] then
		redis.call("LREM", KEYS[1], 1, raw)
		msg["retry_count"] = 0
		msg["last_error"] = nil
		local key = KEYS[3]
		if msg["priority"] == "high" then
			key = KEYS[2]
		elseif msg["priority"] == "low" then
			key = KEYS[4]
		end
		redis.call("RPUSH", key, cjson.encode(msg))
		return 1
	end
end
return 0
`)

// ======================================================
// QUEUE
// ======================================================

func (q *RedisQueue) Enqueue(ctx context.Context, m *Message) (string, error) {
	now := q.now()
	m.normalize(now, q.maxRetries)

	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}

	if m.ScheduledAt != nil && m.ScheduledAt.After(now) {
		err = scheduleScript.Run(ctx, q.client,
			[]string{keyScheduled, keySeq},
			m.ScheduledAt.UnixMilli(), string(raw),
		).Err()
	} else {
		err = q.client.RPush(ctx, queueKey(m.Priority), string(raw)).Err()
	}
	if err != nil {
		return "", err
	}

	return m.ID, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, leaseTTL time.Duration) (*Message, error) {
	leaseExpiry := q.now().Add(leaseTTL).UnixMilli()

	res, err := dequeueScript.Run(ctx, q.client,
		[]string{
			queueKey(PriorityHigh),
			queueKey(PriorityNormal),
			queueKey(PriorityLow),
			keyProcessing,
			keyInflight,
		},
		leaseExpiry,
	).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	raw, ok := res.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected dequeue result %T", res)
	}

	var m Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *RedisQueue) Ack(ctx context.Context, m *Message) error {
	return ackScript.Run(ctx, q.client,
		[]string{keyProcessing, keyInflight},
		m.ID,
	).Err()
}

func (q *RedisQueue) Retry(ctx context.Context, m *Message, readyAt time.Time) error {
	m.ScheduledAt = &readyAt

	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return retryScript.Run(ctx, q.client,
		[]string{keyProcessing, keyInflight, keyScheduled, keySeq},
		m.ID, readyAt.UnixMilli(), string(raw),
	).Err()
}

func (q *RedisQueue) DeadLetter(ctx context.Context, m *Message) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return deadLetterScript.Run(ctx, q.client,
		[]string{keyProcessing, keyInflight, keyDead},
		m.ID, string(raw),
	).Err()
}

func (q *RedisQueue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	n, err := promoteScript.Run(ctx, q.client,
		[]string{keyScheduled, queueKey(PriorityHigh), queueKey(PriorityNormal), queueKey(PriorityLow)},
		now.UnixMilli(),
	).Int()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return n, nil
}

func (q *RedisQueue) ReapExpiredLeases(ctx context.Context, now time.Time) (int, error) {
	n, err := reapScript.Run(ctx, q.client,
		[]string{keyProcessing, keyInflight, queueKey(PriorityHigh), queueKey(PriorityNormal), queueKey(PriorityLow)},
		now.UnixMilli(),
	).Int()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	return n, nil
}

func (q *RedisQueue) DeadLetters(ctx context.Context, limit int64) ([]*Message, error) {
	if limit <= 0 {
		limit = 100
	}
	raws, err := q.client.LRange(ctx, keyDead, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	var out []*Message
	for _, raw := range raws {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

func (q *RedisQueue) RequeueDeadLetter(ctx context.Context, id string) error {
	n, err := requeueDeadScript.Run(ctx, q.client,
		[]string{keyDead, queueKey(PriorityHigh), queueKey(PriorityNormal), queueKey(PriorityLow)},
		id,
	).Int()
	if err != nil && err != redis.Nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dead-letter message %s not found", id)
	}
	return nil
}

func (q *RedisQueue) Stats(ctx context.Context) (*Stats, error) {
	pipe := q.client.Pipeline()
	high := pipe.LLen(ctx, queueKey(PriorityHigh))
	normal := pipe.LLen(ctx, queueKey(PriorityNormal))
	low := pipe.LLen(ctx, queueKey(PriorityLow))
	scheduled := pipe.ZCard(ctx, keyScheduled)
	processing := pipe.ZCard(ctx, keyProcessing)
	dead := pipe.LLen(ctx, keyDead)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	return &Stats{
		High:       high.Val(),
		Normal:     normal.Val(),
		Low:        low.Val(),
		Scheduled:  scheduled.Val(),
		Processing: processing.Val(),
		DeadLetter: dead.Val(),
	}, nil
}

var _ Queue = (*RedisQueue)(nil)
