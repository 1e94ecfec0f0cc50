package notify

import (
	"context"
	"errors"
	"time"
)

// ErrChannelNotConfigured é falha de configuração: retry não ajuda.
var ErrChannelNotConfigured = errors.New("notification channel not configured")

// Stats expõe a profundidade de cada estrutura da fila.
type Stats struct {
	High       int64 `json:"high"`
	Normal     int64 `json:"normal"`
	Low        int64 `json:"low"`
	Scheduled  int64 `json:"scheduled"`
	Processing int64 `json:"processing"`
	DeadLetter int64 `json:"dead_letter"`
}

// Queue é a fila de notificações: três filas FIFO por prioridade,
// conjunto agendado ordenado por prontidão, conjunto em processamento
// com lease e lista dead-letter. Toda transição de estado é atômica.
//
// Implementações: RedisQueue (durável, produção) e MemoryQueue (testes).
type Queue interface {
	// Enqueue insere a mensagem: ScheduledAt futuro vai para o conjunto
	// agendado; caso contrário entra na fila da prioridade. Retorna o ID.
	Enqueue(ctx context.Context, m *Message) (string, error)

	// Dequeue remove a próxima mensagem em ordem estrita de prioridade
	// (high → normal → low) e a marca em processamento com lease até
	// now+leaseTTL. Sem trabalho pronto: (nil, nil).
	Dequeue(ctx context.Context, leaseTTL time.Duration) (*Message, error)

	// Ack remove a mensagem do conjunto em processamento (entrega ok).
	Ack(ctx context.Context, m *Message) error

	// Retry tira do processamento e reagenda para readyAt.
	Retry(ctx context.Context, m *Message, readyAt time.Time) error

	// DeadLetter tira do processamento e move para a lista terminal.
	DeadLetter(ctx context.Context, m *Message) error

	// PromoteDue move itens agendados já prontos para suas filas de
	// prioridade. Retorna quantos foram promovidos.
	PromoteDue(ctx context.Context, now time.Time) (int, error)

	// ReapExpiredLeases devolve às filas mensagens cujo lease venceu
	// (worker travado/morto). Retorna quantas voltaram.
	ReapExpiredLeases(ctx context.Context, now time.Time) (int, error)

	DeadLetters(ctx context.Context, limit int64) ([]*Message, error)

	// RequeueDeadLetter reenvia manualmente uma mensagem dead-letter,
	// zerando o contador de retries.
	RequeueDeadLetter(ctx context.Context, id string) error

	Stats(ctx context.Context) (*Stats, error)
}

func priorities() []Priority {
	return []Priority{PriorityHigh, PriorityNormal, PriorityLow}
}
