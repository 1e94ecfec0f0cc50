package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Worker é o consumidor da fila: um laço lógico por instância.
// Promoção de itens agendados roda num ticker próprio (~30s),
// independente do laço principal; o laço dorme quando não há trabalho
// pronto em vez de girar em vazio.
type Worker struct {
	queue    Queue
	senders  *SenderRegistry
	renderer TemplateRenderer
	recorder DeliveryRecorder
	logger   *zap.Logger

	pollInterval    time.Duration
	promoteInterval time.Duration
	leaseTTL        time.Duration

	now       func() time.Time
	startedAt time.Time
}

type WorkerConfig struct {
	PollInterval    time.Duration
	PromoteInterval time.Duration
	LeaseTTL        time.Duration
}

func NewWorker(
	queue Queue,
	senders *SenderRegistry,
	renderer TemplateRenderer,
	recorder DeliveryRecorder,
	logger *zap.Logger,
	cfg WorkerConfig,
) *Worker {

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.PromoteInterval <= 0 {
		cfg.PromoteInterval = 30 * time.Second
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 2 * time.Minute
	}

	return &Worker{
		queue:           queue,
		senders:         senders,
		renderer:        renderer,
		recorder:        recorder,
		logger:          logger,
		pollInterval:    cfg.PollInterval,
		promoteInterval: cfg.PromoteInterval,
		leaseTTL:        cfg.LeaseTTL,
		now:             time.Now,
	}
}

// Run consome até o contexto encerrar.
func (w *Worker) Run(ctx context.Context) {
	w.startedAt = w.now()
	w.logger.Info("notification worker started")

	go w.promoteLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("notification worker stopped")
			return
		default:
		}

		processed, err := w.ProcessOne(ctx)
		if err != nil {
			w.logger.Error("notification worker: dequeue failed", zap.Error(err))
		}

		if !processed {
			select {
			case <-ctx.Done():
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// promoteLoop move agendados prontos e devolve leases vencidos, em
// intervalo fixo, ativo ou não o laço principal.
func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.promoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := w.now()

			if n, err := w.queue.PromoteDue(ctx, now); err != nil {
				w.logger.Error("notification worker: promote failed", zap.Error(err))
			} else if n > 0 {
				w.logger.Debug("promoted scheduled messages", zap.Int("count", n))
			}

			if n, err := w.queue.ReapExpiredLeases(ctx, now); err != nil {
				w.logger.Error("notification worker: lease reap failed", zap.Error(err))
			} else if n > 0 {
				w.logger.Warn("requeued messages with expired lease", zap.Int("count", n))
			}
		}
	}
}

// ProcessOne tenta despachar a próxima mensagem pronta.
// Retorna false quando não havia trabalho.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	m, err := w.queue.Dequeue(ctx, w.leaseTTL)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}

	w.process(ctx, m)
	return true, nil
}

func (w *Worker) process(ctx context.Context, m *Message) {
	sender, ok := w.senders.Get(m.Channel)
	if !ok {
		w.terminal(ctx, m, ErrChannelNotConfigured)
		return
	}

	content := m.Body
	if content == "" && m.TemplateKey != "" {
		rendered, err := w.renderer.Render(m.TemplateKey, m.Variables)
		if err != nil {
			// template quebrado: retry não resolve
			w.terminal(ctx, m, err)
			return
		}
		content = rendered
	}

	providerID, err := sender.Send(ctx, m.Recipient, content)
	if err == nil {
		if ackErr := w.queue.Ack(ctx, m); ackErr != nil {
			w.logger.Error("notification worker: ack failed", zap.String("message_id", m.ID), zap.Error(ackErr))
		}
		w.recorder.Record(ctx, m, DeliveryDelivered, providerID, "")
		w.logger.Info("notification delivered",
			zap.String("message_id", m.ID),
			zap.String("channel", string(m.Channel)),
			zap.String("type", string(m.Type)),
		)
		return
	}

	if errors.Is(err, ErrChannelNotConfigured) {
		// falha de configuração: repetir não pode dar certo
		w.terminal(ctx, m, err)
		return
	}

	w.transient(ctx, m, err)
}

// transient: falha de entrega com retry e backoff exponencial.
func (w *Worker) transient(ctx context.Context, m *Message, cause error) {
	m.RetryCount++
	m.LastError = cause.Error()

	if m.RetryCount >= m.MaxRetries {
		if err := w.queue.DeadLetter(ctx, m); err != nil {
			w.logger.Error("notification worker: dead-letter failed", zap.String("message_id", m.ID), zap.Error(err))
		}
		w.recorder.Record(ctx, m, DeliveryFailed, "", m.LastError)
		w.logger.Error("notification dead-lettered",
			zap.String("message_id", m.ID),
			zap.Int("retries", m.RetryCount),
			zap.Error(cause),
		)
		return
	}

	readyAt := w.now().Add(m.NextRetryDelay())
	if err := w.queue.Retry(ctx, m, readyAt); err != nil {
		w.logger.Error("notification worker: retry schedule failed", zap.String("message_id", m.ID), zap.Error(err))
	}
	w.recorder.Record(ctx, m, DeliveryRetrying, "", m.LastError)
	w.logger.Warn("notification delivery failed, scheduled retry",
		zap.String("message_id", m.ID),
		zap.Int("retry", m.RetryCount),
		zap.Time("ready_at", readyAt),
	)
}

// terminal: falha sem retry (configuração, template).
func (w *Worker) terminal(ctx context.Context, m *Message, cause error) {
	m.LastError = cause.Error()

	if err := w.queue.DeadLetter(ctx, m); err != nil {
		w.logger.Error("notification worker: dead-letter failed", zap.String("message_id", m.ID), zap.Error(err))
	}
	w.recorder.Record(ctx, m, DeliveryFailed, "", m.LastError)
	w.logger.Error("notification failed without retry",
		zap.String("message_id", m.ID),
		zap.String("channel", string(m.Channel)),
		zap.Error(cause),
	)
}

// Uptime do worker, exposto nas estatísticas da fila.
func (w *Worker) Uptime() time.Duration {
	if w.startedAt.IsZero() {
		return 0
	}
	return w.now().Sub(w.startedAt)
}
