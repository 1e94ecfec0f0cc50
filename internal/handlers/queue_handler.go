package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
)

// ======================================================
// HANDLER
// ======================================================

// QueueHandler é a superfície administrativa da fila de notificações:
// profundidade, dead letters e reenvio manual.
type QueueHandler struct {
	queue  notify.Queue
	worker *notify.Worker
}

func NewQueueHandler(queue notify.Queue, worker *notify.Worker) *QueueHandler {
	return &QueueHandler{
		queue:  queue,
		worker: worker,
	}
}

// GET /api/queue/stats
func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		httperr.Internal(c, "queue_stats_failed", "Erro ao consultar a fila.")
		return
	}

	httpresp.OK(c, gin.H{
		"queues":         stats,
		"uptime_seconds": int64(h.worker.Uptime().Seconds()),
	})
}

// GET /api/queue/dead-letters
func (h *QueueHandler) DeadLetters(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	messages, err := h.queue.DeadLetters(c.Request.Context(), limit)
	if err != nil {
		httperr.Internal(c, "dead_letter_list_failed", "Erro ao listar dead letters.")
		return
	}

	httpresp.List(c, messages)
}

// POST /api/queue/dead-letters/:id/requeue
func (h *QueueHandler) Requeue(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return
	}

	if err := h.queue.RequeueDeadLetter(c.Request.Context(), id); err != nil {
		httperr.NotFound(c, "dead_letter_not_found", "Mensagem não encontrada na dead-letter.")
		return
	}

	httpresp.OK(c, gin.H{"status": "requeued"})
}
