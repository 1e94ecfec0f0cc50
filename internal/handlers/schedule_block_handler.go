package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

// ======================================================
// HANDLER
// ======================================================

type ScheduleBlockHandler struct {
	repo   domain.Repository
	engine *availability.Engine
}

func NewScheduleBlockHandler(repo domain.Repository, engine *availability.Engine) *ScheduleBlockHandler {
	return &ScheduleBlockHandler{
		repo:   repo,
		engine: engine,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBlockRequest struct {
	ProfessionalID *uint  `json:"professional_id"` // nulo = empresa inteira
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	BlockType      string `json:"block_type"`
	Reason         string `json:"reason"`
}

// ======================================================
// GET /api/companies/:companyId/blocks
// ======================================================

func (h *ScheduleBlockHandler) List(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}

	blocks, err := h.repo.ListBlocks(c.Request.Context(), companyID)
	if err != nil {
		httperr.Internal(c, "block_list_failed", "Erro ao listar bloqueios.")
		return
	}

	httpresp.List(c, blocks)
}

// ======================================================
// POST /api/companies/:companyId/blocks
// ======================================================

func (h *ScheduleBlockHandler) Create(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}

	var req CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	startDate, err1 := time.Parse("2006-01-02", req.StartDate)
	endDate, err2 := time.Parse("2006-01-02", req.EndDate)
	if err1 != nil || err2 != nil || endDate.Before(startDate) {
		httperr.BadRequest(c, "invalid_date", "Período inválido.")
		return
	}

	// ou os dois horários, ou nenhum (dia inteiro)
	if (req.StartTime == "") != (req.EndTime == "") {
		httperr.BadRequest(c, "invalid_time_range", "Horário de bloqueio incompleto.")
		return
	}

	blockType := req.BlockType
	if blockType == "" {
		blockType = "other"
	}

	block := &models.ScheduleBlock{
		CompanyID:      companyID,
		ProfessionalID: req.ProfessionalID,
		StartDate:      startDate,
		EndDate:        endDate,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		BlockType:      blockType,
		Reason:         req.Reason,
		Active:         true,
	}

	if err := h.repo.CreateBlock(c.Request.Context(), block); err != nil {
		httperr.Internal(c, "block_create_failed", "Erro ao criar bloqueio.")
		return
	}

	h.invalidateRange(c, block)
	httpresp.Created(c, block)
}

// ======================================================
// PATCH /api/companies/:companyId/blocks/:id/deactivate
// ======================================================

func (h *ScheduleBlockHandler) Deactivate(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}
	blockID, ok := paramID(c, "id")
	if !ok {
		return
	}

	block, err := h.repo.GetBlockByID(c.Request.Context(), companyID, blockID)
	if err != nil {
		httperr.Internal(c, "block_get_failed", "Erro ao buscar bloqueio.")
		return
	}
	if block == nil {
		httperr.NotFound(c, "block_not_found", "Bloqueio não encontrado.")
		return
	}

	block.Active = false
	if err := h.repo.UpdateBlock(c.Request.Context(), block); err != nil {
		httperr.Internal(c, "block_update_failed", "Erro ao atualizar bloqueio.")
		return
	}

	h.invalidateRange(c, block)
	httpresp.OK(c, block)
}

// ======================================================
// HELPERS
// ======================================================

// invalidateRange descarta o cache dos dias cobertos pelo bloqueio.
// Bloqueio de empresa inteira invalida a agenda de todos os
// profissionais ativos.
func (h *ScheduleBlockHandler) invalidateRange(c *gin.Context, block *models.ScheduleBlock) {
	ctx := c.Request.Context()

	var ids []uint
	if block.ProfessionalID != nil {
		ids = []uint{*block.ProfessionalID}
	} else {
		professionals, err := h.repo.ListProfessionals(ctx, block.CompanyID)
		if err != nil {
			// falha de invalidação não derruba a requisição; o TTL cobre
			return
		}
		for _, p := range professionals {
			ids = append(ids, p.ID)
		}
	}

	const maxInvalidateDays = 62
	days := 0
	for d := block.StartDate; !d.After(block.EndDate) && days < maxInvalidateDays; d = d.AddDate(0, 0, 1) {
		for _, id := range ids {
			h.engine.Invalidate(ctx, id, d)
		}
		days++
	}
}
