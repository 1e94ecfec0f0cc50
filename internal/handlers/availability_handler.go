package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

// ======================================================
// HANDLER
// ======================================================

type AvailabilityHandler struct {
	engine *availability.Engine
}

func NewAvailabilityHandler(engine *availability.Engine) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

// ======================================================
// GET /api/companies/:companyId/availability
// ======================================================

func (h *AvailabilityHandler) Get(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}

	professionalID, err := strconv.ParseUint(c.Query("professional_id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_professional_id", "Profissional inválido.")
		return
	}

	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 32)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Serviço inválido.")
		return
	}

	startDate := time.Now()
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inválida.")
			return
		}
		startDate = parsed
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days <= 0 || days > 31 {
		days = 7
	}

	result, err := h.engine.GetAvailability(c.Request.Context(), availability.Input{
		CompanyID:      companyID,
		ProfessionalID: uint(professionalID),
		ServiceID:      uint(serviceID),
		StartDate:      startDate,
		Days:           days,
	})
	if err != nil {
		if code, okCode := httperr.CodeOf(err); okCode || httperr.IsNotFound(err) {
			if code == "" {
				code = err.Error()
			}
			httperr.NotFound(c, code, "Recurso não encontrado.")
			return
		}
		httperr.Internal(c, "availability_failed", "Erro ao calcular disponibilidade.")
		return
	}

	httpresp.OK(c, result)
}

// ======================================================
// GET /api/companies/:companyId/availability/check
// ======================================================

func (h *AvailabilityHandler) Check(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}

	professionalID, err1 := strconv.ParseUint(c.Query("professional_id"), 10, 32)
	serviceID, err2 := strconv.ParseUint(c.Query("service_id"), 10, 32)
	if err1 != nil || err2 != nil {
		httperr.BadRequest(c, "invalid_request", "Profissional ou serviço inválido.")
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida.")
		return
	}

	clock := c.Query("time")
	if clock == "" {
		httperr.BadRequest(c, "invalid_time", "Horário obrigatório.")
		return
	}

	available, reason, err := h.engine.CheckSlot(c.Request.Context(), availability.CheckInput{
		CompanyID:      companyID,
		ProfessionalID: uint(professionalID),
		ServiceID:      uint(serviceID),
		Date:           date,
		Time:           clock,
	})
	if err != nil {
		if httperr.IsNotFound(err) {
			httperr.NotFound(c, err.Error(), "Recurso não encontrado.")
			return
		}
		httperr.Internal(c, "availability_failed", "Erro ao verificar horário.")
		return
	}

	httpresp.OK(c, gin.H{
		"available": available,
		"reason":    reason,
	})
}

// ======================================================
// HELPERS
// ======================================================

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "Identificador inválido.")
		return 0, false
	}
	return uint(id), true
}
