package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/httpresp"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	create     *booking.CreateBooking
	cancel     *booking.CancelBooking
	complete   *booking.CompleteBooking
	reschedule *booking.RescheduleBooking
	validator  *booking.Validator
}

func NewBookingHandler(
	create *booking.CreateBooking,
	cancel *booking.CancelBooking,
	complete *booking.CompleteBooking,
	reschedule *booking.RescheduleBooking,
	validator *booking.Validator,
) *BookingHandler {
	return &BookingHandler{
		create:     create,
		cancel:     cancel,
		complete:   complete,
		reschedule: reschedule,
		validator:  validator,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	ProfessionalID uint   `json:"professional_id" binding:"required"`
	ServiceID      uint   `json:"service_id" binding:"required"`
	CustomerName   string `json:"customer_name" binding:"required"`
	CustomerPhone  string `json:"customer_phone"`
	CustomerEmail  string `json:"customer_email"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Notes          string `json:"notes"`
}

type RescheduleBookingRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

// ======================================================
// POST /api/companies/:companyId/appointments
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, result, err := h.create.Execute(c.Request.Context(), booking.CreateBookingInput{
		CompanyID:      companyID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !result.Valid {
		h.writeRejection(c, result, domain.Request{
			CompanyID:      companyID,
			ProfessionalID: req.ProfessionalID,
			ServiceID:      req.ServiceID,
			Date:           parseDateLoose(req.Date),
			Time:           req.Time,
		})
		return
	}

	httpresp.Created(c, ap)
}

// ======================================================
// PATCH /api/companies/:companyId/appointments/:id/...
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}
	appointmentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), companyID, appointmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}
	appointmentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), companyID, appointmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	httpresp.OK(c, ap)
}

func (h *BookingHandler) Reschedule(c *gin.Context) {
	companyID, ok := paramID(c, "companyId")
	if !ok {
		return
	}
	appointmentID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req RescheduleBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Dados inválidos.")
		return
	}

	ap, result, err := h.reschedule.Execute(c.Request.Context(), booking.RescheduleBookingInput{
		CompanyID:     companyID,
		AppointmentID: appointmentID,
		Date:          req.Date,
		Time:          req.Time,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !result.Valid {
		h.writeRejection(c, result, domain.Request{
			CompanyID:            companyID,
			ExcludeAppointmentID: appointmentID,
			Date:                 parseDateLoose(req.Date),
			Time:                 req.Time,
		})
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// HELPERS
// ======================================================

// rejeição de negócio: 422 com código de máquina, mensagem humana e,
// quando faz sentido, horários alternativos do mesmo dia.
func (h *BookingHandler) writeRejection(c *gin.Context, result *booking.ValidationResult, req domain.Request) {
	body := gin.H{
		"error_code": result.Code,
		"message":    result.Message,
	}

	if req.ProfessionalID > 0 && req.ServiceID > 0 {
		if alternatives, err := h.validator.SuggestAlternativeTimes(c.Request.Context(), req, 3); err == nil && len(alternatives) > 0 {
			body["suggested_times"] = alternatives
		}
	}

	c.JSON(422, body)
}

func (h *BookingHandler) writeError(c *gin.Context, err error) {
	if httperr.IsNotFound(err) {
		httperr.NotFound(c, err.Error(), "Recurso não encontrado.")
		return
	}
	if code, ok := httperr.CodeOf(err); ok {
		if code == "invalid_state" {
			httperr.Conflict(c, code, "Agendamento não está mais ativo.")
			return
		}
		httperr.BadRequest(c, code, "Operação rejeitada.")
		return
	}
	httperr.Internal(c, "booking_failed", "Erro ao processar agendamento.")
}

func parseDateLoose(raw string) time.Time {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
