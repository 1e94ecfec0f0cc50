package booking

import (
	"time"

	"github.com/BruksfildServices01/service-scheduler/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

func Reschedule(ap *models.Appointment, start, end time.Time) error {
	if err := CanReschedule(Status(ap.Status)); err != nil {
		return err
	}

	ap.StartTime = start
	ap.EndTime = end
	return nil
}

// ===============================
// Booking Request
// ===============================

// Request é o pedido de agendamento em trânsito: validado e descartado.
type Request struct {
	CompanyID      uint
	ProfessionalID uint
	ServiceID      uint

	// data/hora no timezone da empresa
	Date time.Time
	Time string

	// para reagendamento: ignora o próprio horário anterior
	ExcludeAppointmentID uint
}
