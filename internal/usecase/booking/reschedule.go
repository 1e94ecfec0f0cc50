package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

type RescheduleBookingInput struct {
	CompanyID     uint
	AppointmentID uint

	Date string // 2006-01-02
	Time string // 15:04
}

type RescheduleBooking struct {
	repo      domain.Repository
	validator *Validator
	engine    *availability.Engine
	queue     notify.Queue
	audit     *audit.Dispatcher
	logger    *zap.Logger
}

func NewRescheduleBooking(
	repo domain.Repository,
	validator *Validator,
	engine *availability.Engine,
	queue notify.Queue,
	auditor *audit.Dispatcher,
	logger *zap.Logger,
) *RescheduleBooking {
	return &RescheduleBooking{
		repo:      repo,
		validator: validator,
		engine:    engine,
		queue:     queue,
		audit:     auditor,
		logger:    logger,
	}
}

// Execute move o agendamento para o novo horário. A validação ignora o
// próprio horário anterior (senão todo reagendamento conflitaria consigo
// mesmo) e o commit reconfere o conflito em transação.
func (uc *RescheduleBooking) Execute(ctx context.Context, in RescheduleBookingInput) (*models.Appointment, *ValidationResult, error) {
	company, err := uc.repo.GetCompanyByID(ctx, in.CompanyID)
	if err != nil || company == nil {
		return nil, nil, httperr.ErrNotFound("company_not_found")
	}
	loc := timezone.Location(company.Timezone)

	ap, err := uc.repo.GetAppointment(ctx, in.CompanyID, in.AppointmentID)
	if err != nil || ap == nil {
		return nil, nil, httperr.ErrNotFound("appointment_not_found")
	}

	if err := domain.CanReschedule(domain.Status(ap.Status)); err != nil {
		return nil, nil, err
	}

	date, err := time.ParseInLocation("2006-01-02", in.Date, loc)
	if err != nil {
		return nil, rejected("invalid_date_or_time", "data ou horário inválido"), nil
	}

	result, resolved, err := uc.validator.Validate(ctx, domain.Request{
		CompanyID:            in.CompanyID,
		ProfessionalID:       ap.ProfessionalID,
		ServiceID:            ap.ServiceID,
		Date:                 date,
		Time:                 in.Time,
		ExcludeAppointmentID: ap.ID,
	})
	if err != nil {
		return nil, nil, err
	}
	if !result.Valid {
		return nil, result, nil
	}

	oldStart := ap.StartTime

	if err := uc.repo.RescheduleAppointmentChecked(ctx, ap, resolved.Start, resolved.End); err != nil {
		if httperr.IsBusiness(err, "time_conflict") {
			return nil, rejected("time_conflict", "horário já ocupado"), nil
		}
		return nil, nil, err
	}

	// os dois dias mudaram de cara; dias cacheados no timezone da empresa
	uc.engine.Invalidate(ctx, ap.ProfessionalID, oldStart.In(loc))
	uc.engine.Invalidate(ctx, ap.ProfessionalID, resolved.Start)

	channel, recipient := notificationChannel(&ap.Customer)
	if channel != "" {
		enqueueNotification(ctx, uc.queue, uc.logger, &notify.Message{
			Recipient:     recipient,
			Channel:       channel,
			Priority:      notify.PriorityHigh,
			Type:          notify.TypeReschedule,
			TemplateKey:   "reschedule",
			Variables:     notificationVariables(&ap.Customer, &ap.Service, in.Date, in.Time),
			AppointmentID: &ap.ID,
		})
	}

	uc.audit.Dispatch(audit.Event{
		CompanyID: in.CompanyID,
		Action:    "appointment_rescheduled",
		Entity:    "appointment",
		EntityID:  &ap.ID,
	})

	return ap, result, nil
}
