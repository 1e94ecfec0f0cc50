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

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	CompanyID      uint
	ProfessionalID uint
	ServiceID      uint

	CustomerName  string
	CustomerPhone string
	CustomerEmail string

	Date  string // 2006-01-02
	Time  string // 15:04
	Notes string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	repo      domain.Repository
	validator *Validator
	engine    *availability.Engine
	queue     notify.Queue
	audit     *audit.Dispatcher
	logger    *zap.Logger
}

func NewCreateBooking(
	repo domain.Repository,
	validator *Validator,
	engine *availability.Engine,
	queue notify.Queue,
	auditor *audit.Dispatcher,
	logger *zap.Logger,
) *CreateBooking {
	return &CreateBooking{
		repo:      repo,
		validator: validator,
		engine:    engine,
		queue:     queue,
		audit:     auditor,
		logger:    logger,
	}
}

// ======================================================
// EXECUTE
// ======================================================

// Execute valida, persiste (com reconferência transacional de conflito),
// enfileira as notificações, invalida o cache do dia e audita.
// Reprovação de negócio vem no ValidationResult, não como erro.
func (uc *CreateBooking) Execute(ctx context.Context, in CreateBookingInput) (*models.Appointment, *ValidationResult, error) {
	company, err := uc.repo.GetCompanyByID(ctx, in.CompanyID)
	if err != nil || company == nil {
		return nil, nil, httperr.ErrNotFound("company_not_found")
	}
	loc := timezone.Location(company.Timezone)

	date, err := time.ParseInLocation("2006-01-02", in.Date, loc)
	if err != nil {
		return nil, rejected("invalid_date_or_time", "data ou horário inválido"), nil
	}

	req := domain.Request{
		CompanyID:      in.CompanyID,
		ProfessionalID: in.ProfessionalID,
		ServiceID:      in.ServiceID,
		Date:           date,
		Time:           in.Time,
	}

	result, resolved, err := uc.validator.Validate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if !result.Valid {
		return nil, result, nil
	}

	customer, err := uc.repo.GetOrCreateCustomer(
		ctx,
		in.CompanyID,
		in.CustomerName,
		in.CustomerPhone,
		in.CustomerEmail,
	)
	if err != nil {
		return nil, nil, err
	}

	ap := &models.Appointment{
		CompanyID:      in.CompanyID,
		ProfessionalID: in.ProfessionalID,
		CustomerID:     customer.ID,
		ServiceID:      resolved.Service.ID,
		StartTime:      resolved.Start,
		EndTime:        resolved.End,
		Status:         string(domain.InitialStatus()),
		Notes:          in.Notes,
	}

	// a transação reconfere o conflito: corrida de commit vira rejeição
	if err := uc.repo.CreateAppointmentChecked(ctx, ap); err != nil {
		if httperr.IsBusiness(err, "time_conflict") {
			return nil, rejected("time_conflict", "horário já ocupado"), nil
		}
		return nil, nil, err
	}

	uc.enqueueLifecycleNotifications(ctx, ap, customer, resolved, in)

	uc.engine.Invalidate(ctx, in.ProfessionalID, resolved.Start)

	uc.audit.Dispatch(audit.Event{
		CompanyID: in.CompanyID,
		Action:    "appointment_created",
		Entity:    "appointment",
		EntityID:  &ap.ID,
	})

	return ap, result, nil
}

// confirmação imediata (alta prioridade) + lembrete 24h antes (normal,
// agendado — só quando ainda há 24h pela frente).
func (uc *CreateBooking) enqueueLifecycleNotifications(
	ctx context.Context,
	ap *models.Appointment,
	customer *models.Customer,
	resolved *Resolved,
	in CreateBookingInput,
) {
	channel, recipient := notificationChannel(customer)
	if channel == "" {
		return
	}
	vars := notificationVariables(customer, resolved.Service, in.Date, in.Time)

	enqueueNotification(ctx, uc.queue, uc.logger, &notify.Message{
		Recipient:     recipient,
		Channel:       channel,
		Priority:      notify.PriorityHigh,
		Type:          notify.TypeConfirmation,
		TemplateKey:   "confirmation",
		Variables:     vars,
		AppointmentID: &ap.ID,
	})

	remindAt := resolved.Start.Add(-24 * time.Hour)
	if remindAt.After(time.Now()) {
		enqueueNotification(ctx, uc.queue, uc.logger, &notify.Message{
			Recipient:     recipient,
			Channel:       channel,
			Priority:      notify.PriorityNormal,
			Type:          notify.TypeReminder,
			TemplateKey:   "reminder",
			Variables:     vars,
			AppointmentID: &ap.ID,
			ScheduledAt:   &remindAt,
		})
	}
}
