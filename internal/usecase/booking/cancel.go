package booking

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

type CancelBooking struct {
	repo   domain.Repository
	engine *availability.Engine
	queue  notify.Queue
	audit  *audit.Dispatcher
	logger *zap.Logger
}

func NewCancelBooking(
	repo domain.Repository,
	engine *availability.Engine,
	queue notify.Queue,
	auditor *audit.Dispatcher,
	logger *zap.Logger,
) *CancelBooking {
	return &CancelBooking{
		repo:   repo,
		engine: engine,
		queue:  queue,
		audit:  auditor,
		logger: logger,
	}
}

func (uc *CancelBooking) Execute(ctx context.Context, companyID, appointmentID uint) (*models.Appointment, error) {
	company, err := uc.repo.GetCompanyByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, httperr.ErrNotFound("company_not_found")
	}

	ap, err := uc.repo.GetAppointment(ctx, companyID, appointmentID)
	if err != nil || ap == nil {
		return nil, httperr.ErrNotFound("appointment_not_found")
	}

	now := timezone.NowIn(company.Timezone)
	if err := domain.Cancel(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	loc := timezone.Location(company.Timezone)
	start := ap.StartTime.In(loc)

	// o slot voltou a ficar livre; a chave do dia é no timezone da empresa
	uc.engine.Invalidate(ctx, ap.ProfessionalID, start)

	channel, recipient := notificationChannel(&ap.Customer)
	if channel != "" {
		enqueueNotification(ctx, uc.queue, uc.logger, &notify.Message{
			Recipient:     recipient,
			Channel:       channel,
			Priority:      notify.PriorityHigh,
			Type:          notify.TypeCancellation,
			TemplateKey:   "cancellation",
			Variables:     notificationVariables(&ap.Customer, &ap.Service, timezone.DateKey(start), start.Format("15:04")),
			AppointmentID: &ap.ID,
		})
	}

	uc.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		Action:    "appointment_cancelled",
		Entity:    "appointment",
		EntityID:  &ap.ID,
	})

	return ap, nil
}
