package booking

import (
	"context"

	"github.com/BruksfildServices01/service-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
)

type CompleteBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCompleteBooking(repo domain.Repository, auditor *audit.Dispatcher) *CompleteBooking {
	return &CompleteBooking{
		repo:  repo,
		audit: auditor,
	}
}

func (uc *CompleteBooking) Execute(ctx context.Context, companyID, appointmentID uint) (*models.Appointment, error) {
	company, err := uc.repo.GetCompanyByID(ctx, companyID)
	if err != nil || company == nil {
		return nil, httperr.ErrNotFound("company_not_found")
	}

	ap, err := uc.repo.GetAppointment(ctx, companyID, appointmentID)
	if err != nil || ap == nil {
		return nil, httperr.ErrNotFound("appointment_not_found")
	}

	now := timezone.NowIn(company.Timezone)
	if err := domain.Complete(ap, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		Action:    "appointment_completed",
		Entity:    "appointment",
		EntityID:  &ap.ID,
	})

	return ap, nil
}
