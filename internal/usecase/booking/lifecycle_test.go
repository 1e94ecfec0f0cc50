package booking

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/audit"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/notify"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

// ======================================================
// FAKES
// ======================================================

// spyCache registra as datas invalidadas para inspeção.
type spyCache struct {
	invalidated []string
}

func (c *spyCache) GetDay(context.Context, uint, string) (*availability.DayAvailability, bool) {
	return nil, false
}
func (c *spyCache) SetDay(context.Context, uint, string, *availability.DayAvailability) {}
func (c *spyCache) InvalidateDay(_ context.Context, _ uint, date string) {
	c.invalidated = append(c.invalidated, date)
}

type noopAuditLog struct{}

func (noopAuditLog) Log(uint, *uint, string, string, *uint, any) error { return nil }

func containsDate(dates []string, want string) bool {
	for _, d := range dates {
		if d == want {
			return true
		}
	}
	return false
}

// agendamento às 23:00 locais (-03), persistido como 02:00 UTC do dia
// seguinte: a chave de cache tem que ser o dia civil da empresa
func lateNightAppointment() *models.Appointment {
	return &models.Appointment{
		ID:             42,
		CompanyID:      1,
		ProfessionalID: 10,
		ServiceID:      20,
		StartTime:      time.Date(2026, 3, 13, 2, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2026, 3, 13, 2, 30, 0, 0, time.UTC),
		Status:         "scheduled",
		Customer:       models.Customer{ID: 99, Name: "Ana", Phone: "11999990000"},
		Service:        models.Service{ID: 20, Name: "Corte", DurationMin: 30},
	}
}

// ======================================================
// TESTES
// ======================================================

func TestCancelBooking_InvalidatesCompanyLocalDay(t *testing.T) {
	repo := newStubRepo()
	repo.company.Timezone = "America/Sao_Paulo"
	repo.appointment = lateNightAppointment()

	cache := &spyCache{}
	engine := availability.NewEngine(repo, cache, zap.NewNop())
	queue := notify.NewMemoryQueue(3)
	dispatcher := audit.NewDispatcher(noopAuditLog{})

	uc := NewCancelBooking(repo, engine, queue, dispatcher, zap.NewNop())

	ap, err := uc.Execute(context.Background(), 1, 42)
	if err != nil {
		t.Fatal(err)
	}
	if ap.Status != "cancelled" {
		t.Fatalf("expected cancelled status, got %q", ap.Status)
	}

	if !containsDate(cache.invalidated, "2026-03-12") {
		t.Errorf("must invalidate the local day 2026-03-12, got %v", cache.invalidated)
	}
	if containsDate(cache.invalidated, "2026-03-13") {
		t.Errorf("2026-03-13 is the UTC day, not the company's, got %v", cache.invalidated)
	}
}

func TestRescheduleBooking_InvalidatesBothCivilDays(t *testing.T) {
	repo := newStubRepo()
	repo.company.Timezone = "America/Sao_Paulo"
	repo.appointment = lateNightAppointment()

	cache := &spyCache{}
	engine := availability.NewEngine(repo, cache, zap.NewNop())
	queue := notify.NewMemoryQueue(3)
	dispatcher := audit.NewDispatcher(noopAuditLog{})

	validator := NewValidator(repo, engine)
	validator.now = func() time.Time { return clockBase }

	uc := NewRescheduleBooking(repo, validator, engine, queue, dispatcher, zap.NewNop())

	_, result, err := uc.Execute(context.Background(), RescheduleBookingInput{
		CompanyID:     1,
		AppointmentID: 42,
		Date:          "2026-03-20",
		Time:          "14:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("expected the move to validate, got %+v", result)
	}

	if !containsDate(cache.invalidated, "2026-03-12") {
		t.Errorf("old slot's local day must be invalidated, got %v", cache.invalidated)
	}
	if !containsDate(cache.invalidated, "2026-03-20") {
		t.Errorf("new slot's day must be invalidated, got %v", cache.invalidated)
	}
}
