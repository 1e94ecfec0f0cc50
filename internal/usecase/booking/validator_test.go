package booking

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

// ======================================================
// FAKE REPOSITORY
// ======================================================

type stubRepo struct {
	company      *models.Company
	professional *models.Professional
	service      *models.Service

	workDays    map[int]schedule.WorkDay
	appts       []models.Appointment
	blocks      []models.ScheduleBlock
	appointment *models.Appointment
}

func newStubRepo() *stubRepo {
	r := &stubRepo{
		company:      &models.Company{ID: 1, Timezone: "UTC", MinAdvanceHours: 2},
		professional: &models.Professional{ID: 10, CompanyID: 1, Name: "Carlos", Active: true},
		service:      &models.Service{ID: 20, CompanyID: 1, Name: "Corte", DurationMin: 30, Active: true},
		workDays:     map[int]schedule.WorkDay{},
	}
	for wd := 0; wd < 7; wd++ {
		r.workDays[wd] = schedule.NewWorkDay(wd, true, "08:00", "18:00", "12:00", "13:00", 30, 30, true)
	}
	return r
}

func (r *stubRepo) GetWorkDay(_ context.Context, _ uint, weekday int) (schedule.WorkDay, error) {
	return r.workDays[weekday], nil
}

func (r *stubRepo) GetService(_ context.Context, _, serviceID uint) (*models.Service, error) {
	if r.service == nil || r.service.ID != serviceID {
		return nil, nil
	}
	return r.service, nil
}

func (r *stubRepo) GetProfessional(_ context.Context, _, professionalID uint) (*models.Professional, error) {
	if r.professional == nil || r.professional.ID != professionalID {
		return nil, nil
	}
	return r.professional, nil
}

func (r *stubRepo) ListProfessionals(context.Context, uint) ([]models.Professional, error) {
	if r.professional == nil {
		return nil, nil
	}
	return []models.Professional{*r.professional}, nil
}

func (r *stubRepo) GetCompanyByID(_ context.Context, id uint) (*models.Company, error) {
	if r.company == nil || r.company.ID != id {
		return nil, nil
	}
	return r.company, nil
}

func (r *stubRepo) GetNonCancelled(_ context.Context, _, _ uint, _ time.Time, excludeID uint) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, ap := range r.appts {
		if excludeID > 0 && ap.ID == excludeID {
			continue
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *stubRepo) GetActiveBlocks(_ context.Context, _, _ uint, _, _ time.Time) ([]models.ScheduleBlock, error) {
	return r.blocks, nil
}

func (r *stubRepo) CreateBlock(context.Context, *models.ScheduleBlock) error { return nil }
func (r *stubRepo) UpdateBlock(context.Context, *models.ScheduleBlock) error { return nil }
func (r *stubRepo) ListBlocks(context.Context, uint) ([]models.ScheduleBlock, error) {
	return r.blocks, nil
}
func (r *stubRepo) GetBlockByID(context.Context, uint, uint) (*models.ScheduleBlock, error) {
	return nil, nil
}

func (r *stubRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.appts = append(r.appts, *ap)
	return nil
}
func (r *stubRepo) UpdateAppointment(context.Context, *models.Appointment) error { return nil }
func (r *stubRepo) GetAppointment(_ context.Context, _, appointmentID uint) (*models.Appointment, error) {
	if r.appointment == nil || r.appointment.ID != appointmentID {
		return nil, nil
	}
	return r.appointment, nil
}
func (r *stubRepo) CreateAppointmentChecked(ctx context.Context, ap *models.Appointment) error {
	return r.CreateAppointment(ctx, ap)
}
func (r *stubRepo) RescheduleAppointmentChecked(context.Context, *models.Appointment, time.Time, time.Time) error {
	return nil
}

func (r *stubRepo) GetOrCreateCustomer(_ context.Context, companyID uint, name, phone, email string) (*models.Customer, error) {
	return &models.Customer{ID: 99, CompanyID: companyID, Name: name, Phone: phone, Email: email}, nil
}

// ======================================================
// HELPERS
// ======================================================

// quinta-feira; o relógio injetado fica dois dias antes
var (
	reqDate   = time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	clockBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

func newTestValidator(repo *stubRepo) *Validator {
	engine := availability.NewEngine(repo, nil, zap.NewNop())
	v := NewValidator(repo, engine)
	v.now = func() time.Time { return clockBase }
	return v
}

func request(clock string) domain.Request {
	return domain.Request{CompanyID: 1, ProfessionalID: 10, ServiceID: 20, Date: reqDate, Time: clock}
}

func mustReject(t *testing.T, v *Validator, req domain.Request, code string) {
	t.Helper()
	result, resolved, err := v.Validate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.Valid || result.Code != code {
		t.Errorf("expected rejection %q, got %+v", code, result)
	}
	if resolved != nil {
		t.Errorf("rejected request must not resolve entities")
	}
}

// ======================================================
// TESTES
// ======================================================

func TestValidator_AcceptsFreeSlot(t *testing.T) {
	v := newTestValidator(newStubRepo())

	result, resolved, err := v.Validate(context.Background(), request("14:00"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("free slot inside hours must validate, got %+v", result)
	}
	if resolved == nil || !resolved.Start.Equal(time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected resolved start: %+v", resolved)
	}
	if !resolved.End.Equal(resolved.Start.Add(30 * time.Minute)) {
		t.Errorf("end must be start + service duration")
	}
}

func TestValidator_MinimumAdvance(t *testing.T) {
	repo := newStubRepo()
	v := newTestValidator(repo)

	// pedido a 1h do relógio, com antecedência mínima de 2h:
	// reprova mesmo com o horário completamente livre
	req := domain.Request{CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Time: "10:00"}

	mustReject(t, v, req, "too_soon")
}

func TestValidator_StageOrderIsFailFast(t *testing.T) {
	repo := newStubRepo()
	repo.service.Active = false
	// conflito plantado: não pode ser alcançado
	repo.appts = []models.Appointment{{
		ID:        1,
		StartTime: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
		Status:    "scheduled",
	}}

	v := newTestValidator(repo)
	mustReject(t, v, request("14:00"), "service_inactive")
}

func TestValidator_OutsideWorkingHours(t *testing.T) {
	v := newTestValidator(newStubRepo())

	mustReject(t, v, request("07:00"), "outside_working_hours")
	mustReject(t, v, request("17:45"), "outside_working_hours")
	mustReject(t, v, request("12:15"), "outside_working_hours") // almoço
}

func TestValidator_SameDayNotAllowed(t *testing.T) {
	repo := newStubRepo()
	for wd := 0; wd < 7; wd++ {
		repo.workDays[wd] = schedule.NewWorkDay(wd, true, "08:00", "18:00", "", "", 30, 30, false)
	}
	v := newTestValidator(repo)

	sameDay := domain.Request{CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), Time: "14:00"}
	mustReject(t, v, sameDay, "same_day_not_allowed")
}

func TestValidator_TooFarAhead(t *testing.T) {
	v := newTestValidator(newStubRepo())

	far := domain.Request{CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: clockBase.AddDate(0, 0, 45), Time: "10:00"}
	mustReject(t, v, far, "too_far_ahead")
}

func TestValidator_ProfessionalBlocked(t *testing.T) {
	repo := newStubRepo()
	repo.blocks = []models.ScheduleBlock{{
		ID:        7,
		CompanyID: 1,
		StartDate: reqDate,
		EndDate:   reqDate,
		StartTime: "13:00",
		EndTime:   "16:00",
		BlockType: "vacation",
		Active:    true,
	}}
	v := newTestValidator(repo)

	mustReject(t, v, request("14:00"), "professional_blocked")

	result, _, err := v.Validate(context.Background(), request("16:00"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Errorf("slot after the block must validate, got %+v", result)
	}
}

func TestValidator_TimeConflictHonorsExcludeID(t *testing.T) {
	repo := newStubRepo()
	repo.appts = []models.Appointment{{
		ID:        42,
		StartTime: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 14, 30, 0, 0, time.UTC),
		Status:    "scheduled",
	}}
	v := newTestValidator(repo)

	mustReject(t, v, request("14:00"), "time_conflict")

	// reagendamento para o mesmo horário ignora o próprio registro
	req := request("14:00")
	req.ExcludeAppointmentID = 42
	result, _, err := v.Validate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Errorf("own slot must not conflict on reschedule, got %+v", result)
	}
}

func TestValidator_UnknownEntities(t *testing.T) {
	v := newTestValidator(newStubRepo())

	req := request("14:00")
	req.ServiceID = 999
	mustReject(t, v, req, "service_not_found")

	req = request("14:00")
	req.ProfessionalID = 999
	mustReject(t, v, req, "professional_not_found")
}

func TestValidator_WesternTimezoneKeepsCivilDay(t *testing.T) {
	repo := newStubRepo()
	repo.company.Timezone = "America/Sao_Paulo"
	// só a quinta do pedido fica aberta: resolver o dia errado reprovaria
	repo.workDays = map[int]schedule.WorkDay{
		4: schedule.NewWorkDay(4, true, "08:00", "18:00", "", "", 30, 30, true),
	}
	v := newTestValidator(repo)

	result, resolved, err := v.Validate(context.Background(), request("14:00"))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("UTC-parsed date must keep its civil day in the company timezone, got %+v", result)
	}

	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 3, 12, 14, 0, 0, 0, loc)
	if resolved == nil || !resolved.Start.Equal(want) {
		t.Fatalf("resolved start must be 14:00 local on 2026-03-12, got %+v", resolved)
	}
}

func TestValidator_SuggestAlternativeTimes(t *testing.T) {
	repo := newStubRepo()
	for wd := 0; wd < 7; wd++ {
		repo.workDays[wd] = schedule.NewWorkDay(wd, true, "09:00", "12:00", "", "", 30, 30, true)
	}
	repo.appts = []models.Appointment{{
		ID:        1,
		StartTime: time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		Status:    "scheduled",
	}}
	v := newTestValidator(repo)

	slots, err := v.SuggestAlternativeTimes(context.Background(), request("09:00"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0].Start != "10:00" || slots[1].Start != "10:30" {
		t.Fatalf("expected the first two slots passing the full pipeline, got %+v", slots)
	}
}
