package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
)

// ======================================================
// FAKES
// ======================================================

type fakeRepo struct {
	company      *models.Company
	professional *models.Professional
	service      *models.Service

	workDays map[int]schedule.WorkDay
	appts    []models.Appointment
	blocks   []models.ScheduleBlock

	apptErr error

	nonCancelledCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		company:      &models.Company{ID: 1, Timezone: "UTC", MinAdvanceHours: 2},
		professional: &models.Professional{ID: 10, CompanyID: 1, Name: "Carlos", Active: true},
		service:      &models.Service{ID: 20, CompanyID: 1, Name: "Corte", DurationMin: 30, Active: true},
		workDays:     map[int]schedule.WorkDay{},
	}
}

func (r *fakeRepo) openWeek(start, end, lunchStart, lunchEnd string, granularity int) {
	for wd := 0; wd < 7; wd++ {
		r.workDays[wd] = schedule.NewWorkDay(wd, true, start, end, lunchStart, lunchEnd, granularity, 30, true)
	}
}

func (r *fakeRepo) GetWorkDay(_ context.Context, _ uint, weekday int) (schedule.WorkDay, error) {
	return r.workDays[weekday], nil
}

func (r *fakeRepo) GetService(_ context.Context, _, serviceID uint) (*models.Service, error) {
	if r.service == nil || r.service.ID != serviceID {
		return nil, nil
	}
	return r.service, nil
}

func (r *fakeRepo) GetProfessional(_ context.Context, _, professionalID uint) (*models.Professional, error) {
	if r.professional == nil || r.professional.ID != professionalID {
		return nil, nil
	}
	return r.professional, nil
}

func (r *fakeRepo) ListProfessionals(context.Context, uint) ([]models.Professional, error) {
	if r.professional == nil {
		return nil, nil
	}
	return []models.Professional{*r.professional}, nil
}

func (r *fakeRepo) GetCompanyByID(_ context.Context, id uint) (*models.Company, error) {
	if r.company == nil || r.company.ID != id {
		return nil, nil
	}
	return r.company, nil
}

func (r *fakeRepo) GetNonCancelled(_ context.Context, _, _ uint, _ time.Time, excludeID uint) ([]models.Appointment, error) {
	r.nonCancelledCalls++
	if r.apptErr != nil {
		return nil, r.apptErr
	}

	var out []models.Appointment
	for _, ap := range r.appts {
		if excludeID > 0 && ap.ID == excludeID {
			continue
		}
		out = append(out, ap)
	}
	return out, nil
}

func (r *fakeRepo) GetActiveBlocks(_ context.Context, _, _ uint, _, _ time.Time) ([]models.ScheduleBlock, error) {
	return r.blocks, nil
}

func (r *fakeRepo) CreateBlock(context.Context, *models.ScheduleBlock) error  { return nil }
func (r *fakeRepo) UpdateBlock(context.Context, *models.ScheduleBlock) error  { return nil }
func (r *fakeRepo) ListBlocks(context.Context, uint) ([]models.ScheduleBlock, error) {
	return r.blocks, nil
}
func (r *fakeRepo) GetBlockByID(context.Context, uint, uint) (*models.ScheduleBlock, error) {
	return nil, nil
}

func (r *fakeRepo) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	r.appts = append(r.appts, *ap)
	return nil
}
func (r *fakeRepo) UpdateAppointment(context.Context, *models.Appointment) error { return nil }
func (r *fakeRepo) GetAppointment(context.Context, uint, uint) (*models.Appointment, error) {
	return nil, nil
}
func (r *fakeRepo) CreateAppointmentChecked(ctx context.Context, ap *models.Appointment) error {
	return r.CreateAppointment(ctx, ap)
}
func (r *fakeRepo) RescheduleAppointmentChecked(context.Context, *models.Appointment, time.Time, time.Time) error {
	return nil
}

func (r *fakeRepo) GetOrCreateCustomer(_ context.Context, companyID uint, name, phone, email string) (*models.Customer, error) {
	return &models.Customer{ID: 99, CompanyID: companyID, Name: name, Phone: phone, Email: email}, nil
}

// memCache guarda os dias em memória para exercitar o read-through.
type memCache struct {
	days map[string]*DayAvailability
}

func newMemCache() *memCache {
	return &memCache{days: map[string]*DayAvailability{}}
}

func (c *memCache) GetDay(_ context.Context, professionalID uint, date string) (*DayAvailability, bool) {
	day, ok := c.days[dayKey(professionalID, date)]
	return day, ok
}

func (c *memCache) SetDay(_ context.Context, professionalID uint, date string, day *DayAvailability) {
	c.days[dayKey(professionalID, date)] = day
}

func (c *memCache) InvalidateDay(_ context.Context, professionalID uint, date string) {
	delete(c.days, dayKey(professionalID, date))
}

// ======================================================
// TESTES
// ======================================================

var testDate = time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC) // quinta-feira

func testInput() Input {
	return Input{CompanyID: 1, ProfessionalID: 10, ServiceID: 20, StartDate: testDate, Days: 1}
}

func slotByStart(slots []schedule.TimeSlot, start string) *schedule.TimeSlot {
	for i := range slots {
		if slots[i].Start == start {
			return &slots[i]
		}
	}
	return nil
}

func TestEngine_MarksConflictingSlots(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("08:00", "18:00", "12:00", "13:00", 30)
	repo.appts = []models.Appointment{{
		ID:        77,
		StartTime: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC),
		Status:    "scheduled",
	}}

	e := NewEngine(repo, nil, zap.NewNop())
	result, err := e.GetAvailability(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Days) != 1 || !result.Days[0].Open {
		t.Fatalf("expected one open day, got %+v", result.Days)
	}
	slots := result.Days[0].Slots

	if s := slotByStart(slots, "14:30"); s == nil || s.Available {
		t.Errorf("14:30 overlaps the 14:00-15:00 appointment, must be unavailable")
	} else if s.ReasonCode != schedule.ReasonAppointmentConflict || s.ConflictingAppointmentID != 77 {
		t.Errorf("expected appointment conflict with id 77, got %+v", s)
	}
	if s := slotByStart(slots, "15:00"); s == nil || !s.Available {
		t.Errorf("15:00 starts exactly at the appointment end, must be available")
	}
	if s := slotByStart(slots, "13:30"); s == nil || !s.Available {
		t.Errorf("13:30 ends exactly at the appointment start, must be available")
	}
	if s := slotByStart(slots, "12:00"); s != nil {
		t.Errorf("lunch slot must not be generated at all, got %+v", s)
	}
}

func TestEngine_CompanyWideFullDayBlock(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("09:00", "17:00", "", "", 30)
	repo.blocks = []models.ScheduleBlock{{
		ID:        5,
		CompanyID: 1,
		// ProfessionalID nulo: vale para todos os profissionais
		StartDate: testDate,
		EndDate:   testDate,
		BlockType: "holiday",
		Active:    true,
	}}

	e := NewEngine(repo, nil, zap.NewNop())
	result, err := e.GetAvailability(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}

	day := result.Days[0]
	if !day.Open || len(day.Slots) == 0 {
		t.Fatalf("blocked day still lists its slots, got %+v", day)
	}
	for _, s := range day.Slots {
		if s.Available || s.ReasonCode != schedule.ReasonScheduleBlock {
			t.Errorf("slot %s: full-day block must mark every slot blocked, got %+v", s.Start, s)
		}
	}
	if len(result.Recommended) != 0 {
		t.Errorf("no recommendations on a fully blocked day, got %+v", result.Recommended)
	}
}

func TestEngine_ClosedDayHasNoSlots(t *testing.T) {
	repo := newFakeRepo() // nenhum dia configurado: tudo fechado

	e := NewEngine(repo, nil, zap.NewNop())
	result, err := e.GetAvailability(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if result.Days[0].Open || len(result.Days[0].Slots) != 0 {
		t.Errorf("closed weekday must come back closed and empty, got %+v", result.Days[0])
	}
}

func TestEngine_FailedDayDegradesToClosed(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("09:00", "17:00", "", "", 30)
	repo.apptErr = errors.New("db down")

	e := NewEngine(repo, nil, zap.NewNop())
	in := testInput()
	in.Days = 3

	result, err := e.GetAvailability(context.Background(), in)
	if err != nil {
		t.Fatalf("transient day failure must not abort the range: %v", err)
	}
	if len(result.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(result.Days))
	}
	for _, day := range result.Days {
		if day.Open {
			t.Errorf("failed day must degrade to closed, got %+v", day)
		}
	}
}

func TestEngine_UnknownProfessionalAndService(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("09:00", "17:00", "", "", 30)
	e := NewEngine(repo, nil, zap.NewNop())

	in := testInput()
	in.ProfessionalID = 999
	if _, err := e.GetAvailability(context.Background(), in); !httperr.IsNotFound(err) {
		t.Errorf("unknown professional: expected not-found, got %v", err)
	}

	in = testInput()
	in.ServiceID = 999
	if _, err := e.GetAvailability(context.Background(), in); !httperr.IsNotFound(err) {
		t.Errorf("unknown service: expected not-found, got %v", err)
	}
}

func TestEngine_RecommendationsCappedAtFive(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("08:00", "18:00", "", "", 30)

	e := NewEngine(repo, nil, zap.NewNop())
	in := testInput()
	in.Days = 7

	result, err := e.GetAvailability(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Recommended) != 5 {
		t.Fatalf("expected exactly 5 recommendations, got %d", len(result.Recommended))
	}
	if result.Recommended[0].Date != "2026-03-12" || result.Recommended[0].Start != "08:00" {
		t.Errorf("first recommendation must be the first free slot of the first day, got %+v", result.Recommended[0])
	}
}

func TestEngine_CacheRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("09:00", "17:00", "", "", 30)
	cache := newMemCache()

	e := NewEngine(repo, cache, zap.NewNop())
	ctx := context.Background()

	if _, err := e.GetAvailability(ctx, testInput()); err != nil {
		t.Fatal(err)
	}
	calls := repo.nonCancelledCalls

	if _, err := e.GetAvailability(ctx, testInput()); err != nil {
		t.Fatal(err)
	}
	if repo.nonCancelledCalls != calls {
		t.Errorf("second query must be served from cache, repo hit %d extra times", repo.nonCancelledCalls-calls)
	}

	e.Invalidate(ctx, 10, testDate)
	if _, err := e.GetAvailability(ctx, testInput()); err != nil {
		t.Fatal(err)
	}
	if repo.nonCancelledCalls == calls {
		t.Errorf("invalidated day must be recomputed from the repository")
	}
}

func TestEngine_CheckSlotBypassesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("08:00", "18:00", "", "", 30)
	cache := newMemCache()

	// cache envenenado: dia inteiro livre
	cache.SetDay(context.Background(), 10, "2026-03-12", &DayAvailability{Date: "2026-03-12", Open: true})

	repo.appts = []models.Appointment{{
		ID:        42,
		StartTime: time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 11, 0, 0, 0, time.UTC),
		Status:    "scheduled",
	}}

	e := NewEngine(repo, cache, zap.NewNop())

	ok, reason, err := e.CheckSlot(context.Background(), CheckInput{
		CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: testDate, Time: "10:30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok || reason != schedule.ReasonAppointmentConflict {
		t.Errorf("conflict check is the authority and must not trust the cache, got ok=%v reason=%q", ok, reason)
	}
}

func TestEngine_CheckSlotExcludesOwnAppointment(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("08:00", "18:00", "", "", 30)
	repo.appts = []models.Appointment{{
		ID:        42,
		StartTime: time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 10, 30, 0, 0, time.UTC),
		Status:    "scheduled",
	}}

	e := NewEngine(repo, nil, zap.NewNop())

	ok, _, err := e.CheckSlot(context.Background(), CheckInput{
		CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: testDate, Time: "10:00",
		ExcludeAppointmentID: 42,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("rescheduling into the same slot must ignore the appointment being moved")
	}
}

// Datas chegam do transporte como meia-noite UTC; o dia civil tem que
// sobreviver à conversão para o timezone da empresa (a oeste de UTC a
// conversão por instante cairia no dia anterior).
func TestEngine_WesternTimezoneKeepsCivilDay(t *testing.T) {
	repo := newFakeRepo()
	repo.company.Timezone = "America/Sao_Paulo"
	// só quinta-feira aberta: errar o dia civil fecharia a consulta
	repo.workDays[4] = schedule.NewWorkDay(4, true, "08:00", "18:00", "", "", 30, 30, true)

	e := NewEngine(repo, nil, zap.NewNop())

	ok, reason, err := e.CheckSlot(context.Background(), CheckInput{
		CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: testDate, Time: "10:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Errorf("Thursday 10:00 is free and inside hours, got ok=%v reason=%q", ok, reason)
	}

	result, err := e.GetAvailability(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}
	if result.Days[0].Date != "2026-03-12" || !result.Days[0].Open {
		t.Errorf("range starting 2026-03-12 must begin on 2026-03-12 and open, got %+v", result.Days[0])
	}

	// agendamento 17:30-18:00 UTC = 14:30-15:00 local
	repo.appts = []models.Appointment{{
		ID:        88,
		StartTime: time.Date(2026, 3, 12, 17, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC),
		Status:    "scheduled",
	}}
	ok, reason, err = e.CheckSlot(context.Background(), CheckInput{
		CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
		Date: testDate, Time: "14:30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok || reason != schedule.ReasonAppointmentConflict {
		t.Errorf("14:30 local overlaps the stored appointment, got ok=%v reason=%q", ok, reason)
	}
}

// Bloqueios persistem as datas como meia-noite UTC; a cobertura do dia é
// por componentes de data, não por instante.
func TestEngine_BlockDatesCompareByCivilDay(t *testing.T) {
	repo := newFakeRepo()
	repo.company.Timezone = "America/Sao_Paulo"
	repo.openWeek("09:00", "17:00", "", "", 30)
	repo.blocks = []models.ScheduleBlock{{
		ID:        5,
		CompanyID: 1,
		StartDate: testDate, // meia-noite UTC
		EndDate:   testDate,
		BlockType: "holiday",
		Active:    true,
	}}

	e := NewEngine(repo, nil, zap.NewNop())
	result, err := e.GetAvailability(context.Background(), testInput())
	if err != nil {
		t.Fatal(err)
	}

	day := result.Days[0]
	if day.Date != "2026-03-12" || !day.Open || len(day.Slots) == 0 {
		t.Fatalf("expected the blocked day listed with its slots, got %+v", day)
	}
	for _, s := range day.Slots {
		if s.Available || s.ReasonCode != schedule.ReasonScheduleBlock {
			t.Errorf("slot %s: block stored as UTC midnight must still cover the local day", s.Start)
		}
	}
}

func TestEngine_CheckSlotOutsideHours(t *testing.T) {
	repo := newFakeRepo()
	repo.openWeek("08:00", "18:00", "12:00", "13:00", 30)
	e := NewEngine(repo, nil, zap.NewNop())

	cases := []struct {
		clock string
	}{
		{"07:30"}, // antes de abrir
		{"17:45"}, // termina após o fim
		{"12:00"}, // dentro do almoço
	}
	for _, tc := range cases {
		ok, reason, err := e.CheckSlot(context.Background(), CheckInput{
			CompanyID: 1, ProfessionalID: 10, ServiceID: 20,
			Date: testDate, Time: tc.clock,
		})
		if err != nil {
			t.Fatal(err)
		}
		if ok || reason != "outside_working_hours" {
			t.Errorf("%s: expected outside_working_hours, got ok=%v reason=%q", tc.clock, ok, reason)
		}
	}
}
