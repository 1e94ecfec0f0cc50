package availability

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
)

const (
	maxRecommended  = 5
	popularStartMin = 9 * 60  // 09:00
	popularEndMin   = 11 * 60 // 11:00
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type Input struct {
	CompanyID      uint
	ProfessionalID uint
	ServiceID      uint
	StartDate      time.Time
	Days           int
}

type CheckInput struct {
	CompanyID      uint
	ProfessionalID uint
	ServiceID      uint
	Date           time.Time
	Time           string

	// reagendamento ignora o próprio horário anterior
	ExcludeAppointmentID uint
}

type DayAvailability struct {
	Date  string              `json:"date"`
	Open  bool                `json:"open"`
	Slots []schedule.TimeSlot `json:"slots"`
}

type RecommendedSlot struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Result struct {
	Days        []DayAvailability `json:"days"`
	Recommended []RecommendedSlot `json:"recommended"`
}

// ======================================================
// ENGINE
// ======================================================

// Engine compõe expediente + geração de slots + detecção de conflito
// por um intervalo de datas, com cache de curta duração por
// (profissional, dia).
type Engine struct {
	repo   booking.Repository
	cache  Cache
	logger *zap.Logger
}

func NewEngine(repo booking.Repository, cache Cache, logger *zap.Logger) *Engine {
	return &Engine{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// GetAvailability calcula a disponibilidade por dia e as recomendações.
// Profissional/serviço inexistentes falham com NotFound antes de
// qualquer cálculo; erro transitório num dia degrada aquele dia para
// fechado em vez de abortar o intervalo.
func (e *Engine) GetAvailability(ctx context.Context, in Input) (*Result, error) {
	professional, err := e.repo.GetProfessional(ctx, in.CompanyID, in.ProfessionalID)
	if err != nil || professional == nil {
		return nil, httperr.ErrNotFound("professional_not_found")
	}

	service, err := e.repo.GetService(ctx, in.CompanyID, in.ServiceID)
	if err != nil || service == nil {
		return nil, httperr.ErrNotFound("service_not_found")
	}

	company, err := e.repo.GetCompanyByID(ctx, in.CompanyID)
	if err != nil || company == nil {
		return nil, httperr.ErrNotFound("company_not_found")
	}
	loc := timezone.Location(company.Timezone)

	days := in.Days
	if days <= 0 {
		days = 1
	}

	result := &Result{}
	start := timezone.CivilDay(in.StartDate, loc)

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		day, err := e.dayAvailability(ctx, in, service, loc, date)
		if err != nil {
			// degrada: dia vira fechado, consulta segue
			e.logger.Warn("availability: day computation failed",
				zap.Uint("professional_id", in.ProfessionalID),
				zap.String("date", timezone.DateKey(date)),
				zap.Error(err),
			)
			day = DayAvailability{Date: timezone.DateKey(date)}
		}

		result.Days = append(result.Days, day)
	}

	result.Recommended = recommend(result.Days)
	return result, nil
}

// dayAvailability resolve um único dia, passando pelo cache.
func (e *Engine) dayAvailability(
	ctx context.Context,
	in Input,
	service *models.Service,
	loc *time.Location,
	date time.Time,
) (DayAvailability, error) {

	if e.cache != nil {
		if day, ok := e.cache.GetDay(ctx, in.ProfessionalID, timezone.DateKey(date)); ok {
			return *day, nil
		}
	}

	day, err := e.computeDay(ctx, in.CompanyID, in.ProfessionalID, service.DurationMin, loc, date, 0)
	if err != nil {
		return DayAvailability{}, err
	}

	if e.cache != nil {
		e.cache.SetDay(ctx, in.ProfessionalID, timezone.DateKey(date), &day)
	}

	return day, nil
}

func (e *Engine) computeDay(
	ctx context.Context,
	companyID uint,
	professionalID uint,
	durationMin int,
	loc *time.Location,
	date time.Time,
	excludeAppointmentID uint,
) (DayAvailability, error) {

	day := DayAvailability{Date: timezone.DateKey(date)}

	wd, err := e.repo.GetWorkDay(ctx, companyID, int(date.Weekday()))
	if err != nil {
		return day, err
	}
	if !wd.Open {
		return day, nil
	}

	appts, blocks, err := e.loadWindows(ctx, companyID, professionalID, loc, date, excludeAppointmentID)
	if err != nil {
		return day, err
	}

	day.Open = true
	day.Slots = schedule.Annotate(schedule.GenerateSlots(wd, durationMin), appts, blocks)
	return day, nil
}

func (e *Engine) loadWindows(
	ctx context.Context,
	companyID uint,
	professionalID uint,
	loc *time.Location,
	date time.Time,
	excludeAppointmentID uint,
) ([]schedule.AppointmentWindow, []schedule.BlockWindow, error) {

	existing, err := e.repo.GetNonCancelled(ctx, companyID, professionalID, date, excludeAppointmentID)
	if err != nil {
		return nil, nil, err
	}

	blocks, err := e.repo.GetActiveBlocks(ctx, companyID, professionalID, date, date)
	if err != nil {
		return nil, nil, err
	}

	return AppointmentWindows(existing, loc), BlockWindows(blocks, date), nil
}

// CheckSlot é a variante de slot único do mesmo pipeline, usada tanto
// por consultas diretas quanto pelo validador antes do commit. Não passa
// pelo cache: é a autoridade de conflito.
func (e *Engine) CheckSlot(ctx context.Context, in CheckInput) (bool, string, error) {
	professional, err := e.repo.GetProfessional(ctx, in.CompanyID, in.ProfessionalID)
	if err != nil || professional == nil {
		return false, "", httperr.ErrNotFound("professional_not_found")
	}

	service, err := e.repo.GetService(ctx, in.CompanyID, in.ServiceID)
	if err != nil || service == nil {
		return false, "", httperr.ErrNotFound("service_not_found")
	}

	company, err := e.repo.GetCompanyByID(ctx, in.CompanyID)
	if err != nil || company == nil {
		return false, "", httperr.ErrNotFound("company_not_found")
	}
	loc := timezone.Location(company.Timezone)
	date := timezone.CivilDay(in.Date, loc)

	startMin, err := schedule.ParseClock(in.Time)
	if err != nil {
		return false, "invalid_time", nil
	}
	endMin := startMin + service.DurationMin

	wd, err := e.repo.GetWorkDay(ctx, in.CompanyID, int(date.Weekday()))
	if err != nil {
		return false, "", err
	}
	if !wd.WithinHours(startMin, endMin) || wd.OverlapsLunch(startMin, endMin) {
		return false, "outside_working_hours", nil
	}

	appts, blocks, err := e.loadWindows(ctx, in.CompanyID, in.ProfessionalID, loc, date, in.ExcludeAppointmentID)
	if err != nil {
		return false, "", err
	}

	ok, reason, _ := schedule.CheckConflict(startMin, endMin, appts, blocks)
	return ok, reason, nil
}

// Invalidate descarta o dia cacheado de um profissional. Chamado em
// toda mutação que afeta a agenda (agendamento, cancelamento, bloqueio).
func (e *Engine) Invalidate(ctx context.Context, professionalID uint, date time.Time) {
	if e.cache != nil {
		e.cache.InvalidateDay(ctx, professionalID, timezone.DateKey(date))
	}
}

// ======================================================
// HELPERS
// ======================================================

// AppointmentWindows projeta agendamentos persistidos nas janelas em
// minutos do detector, no timezone da empresa.
func AppointmentWindows(appts []models.Appointment, loc *time.Location) []schedule.AppointmentWindow {
	var out []schedule.AppointmentWindow
	for _, ap := range appts {
		start := ap.StartTime.In(loc)
		end := ap.EndTime.In(loc)
		out = append(out, schedule.AppointmentWindow{
			ID:       ap.ID,
			StartMin: start.Hour()*60 + start.Minute(),
			EndMin:   end.Hour()*60 + end.Minute(),
		})
	}
	return out
}

// BlockWindows filtra os bloqueios que cobrem a data e os projeta nas
// janelas do detector.
func BlockWindows(blocks []models.ScheduleBlock, date time.Time) []schedule.BlockWindow {
	day := timezone.Day(date)

	var out []schedule.BlockWindow
	for _, b := range blocks {
		// datas do bloqueio comparadas por dia civil, não por instante:
		// elas foram persistidas como meia-noite UTC
		start := timezone.CivilDay(b.StartDate, date.Location())
		end := timezone.CivilDay(b.EndDate, date.Location())
		if day.Before(start) || day.After(end) {
			continue
		}

		w := schedule.BlockWindow{ID: b.ID}
		if b.StartTime == "" || b.EndTime == "" {
			w.FullDay = true
		} else {
			start, err1 := schedule.ParseClock(b.StartTime)
			end, err2 := schedule.ParseClock(b.EndTime)
			if err1 != nil || err2 != nil {
				// bloqueio mal formado trava o dia inteiro (fail closed)
				w.FullDay = true
			} else {
				w.StartMin = start
				w.EndMin = end
			}
		}
		out = append(out, w)
	}
	return out
}

func recommend(days []DayAvailability) []RecommendedSlot {
	var out []RecommendedSlot

	for _, day := range days {
		first := true
		for _, s := range day.Slots {
			if !s.Available {
				continue
			}

			popular := s.StartMin >= popularStartMin && s.StartMin < popularEndMin
			if first || popular {
				out = append(out, RecommendedSlot{
					Date:  day.Date,
					Start: s.Start,
					End:   s.End,
				})
				first = false
			}

			if len(out) >= maxRecommended {
				return out
			}
		}
	}

	return out
}
