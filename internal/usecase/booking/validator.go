package booking

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/httperr"
	"github.com/BruksfildServices01/service-scheduler/internal/models"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
	"github.com/BruksfildServices01/service-scheduler/internal/usecase/availability"
)

// ======================================================
// RESULT
// ======================================================

// ValidationResult é o veredito de negócio: código de máquina + mensagem
// humana. Rejeição de validação não é erro de infraestrutura.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func ok() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func rejected(code, message string) *ValidationResult {
	return &ValidationResult{Code: code, Message: message}
}

// Resolved carrega as entidades e o horário já resolvidos durante a
// validação, para o commit não refazer as mesmas consultas.
type Resolved struct {
	Company      *models.Company
	Professional *models.Professional
	Service      *models.Service

	Start time.Time
	End   time.Time
}

// ======================================================
// VALIDATOR
// ======================================================

// Validator é o pipeline ordenado de aceitação de agendamento.
// Curto-circuito: o primeiro estágio reprovado encerra — os seguintes
// nem são avaliados.
//
//	1️⃣ serviço existe e está ativo
//	2️⃣ horário dentro do expediente e fora do almoço
//	3️⃣ janela de antecedência (mínima, máxima, same-day)
//	4️⃣ sem bloqueio de agenda cobrindo o horário
//	5️⃣ sem conflito com agendamento não cancelado
type Validator struct {
	repo   domain.Repository
	engine *availability.Engine

	now func() time.Time
}

func NewValidator(repo domain.Repository, engine *availability.Engine) *Validator {
	return &Validator{
		repo:   repo,
		engine: engine,
		now:    time.Now,
	}
}

// Validate roda o pipeline completo sobre o pedido.
// (nil, nil, err) é falha de infraestrutura; resultado reprovado vem em
// (result, nil, nil); aprovado vem com o Resolved preenchido.
func (v *Validator) Validate(ctx context.Context, req domain.Request) (*ValidationResult, *Resolved, error) {
	company, err := v.repo.GetCompanyByID(ctx, req.CompanyID)
	if err != nil || company == nil {
		return nil, nil, httperr.ErrNotFound("company_not_found")
	}
	loc := timezone.Location(company.Timezone)

	professional, err := v.repo.GetProfessional(ctx, req.CompanyID, req.ProfessionalID)
	if err != nil {
		return nil, nil, err
	}
	if professional == nil || !professional.Active {
		return rejected("professional_not_found", "profissional não encontrado"), nil, nil
	}

	// --------------------------------------------------
	// 1️⃣ Serviço
	// --------------------------------------------------
	service, err := v.repo.GetService(ctx, req.CompanyID, req.ServiceID)
	if err != nil {
		return nil, nil, err
	}
	if service == nil {
		return rejected("service_not_found", "serviço não encontrado"), nil, nil
	}
	if !service.Active {
		return rejected("service_inactive", "serviço indisponível"), nil, nil
	}

	date := timezone.CivilDay(req.Date, loc)
	startMin, err := schedule.ParseClock(req.Time)
	if err != nil {
		return rejected("invalid_time", "horário inválido"), nil, nil
	}
	endMin := startMin + service.DurationMin

	// --------------------------------------------------
	// 2️⃣ Expediente + almoço
	// --------------------------------------------------
	wd, err := v.repo.GetWorkDay(ctx, req.CompanyID, int(date.Weekday()))
	if err != nil {
		return nil, nil, err
	}
	if !wd.WithinHours(startMin, endMin) || wd.OverlapsLunch(startMin, endMin) {
		return rejected("outside_working_hours", "horário fora do expediente"), nil, nil
	}

	// --------------------------------------------------
	// 3️⃣ Antecedência
	// --------------------------------------------------
	start := date.Add(time.Duration(startMin) * time.Minute)
	end := date.Add(time.Duration(endMin) * time.Minute)
	now := v.now().In(loc)

	if result := v.checkAdvanceWindow(company, wd, now, start); !result.Valid {
		return result, nil, nil
	}

	// --------------------------------------------------
	// 4️⃣ Bloqueios de agenda
	// --------------------------------------------------
	blocks, err := v.repo.GetActiveBlocks(ctx, req.CompanyID, req.ProfessionalID, date, date)
	if err != nil {
		return nil, nil, err
	}
	if free, _, _ := schedule.CheckConflict(startMin, endMin, nil, availability.BlockWindows(blocks, date)); !free {
		return rejected("professional_blocked", "profissional indisponível neste período"), nil, nil
	}

	// --------------------------------------------------
	// 5️⃣ Conflito de agendamento (autoridade: engine, sem cache)
	// --------------------------------------------------
	free, reason, err := v.engine.CheckSlot(ctx, availability.CheckInput{
		CompanyID:            req.CompanyID,
		ProfessionalID:       req.ProfessionalID,
		ServiceID:            req.ServiceID,
		Date:                 date,
		Time:                 req.Time,
		ExcludeAppointmentID: req.ExcludeAppointmentID,
	})
	if err != nil {
		return nil, nil, err
	}
	if !free {
		if reason == schedule.ReasonScheduleBlock {
			return rejected("professional_blocked", "profissional indisponível neste período"), nil, nil
		}
		return rejected("time_conflict", "horário já ocupado"), nil, nil
	}

	return ok(), &Resolved{
		Company:      company,
		Professional: professional,
		Service:      service,
		Start:        start,
		End:          end,
	}, nil
}

// checkAdvanceWindow: now + minAdvance ≤ início ≤ now + maxDays,
// com rejeição de same-day quando não permitido.
func (v *Validator) checkAdvanceWindow(
	company *models.Company,
	wd schedule.WorkDay,
	now time.Time,
	start time.Time,
) *ValidationResult {

	minAdvance := company.MinAdvanceHours
	if minAdvance <= 0 {
		minAdvance = 2
	}
	if start.Before(now.Add(time.Duration(minAdvance) * time.Hour)) {
		return rejected("too_soon", "antecedência mínima não respeitada")
	}

	maxDays := wd.AdvanceMaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	if start.After(now.AddDate(0, 0, maxDays)) {
		return rejected("too_far_ahead", "data além da janela de agendamento")
	}

	if !wd.SameDayAllowed && timezone.Day(start).Equal(timezone.Day(now)) {
		return rejected("same_day_not_allowed", "agendamento para o mesmo dia não permitido")
	}

	return ok()
}
