package booking

import (
	"context"

	domain "github.com/BruksfildServices01/service-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/service-scheduler/internal/domain/schedule"
	"github.com/BruksfildServices01/service-scheduler/internal/timezone"
)

// SuggestAlternativeTimes percorre os slots do dia em ordem e devolve os
// primeiros `count` que passam o pipeline COMPLETO. Usado quando o
// horário originalmente pedido foi rejeitado.
func (v *Validator) SuggestAlternativeTimes(ctx context.Context, req domain.Request, count int) ([]schedule.TimeSlot, error) {
	if count <= 0 {
		return nil, nil
	}

	company, err := v.repo.GetCompanyByID(ctx, req.CompanyID)
	if err != nil || company == nil {
		return nil, nil
	}
	loc := timezone.Location(company.Timezone)
	date := timezone.CivilDay(req.Date, loc)

	service, err := v.repo.GetService(ctx, req.CompanyID, req.ServiceID)
	if err != nil || service == nil {
		return nil, nil
	}

	wd, err := v.repo.GetWorkDay(ctx, req.CompanyID, int(date.Weekday()))
	if err != nil || !wd.Open {
		return nil, err
	}

	var out []schedule.TimeSlot
	for _, slot := range schedule.GenerateSlots(wd, service.DurationMin) {
		candidate := req
		candidate.Time = slot.Start

		result, _, err := v.Validate(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			continue
		}

		out = append(out, slot)
		if len(out) >= count {
			break
		}
	}

	return out, nil
}
