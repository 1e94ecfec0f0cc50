package schedule

// WorkDay é a configuração de expediente de um dia da semana,
// já resolvida para minutos. Imutável por consulta.
type WorkDay struct {
	Weekday int
	Open    bool

	StartMin int
	EndMin   int

	HasLunch      bool
	LunchStartMin int
	LunchEndMin   int

	SlotGranularityMin int
	AdvanceMaxDays     int
	SameDayAllowed     bool
}

// NewWorkDay monta um WorkDay a partir dos campos "15:04" persistidos.
// Dia sem horários válidos vira fechado, nunca erro.
func NewWorkDay(
	weekday int,
	active bool,
	startTime, endTime string,
	lunchStart, lunchEnd string,
	granularityMin, advanceMaxDays int,
	sameDayAllowed bool,
) WorkDay {

	wd := WorkDay{
		Weekday:            weekday,
		SlotGranularityMin: granularityMin,
		AdvanceMaxDays:     advanceMaxDays,
		SameDayAllowed:     sameDayAllowed,
	}
	if granularityMin <= 0 {
		wd.SlotGranularityMin = 30
	}

	if !active || startTime == "" || endTime == "" {
		return wd
	}

	start, err1 := ParseClock(startTime)
	end, err2 := ParseClock(endTime)
	if err1 != nil || err2 != nil || end <= start {
		return wd
	}

	wd.Open = true
	wd.StartMin = start
	wd.EndMin = end

	if lunchStart != "" && lunchEnd != "" {
		ls, err1 := ParseClock(lunchStart)
		le, err2 := ParseClock(lunchEnd)
		if err1 == nil && err2 == nil && le > ls {
			wd.HasLunch = true
			wd.LunchStartMin = ls
			wd.LunchEndMin = le
		}
	}

	return wd
}

// WithinHours verifica se [startMin, endMin) cabe no expediente.
func (wd WorkDay) WithinHours(startMin, endMin int) bool {
	return wd.Open && startMin >= wd.StartMin && endMin <= wd.EndMin
}

// OverlapsLunch verifica se [startMin, endMin) ocupa qualquer minuto
// da janela de almoço. Encostar na borda não conflita.
func (wd WorkDay) OverlapsLunch(startMin, endMin int) bool {
	if !wd.HasLunch {
		return false
	}
	return Overlaps(startMin, endMin, wd.LunchStartMin, wd.LunchEndMin)
}
