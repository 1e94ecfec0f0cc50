package schedule

// TimeSlot é uma janela candidata de agendamento. Objeto de valor,
// recalculado a cada consulta, nunca persistido.
type TimeSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`

	ReasonCode               string `json:"reason_code,omitempty"`
	ConflictingAppointmentID uint   `json:"conflicting_appointment_id,omitempty"`

	StartMin int `json:"-"`
	EndMin   int `json:"-"`
}

// GenerateSlots produz as janelas candidatas do dia: passo de
// SlotGranularityMin a partir do início do expediente, enquanto
// início+duração couber no fim. Slots que ocupam qualquer minuto do
// almoço são excluídos. Serviço maior que o expediente ⇒ zero slots.
// Função pura.
func GenerateSlots(wd WorkDay, serviceDurationMin int) []TimeSlot {
	if !wd.Open || serviceDurationMin <= 0 {
		return nil
	}

	var slots []TimeSlot
	for start := wd.StartMin; start+serviceDurationMin <= wd.EndMin; start += wd.SlotGranularityMin {
		end := start + serviceDurationMin

		if wd.OverlapsLunch(start, end) {
			continue
		}

		slots = append(slots, TimeSlot{
			Start:     FormatClock(start),
			End:       FormatClock(end),
			Available: true,
			StartMin:  start,
			EndMin:    end,
		})
	}

	return slots
}
