package schedule

// Códigos de indisponibilidade de um slot.
const (
	ReasonAppointmentConflict = "appointment_conflict"
	ReasonScheduleBlock       = "schedule_block"
)

// AppointmentWindow é a projeção mínima de um agendamento não cancelado
// do profissional no dia.
type AppointmentWindow struct {
	ID       uint
	StartMin int
	EndMin   int
}

// BlockWindow é a projeção de um bloqueio ativo que cobre o dia
// (específico do profissional ∪ empresa inteira). FullDay conflita com
// qualquer slot.
type BlockWindow struct {
	ID       uint
	FullDay  bool
	StartMin int
	EndMin   int
}

// CheckConflict decide se a janela candidata está livre. Puro, sem I/O.
// Quando há conflito de agendamento e de bloqueio ao mesmo tempo, o
// agendamento prevalece no código reportado.
func CheckConflict(startMin, endMin int, appts []AppointmentWindow, blocks []BlockWindow) (available bool, reason string, conflictingID uint) {
	for _, ap := range appts {
		if Overlaps(startMin, endMin, ap.StartMin, ap.EndMin) {
			return false, ReasonAppointmentConflict, ap.ID
		}
	}

	for _, b := range blocks {
		if b.FullDay || Overlaps(startMin, endMin, b.StartMin, b.EndMin) {
			return false, ReasonScheduleBlock, b.ID
		}
	}

	return true, "", 0
}

// Annotate aplica o detector de conflito sobre cada slot gerado.
func Annotate(slots []TimeSlot, appts []AppointmentWindow, blocks []BlockWindow) []TimeSlot {
	for i := range slots {
		ok, reason, id := CheckConflict(slots[i].StartMin, slots[i].EndMin, appts, blocks)
		if !ok {
			slots[i].Available = false
			slots[i].ReasonCode = reason
			if reason == ReasonAppointmentConflict {
				slots[i].ConflictingAppointmentID = id
			}
		}
	}
	return slots
}
