package schedule

import "testing"

func mins(hm string) int {
	m, err := ParseClock(hm)
	if err != nil {
		panic(err)
	}
	return m
}

func TestCheckConflict_ExistingAppointment(t *testing.T) {
	appts := []AppointmentWindow{
		{ID: 7, StartMin: mins("14:00"), EndMin: mins("15:00")},
	}

	// 14:30-15:00 conflita
	ok, reason, id := CheckConflict(mins("14:30"), mins("15:00"), appts, nil)
	if ok {
		t.Fatalf("expected conflict at 14:30")
	}
	if reason != ReasonAppointmentConflict || id != 7 {
		t.Errorf("expected appointment_conflict with id 7, got %s/%d", reason, id)
	}

	// 15:00-15:30 encosta na borda, não conflita
	ok, _, _ = CheckConflict(mins("15:00"), mins("15:30"), appts, nil)
	if !ok {
		t.Errorf("slot starting exactly at appointment end must be free")
	}

	// 13:30-14:00 também livre
	ok, _, _ = CheckConflict(mins("13:30"), mins("14:00"), appts, nil)
	if !ok {
		t.Errorf("slot ending exactly at appointment start must be free")
	}
}

func TestCheckConflict_FullDayBlock(t *testing.T) {
	blocks := []BlockWindow{{ID: 3, FullDay: true}}

	for _, hm := range []string{"08:00", "12:00", "17:30"} {
		ok, reason, _ := CheckConflict(mins(hm), mins(hm)+30, nil, blocks)
		if ok {
			t.Fatalf("full-day block must conflict with slot at %s", hm)
		}
		if reason != ReasonScheduleBlock {
			t.Errorf("expected schedule_block, got %s", reason)
		}
	}
}

func TestCheckConflict_TimeRangedBlock(t *testing.T) {
	blocks := []BlockWindow{
		{ID: 3, StartMin: mins("10:00"), EndMin: mins("11:00")},
	}

	if ok, _, _ := CheckConflict(mins("10:30"), mins("11:00"), nil, blocks); ok {
		t.Errorf("slot inside block window must conflict")
	}
	if ok, _, _ := CheckConflict(mins("11:00"), mins("11:30"), nil, blocks); !ok {
		t.Errorf("slot after block window must be free")
	}
}

func TestCheckConflict_AppointmentReportedOverBlock(t *testing.T) {
	appts := []AppointmentWindow{{ID: 9, StartMin: mins("09:00"), EndMin: mins("10:00")}}
	blocks := []BlockWindow{{ID: 4, FullDay: true}}

	ok, reason, id := CheckConflict(mins("09:00"), mins("09:30"), appts, blocks)
	if ok {
		t.Fatalf("expected conflict")
	}
	if reason != ReasonAppointmentConflict || id != 9 {
		t.Errorf("appointment conflict takes reporting precedence, got %s/%d", reason, id)
	}
}

func TestAnnotate(t *testing.T) {
	wd := NewWorkDay(1, true, "09:00", "11:00", "", "", 30, 30, true)
	appts := []AppointmentWindow{{ID: 5, StartMin: mins("09:30"), EndMin: mins("10:00")}}

	slots := Annotate(GenerateSlots(wd, 30), appts, nil)

	var unavailable int
	for _, s := range slots {
		if !s.Available {
			unavailable++
			if s.ConflictingAppointmentID != 5 {
				t.Errorf("expected conflicting id 5 on %s, got %d", s.Start, s.ConflictingAppointmentID)
			}
		}
	}
	if unavailable != 1 {
		t.Errorf("expected exactly 1 unavailable slot, got %d", unavailable)
	}
}
