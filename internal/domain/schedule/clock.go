package schedule

import (
	"fmt"
	"time"
)

// Horários circulam como "15:04" (convenção da API). Internamente a
// matemática de slots usa minutos desde a meia-noite.

func ParseClock(hm string) (int, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", hm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps aplica a regra de intervalos semiabertos:
// [a,b) conflita com [c,d) sse a < d && c < b.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
