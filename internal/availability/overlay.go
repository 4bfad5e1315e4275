package availability

import "time"

// busySpan is one externally imported busy range clipped to a single date,
// in minutes since midnight. Busy time blocks every consultation type.
type busySpan struct {
	startMin int
	endMin   int
}

// clipBusy converts the absolute busy periods touching date into local minute
// spans. Periods may span midnight; each is clamped to [0, 1440].
func clipBusy(date time.Time, busy []BusyPeriod) []busySpan {
	dayEnd := date.AddDate(0, 0, 1)

	var out []busySpan
	for _, b := range busy {
		if !b.End.After(date) || !b.Start.Before(dayEnd) {
			continue
		}
		start := clampMinutes(b.Start, date)
		end := clampMinutes(b.End, date)
		if end > start {
			out = append(out, busySpan{startMin: start, endMin: end})
		}
	}
	return out
}

func intersectsBusy(spans []busySpan, startMin, endMin int) bool {
	for _, sp := range spans {
		if startMin < sp.endMin && endMin > sp.startMin {
			return true
		}
	}
	return false
}

// clampMinutes converts t to minutes past dayStart, clamped to [0, 1440].
func clampMinutes(t, dayStart time.Time) int {
	min := int(t.Sub(dayStart).Minutes())
	if min < 0 {
		return 0
	}
	if min > 24*60 {
		return 24 * 60
	}
	return min
}
