package availability

import "time"

// ApplyExceptions overlays one-off exceptions on expanded recurrence. Per
// date, every blocked exception subtracts first, then every added exception
// unions in. Additions are deliberately not clipped by blocks applied in the
// same pass: an addition can restore time a block removed on the same date.
func ApplyExceptions(days []DayWindows, exceptions []Exception) []DayWindows {
	if len(exceptions) == 0 {
		return days
	}

	byDate := make(map[time.Time][]Exception, len(exceptions))
	for _, ex := range exceptions {
		d := DateOf(ex.Date)
		byDate[d] = append(byDate[d], ex)
	}

	out := make([]DayWindows, len(days))
	for i, day := range days {
		ws := day.Windows
		exs := byDate[day.Date]

		for _, ex := range exs {
			if ex.Kind == ExceptionBlocked {
				ws = subtract(ws, ex.StartMin, ex.EndMin, ex.Type)
			}
		}
		for _, ex := range exs {
			if ex.Kind == ExceptionAdded {
				typ := ex.Type
				if typ == "" {
					typ = TypeInPerson
				}
				ws = append(ws, Window{StartMin: ex.StartMin, EndMin: ex.EndMin, Type: typ})
			}
		}

		out[i] = DayWindows{Date: day.Date, Windows: union(ws)}
	}
	return out
}
