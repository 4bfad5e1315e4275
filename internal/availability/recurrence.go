package availability

import "time"

// ExpandRules turns a doctor's weekly rules into concrete per-date windows for
// every date in [from, to] inclusive. Dates are midnight-UTC days. Overlapping
// or adjacent rules of the same type are unioned into maximal disjoint
// intervals. Deterministic for a given rule set.
func ExpandRules(rules []WeeklyRule, from, to time.Time) []DayWindows {
	from = DateOf(from)
	to = DateOf(to)

	var days []DayWindows
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		var ws []Window
		for _, r := range rules {
			if !ruleCovers(r, d) {
				continue
			}
			ws = append(ws, Window{StartMin: r.StartMin, EndMin: r.EndMin, Type: r.Type})
		}
		days = append(days, DayWindows{Date: d, Windows: union(ws)})
	}
	return days
}

func ruleCovers(r WeeklyRule, date time.Time) bool {
	if !r.Active || r.Weekday != date.Weekday() {
		return false
	}
	if r.EffectiveFrom != nil && date.Before(DateOf(*r.EffectiveFrom)) {
		return false
	}
	if r.EffectiveUntil != nil && date.After(DateOf(*r.EffectiveUntil)) {
		return false
	}
	return true
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
