package availability

import "time"

// Materialize slices each available window into back-to-back slots of
// slotMinutes, leaving bufferMinutes between consecutive slots and discarding
// any trailing remainder shorter than a full slot. The grid is anchored at
// each window's start; external busy time removes the slots it touches but
// never shifts the starts of the surviving ones. Slots whose start lies
// before now, or whose (date, start) is held by an active booking, are
// dropped. Output must be recomputed per request; bookings change underneath.
func Materialize(days []DayWindows, slotMinutes, bufferMinutes int, busy []BusyPeriod, booked []BookedStart, now time.Time) []DaySlots {
	if slotMinutes <= 0 {
		return nil
	}
	if bufferMinutes < 0 {
		bufferMinutes = 0
	}

	taken := make(map[startKey]bool, len(booked))
	for _, b := range booked {
		taken[startKey{date: DateOf(b.Date).Unix(), min: b.StartMin}] = true
	}

	out := make([]DaySlots, len(days))
	for i, day := range days {
		spans := clipBusy(day.Date, busy)

		var slots []Slot
		for _, w := range day.Windows {
			for t := w.StartMin; t+slotMinutes <= w.EndMin; t += slotMinutes + bufferMinutes {
				start := day.Date.Add(time.Duration(t) * time.Minute)
				if start.Before(now) {
					continue
				}
				if intersectsBusy(spans, t, t+slotMinutes) {
					continue
				}
				if taken[startKey{date: day.Date.Unix(), min: t}] {
					continue
				}
				slots = append(slots, Slot{
					Date:     day.Date,
					StartMin: t,
					EndMin:   t + slotMinutes,
					Type:     w.Type,
				})
			}
		}
		out[i] = DaySlots{Date: day.Date, Slots: slots}
	}
	return out
}

type startKey struct {
	date int64
	min  int
}
