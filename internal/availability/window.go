package availability

import (
	"fmt"
	"sort"
)

// Window is a half-open [StartMin, EndMin) range of minutes since midnight,
// local to one date, for one consultation type.
type Window struct {
	StartMin int
	EndMin   int
	Type     ConsultationType
}

// union merges overlapping or adjacent windows of the same type into maximal
// disjoint intervals. Zero-length windows are dropped. The result is sorted by
// type, then start.
func union(ws []Window) []Window {
	in := make([]Window, 0, len(ws))
	for _, w := range ws {
		if w.EndMin > w.StartMin {
			in = append(in, w)
		}
	}
	if len(in) == 0 {
		return nil
	}

	sort.Slice(in, func(i, j int) bool {
		if in[i].Type != in[j].Type {
			return in[i].Type < in[j].Type
		}
		return in[i].StartMin < in[j].StartMin
	})

	out := []Window{in[0]}
	for _, w := range in[1:] {
		last := &out[len(out)-1]
		if w.Type == last.Type && w.StartMin <= last.EndMin {
			if w.EndMin > last.EndMin {
				last.EndMin = w.EndMin
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// subtract removes [startMin, endMin) from every window whose type matches.
// An empty typ matches all types. A block landing in the middle of a window
// splits it into two remainders; windows reduced to zero length are dropped.
func subtract(ws []Window, startMin, endMin int, typ ConsultationType) []Window {
	if endMin <= startMin {
		return ws
	}

	var out []Window
	for _, w := range ws {
		if typ != "" && w.Type != typ {
			out = append(out, w)
			continue
		}
		if endMin <= w.StartMin || startMin >= w.EndMin {
			out = append(out, w)
			continue
		}
		if startMin > w.StartMin {
			out = append(out, Window{StartMin: w.StartMin, EndMin: startMin, Type: w.Type})
		}
		if endMin < w.EndMin {
			out = append(out, Window{StartMin: endMin, EndMin: w.EndMin, Type: w.Type})
		}
	}
	return out
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock converts minutes since midnight to "HH:MM". Minute 1440 renders
// as "24:00" so an end-of-day window end stays representable.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
