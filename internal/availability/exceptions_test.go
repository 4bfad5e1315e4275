package availability

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayWith(windows ...Window) []DayWindows {
	return []DayWindows{{Date: monday, Windows: windows}}
}

func exception(kind ExceptionKind, startMin, endMin int, typ ConsultationType) Exception {
	return Exception{
		ID:       uuid.New(),
		Date:     monday,
		StartMin: startMin,
		EndMin:   endMin,
		Kind:     kind,
		Type:     typ,
	}
}

func totalMinutes(days []DayWindows) int {
	var sum int
	for _, d := range days {
		for _, w := range d.Windows {
			sum += w.EndMin - w.StartMin
		}
	}
	return sum
}

func TestBlockedExceptionSplitsWindow(t *testing.T) {
	days := dayWith(Window{StartMin: 540, EndMin: 720, Type: TypeVideo})

	got := ApplyExceptions(days, []Exception{exception(ExceptionBlocked, 600, 630, "")})

	require.Len(t, got[0].Windows, 2)
	assert.Equal(t, 540, got[0].Windows[0].StartMin)
	assert.Equal(t, 600, got[0].Windows[0].EndMin)
	assert.Equal(t, 630, got[0].Windows[1].StartMin)
	assert.Equal(t, 720, got[0].Windows[1].EndMin)
}

func TestAddedExceptionExtendsDay(t *testing.T) {
	days := dayWith(Window{StartMin: 540, EndMin: 720, Type: TypeVideo})

	got := ApplyExceptions(days, []Exception{exception(ExceptionAdded, 840, 960, TypeVideo)})

	require.Len(t, got[0].Windows, 2)
	assert.Equal(t, 840, got[0].Windows[1].StartMin)
}

func TestAdditionAppliesAfterBlocks(t *testing.T) {
	// The addition overlaps the blocked range; blocks run first, so the
	// addition restores the time the block removed.
	days := dayWith(Window{StartMin: 540, EndMin: 720, Type: TypeVideo})

	got := ApplyExceptions(days, []Exception{
		exception(ExceptionAdded, 600, 660, TypeVideo),
		exception(ExceptionBlocked, 600, 660, ""),
	})

	require.Len(t, got[0].Windows, 1)
	assert.Equal(t, 540, got[0].Windows[0].StartMin)
	assert.Equal(t, 720, got[0].Windows[0].EndMin)
}

func TestExceptionsOnlyTouchTheirDate(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	days := []DayWindows{
		{Date: monday, Windows: []Window{{StartMin: 540, EndMin: 720, Type: TypeVideo}}},
		{Date: tuesday, Windows: []Window{{StartMin: 540, EndMin: 720, Type: TypeVideo}}},
	}

	got := ApplyExceptions(days, []Exception{exception(ExceptionBlocked, 0, 1440, "")})

	assert.Empty(t, got[0].Windows)
	assert.Len(t, got[1].Windows, 1)
}

func TestBlockedNeverIncreasesMinutes(t *testing.T) {
	days := dayWith(
		Window{StartMin: 540, EndMin: 720, Type: TypeVideo},
		Window{StartMin: 840, EndMin: 1020, Type: TypeInPerson},
	)
	before := totalMinutes(days)

	for _, block := range []Exception{
		exception(ExceptionBlocked, 0, 60, ""),          // misses everything
		exception(ExceptionBlocked, 600, 660, ""),       // mid-window
		exception(ExceptionBlocked, 500, 1100, ""),      // covers everything
		exception(ExceptionBlocked, 600, 660, TypeVideo),
	} {
		got := ApplyExceptions(days, []Exception{block})
		assert.LessOrEqual(t, totalMinutes(got), before)
	}
}

func TestAddedNeverDecreasesMinutes(t *testing.T) {
	days := dayWith(Window{StartMin: 540, EndMin: 720, Type: TypeVideo})
	before := totalMinutes(days)

	for _, add := range []Exception{
		exception(ExceptionAdded, 600, 660, TypeVideo), // already covered
		exception(ExceptionAdded, 840, 960, TypeVideo), // disjoint
		exception(ExceptionAdded, 700, 780, TypeVideo), // overlapping tail
	} {
		got := ApplyExceptions(days, []Exception{add})
		assert.GreaterOrEqual(t, totalMinutes(got), before)
	}
}
