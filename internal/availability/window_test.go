package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionMergesOverlappingSameType(t *testing.T) {
	got := union([]Window{
		{StartMin: 540, EndMin: 660, Type: TypeVideo},
		{StartMin: 600, EndMin: 720, Type: TypeVideo},
	})

	require.Len(t, got, 1)
	assert.Equal(t, Window{StartMin: 540, EndMin: 720, Type: TypeVideo}, got[0])
}

func TestUnionMergesAdjacent(t *testing.T) {
	got := union([]Window{
		{StartMin: 540, EndMin: 600, Type: TypeInPerson},
		{StartMin: 600, EndMin: 660, Type: TypeInPerson},
	})

	require.Len(t, got, 1)
	assert.Equal(t, 540, got[0].StartMin)
	assert.Equal(t, 660, got[0].EndMin)
}

func TestUnionKeepsTypesApart(t *testing.T) {
	got := union([]Window{
		{StartMin: 540, EndMin: 660, Type: TypeVideo},
		{StartMin: 600, EndMin: 720, Type: TypeInPerson},
	})

	assert.Len(t, got, 2)
}

func TestUnionDropsEmptyWindows(t *testing.T) {
	got := union([]Window{
		{StartMin: 540, EndMin: 540, Type: TypeVideo},
	})

	assert.Empty(t, got)
}

func TestSubtractSplitsWindow(t *testing.T) {
	ws := []Window{{StartMin: 540, EndMin: 720, Type: TypeVideo}}

	got := subtract(ws, 600, 630, TypeVideo)

	require.Len(t, got, 2)
	assert.Equal(t, Window{StartMin: 540, EndMin: 600, Type: TypeVideo}, got[0])
	assert.Equal(t, Window{StartMin: 630, EndMin: 720, Type: TypeVideo}, got[1])
}

func TestSubtractRemovesCoveredWindow(t *testing.T) {
	ws := []Window{{StartMin: 540, EndMin: 600, Type: TypeVideo}}

	got := subtract(ws, 500, 700, TypeVideo)

	assert.Empty(t, got)
}

func TestSubtractAllTypesWhenTypeEmpty(t *testing.T) {
	ws := []Window{
		{StartMin: 540, EndMin: 600, Type: TypeVideo},
		{StartMin: 540, EndMin: 600, Type: TypeInPerson},
	}

	got := subtract(ws, 540, 600, "")

	assert.Empty(t, got)
}

func TestSubtractLeavesOtherTypeAlone(t *testing.T) {
	ws := []Window{
		{StartMin: 540, EndMin: 600, Type: TypeVideo},
		{StartMin: 540, EndMin: 600, Type: TypeInPerson},
	}

	got := subtract(ws, 540, 600, TypeVideo)

	require.Len(t, got, 1)
	assert.Equal(t, TypeInPerson, got[0].Type)
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, min)

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("not a time")
	assert.Error(t, err)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "24:00", FormatClock(1440))
}
