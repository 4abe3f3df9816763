package heritage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalScore(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		pct     float64
		passed  bool
	}{
		{"three of five", 3, 5, 60, true},
		{"two of five", 2, 5, 40, false},
		{"all correct", 5, 5, 100, true},
		{"nothing answered", 0, 0, 0, false},
		{"three of four", 3, 4, 75, true},
		{"one of two", 1, 2, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFinalScore(tt.correct, tt.total)
			assert.InDelta(t, tt.pct, fs.ScorePercentage, 0.0001)
			assert.Equal(t, tt.passed, fs.Passed())
		})
	}
}

func TestNormalizeOption(t *testing.T) {
	for _, in := range []string{"a", " B ", "c", "D"} {
		_, ok := NormalizeOption(in)
		assert.True(t, ok, in)
	}
	for _, in := range []string{"", "E", "AB", "1"} {
		_, ok := NormalizeOption(in)
		assert.False(t, ok, in)
	}
}

func TestJudge(t *testing.T) {
	q := TriviaQuestion{CorrectOption: "B"}
	assert.True(t, Judge(q, "B"))
	assert.True(t, Judge(q, "b"))
	assert.False(t, Judge(q, "A"))
	assert.False(t, Judge(q, "X"))
}

func TestCurrentBuilding(t *testing.T) {
	progress := []BuildingProgress{
		{Building: Building{ID: "c", VisitOrder: 3}},
		{Building: Building{ID: "a", VisitOrder: 1}, Visited: true},
		{Building: Building{ID: "b", VisitOrder: 2}},
	}
	cur := CurrentBuilding(progress)
	require.NotNil(t, cur)
	assert.Equal(t, "b", cur.ID)

	for i := range progress {
		progress[i].Visited = true
	}
	assert.Nil(t, CurrentBuilding(progress))
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrSiteNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrSiteNotFound, ErrTripNotFound)
	assert.ErrorIs(t, ErrTripNotActive, ErrInvalidState)
	assert.Equal(t, KindInvalidArgument, KindOf(ErrInvalidOption))
	assert.Equal(t, Kind(0), KindOf(assert.AnError))
}
