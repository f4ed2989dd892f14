package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFromDays(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	now := time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		days      int
		loc       *time.Location
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "today only",
			days:      0,
			loc:       time.UTC,
			wantStart: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "one week",
			days:      7,
			loc:       nil,
			wantStart: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "local midnight",
			days:      0,
			loc:       berlin,
			wantStart: time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := WindowFromDays(now, tt.days, tt.loc)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(w.Start), "start %s", w.Start)
			assert.True(t, tt.wantEnd.Equal(w.End), "end %s", w.End)
			assert.NoError(t, w.Validate())
		})
	}
}

func TestWindowFromDays_Negative(t *testing.T) {
	_, err := WindowFromDays(time.Now(), -1, time.UTC)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestWindow_Validate(t *testing.T) {
	assert.ErrorIs(t, Window{}.Validate(), ErrInvalidWindow)
	assert.ErrorIs(t, Window{Start: testWindow.Start, End: testWindow.Start}.Validate(), ErrInvalidWindow)
	assert.NoError(t, testWindow.Validate())
}

func TestWindow_Overlaps(t *testing.T) {
	at := func(day, hour int) time.Time { return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC) }

	assert.True(t, testWindow.Overlaps(at(4, 9), at(4, 10)))
	assert.True(t, testWindow.Overlaps(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC), at(1, 1)))
	assert.False(t, testWindow.Overlaps(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), at(1, 0)))
	assert.False(t, testWindow.Overlaps(at(31, 0), at(31, 1)))
	assert.True(t, testWindow.Overlaps(at(1, 0), at(1, 0)))
	assert.True(t, testWindow.Contains(at(1, 0)))
	assert.False(t, testWindow.Contains(at(31, 0)))
}
