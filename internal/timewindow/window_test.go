package timewindow

import (
	"testing"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{name: "morning", input: "10:00", wantHour: 10, wantMin: 0},
		{name: "end of day", input: "23:59", wantHour: 23, wantMin: 59},
		{name: "midnight", input: "0:00", wantHour: 0, wantMin: 0},
		{name: "hour out of range", input: "25:00", wantErr: true},
		{name: "minute out of range", input: "10:60", wantErr: true},
		{name: "no colon", input: "1000", wantErr: true},
		{name: "not a number", input: "aa:bb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMin, minute)
		})
	}
}

func TestOpenInstant(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	open, err := OpenInstant(startsAt, 2, "10:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 22, 10, 0, 0, 0, msk), open)
	assert.Equal(t, msk, open.Location())
}

func TestOpenInstant_BadTime(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	_, err := OpenInstant(startsAt, 2, "later")
	assert.Error(t, err)
}

func TestCloseInstant(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	tests := []struct {
		name          string
		mode          model.CloseMode
		minutesBefore int
		want          time.Time
	}{
		{name: "at start", mode: model.CloseAtStart, want: startsAt},
		{name: "minutes before", mode: model.CloseMinutesBefore, minutesBefore: 90, want: startsAt.Add(-90 * time.Minute)},
		{name: "unknown mode falls back to start", mode: model.CloseMode("whenever"), want: startsAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CloseInstant(startsAt, tt.mode, tt.minutesBefore))
		})
	}
}

func TestCancelDeadline(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	assert.Equal(t, startsAt.Add(-6*time.Hour), CancelDeadline(startsAt, 360))
}

func trainingPolicy(startsAt time.Time) model.BookingPolicy {
	return model.BookingPolicy{
		StartsAt:            startsAt,
		Capacity:            10,
		CloseMode:           model.CloseAtStart,
		CancelMinutesBefore: 360,
		OpenDaysBefore:      2,
		OpenTime:            "10:00",
	}
}

func TestWindows_Gating(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	w, err := ForPolicy(trainingPolicy(startsAt))
	require.NoError(t, err)

	open := time.Date(2026, 1, 22, 10, 0, 0, 0, msk)
	require.Equal(t, open, w.OpensAt)

	tests := []struct {
		name      string
		now       time.Time
		tooEarly  bool
		closed    bool
		openState bool
	}{
		{name: "second before open", now: open.Add(-time.Second), tooEarly: true},
		{name: "exactly at open", now: open, openState: true},
		{name: "between open and close", now: startsAt.Add(-time.Hour), openState: true},
		{name: "exactly at close", now: startsAt, closed: true},
		{name: "after start", now: startsAt.Add(time.Minute), closed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tooEarly, w.TooEarly(tt.now))
			assert.Equal(t, tt.closed, w.Closed(tt.now))
			assert.Equal(t, tt.openState, w.Open(tt.now))
		})
	}
}

func TestWindows_TournamentOpenFromCreation(t *testing.T) {
	startsAt := time.Date(2026, 2, 1, 12, 0, 0, 0, msk)

	w, err := ForPolicy(model.BookingPolicy{
		StartsAt:            startsAt,
		Capacity:            16,
		CloseMode:           model.CloseMinutesBefore,
		CloseMinutesBefore:  60,
		CancelMinutesBefore: 360,
		OpenAtCreation:      true,
	})
	require.NoError(t, err)

	assert.True(t, w.OpensAt.IsZero())
	assert.False(t, w.TooEarly(startsAt.AddDate(0, -1, 0)))
	assert.False(t, w.JustOpened(startsAt.AddDate(0, -1, 0)))
	assert.Equal(t, startsAt.Add(-time.Hour), w.ClosesAt)
	assert.True(t, w.Closed(startsAt.Add(-time.Hour)))
}

func TestWindows_CancelAllowed(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	w, err := ForPolicy(trainingPolicy(startsAt))
	require.NoError(t, err)

	deadline := startsAt.Add(-6 * time.Hour)
	assert.True(t, w.CancelAllowed(deadline.Add(-time.Second)))
	assert.False(t, w.CancelAllowed(deadline))
	assert.False(t, w.CancelAllowed(deadline.Add(time.Minute)))
}

func TestWindows_JustOpened(t *testing.T) {
	startsAt := time.Date(2026, 1, 24, 19, 0, 0, 0, msk)

	w, err := ForPolicy(trainingPolicy(startsAt))
	require.NoError(t, err)

	open := w.OpensAt
	assert.False(t, w.JustOpened(open.Add(-time.Second)))
	assert.True(t, w.JustOpened(open))
	assert.True(t, w.JustOpened(open.Add(59*time.Second)))
	assert.False(t, w.JustOpened(open.Add(time.Minute)))
}
