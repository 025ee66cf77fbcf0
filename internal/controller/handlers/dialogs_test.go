package handlers

import (
	"testing"
	"time"

	"github.com/mbazhenoff/trainings_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotLine(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	h := &Handlers{location: msk}

	tests := []struct {
		name     string
		input    string
		wantTime time.Time
		wantCap  int
		wantNote string
		wantErr  bool
	}{
		{
			name:     "without note",
			input:    "05.09.2026 19:00 8",
			wantTime: time.Date(2026, 9, 5, 19, 0, 0, 0, msk),
			wantCap:  8,
		},
		{
			name:     "with note",
			input:    "05.09.2026 19:00 8 спарринги у стенки",
			wantTime: time.Date(2026, 9, 5, 19, 0, 0, 0, msk),
			wantCap:  8,
			wantNote: "спарринги у стенки",
		},
		{name: "too few fields", input: "05.09.2026 19:00", wantErr: true},
		{name: "bad date", input: "вчера 19:00 8", wantErr: true},
		{name: "zero capacity", input: "05.09.2026 19:00 0", wantErr: true},
		{name: "capacity not a number", input: "05.09.2026 19:00 восемь", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			startsAt, capacity, note, err := h.parseSlotLine(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTime, startsAt)
			assert.Equal(t, tt.wantCap, capacity)
			assert.Equal(t, tt.wantNote, note)
		})
	}
}

func TestParseSettingsLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.GroupSettings
		wantErr bool
	}{
		{
			name:  "close at start",
			input: "2 10:00 0 360",
			want: model.GroupSettings{
				OpenDaysBefore:      2,
				OpenTime:            "10:00",
				CloseMode:           model.CloseAtStart,
				CancelMinutesBefore: 360,
			},
		},
		{
			name:  "close minutes before",
			input: "7 08:30 120 60",
			want: model.GroupSettings{
				OpenDaysBefore:      7,
				OpenTime:            "08:30",
				CloseMode:           model.CloseMinutesBefore,
				CloseMinutesBefore:  120,
				CancelMinutesBefore: 60,
			},
		},
		{name: "too few fields", input: "2 10:00 0", wantErr: true},
		{name: "negative days", input: "-1 10:00 0 360", wantErr: true},
		{name: "bad open time", input: "2 25:00 0 360", wantErr: true},
		{name: "close not a number", input: "2 10:00 старт 360", wantErr: true},
		{name: "negative cancel", input: "2 10:00 0 -5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := parseSettingsLine(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, settings)
		})
	}
}
