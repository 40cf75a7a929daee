package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nkashama/duetrack/core/task"
)

func TestDueAt(t *testing.T) {
	loc := time.UTC
	date := time.Date(2021, time.March, 15, 0, 0, 0, 0, loc)

	tests := []struct {
		name    string
		dueDate time.Time
		dueTime string
		want    time.Time
		wantErr bool
	}{
		{
			name:    "afternoon",
			dueDate: date,
			dueTime: "02:30 PM",
			want:    time.Date(2021, time.March, 15, 14, 30, 0, 0, loc),
		},
		{
			name:    "before midnight",
			dueDate: date,
			dueTime: "11:59 PM",
			want:    time.Date(2021, time.March, 15, 23, 59, 0, 0, loc),
		},
		{
			name:    "midnight",
			dueDate: date,
			dueTime: "12:00 AM",
			want:    time.Date(2021, time.March, 15, 0, 0, 0, 0, loc),
		},
		{
			name: "embedded time of day ignored",
			// stored due dates sometimes carry a non-midnight clock
			dueDate: time.Date(2021, time.March, 15, 18, 45, 12, 0, loc),
			dueTime: "09:00 AM",
			want:    time.Date(2021, time.March, 15, 9, 0, 0, 0, loc),
		},
		{
			name:    "malformed due time",
			dueDate: date,
			dueTime: "2:30 PM",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DueAt(tt.dueDate, tt.dueTime, loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	loc := time.UTC
	now := time.Date(2021, time.March, 15, 10, 0, 0, 0, loc)
	horizon := 24 * time.Hour
	date := func(day int) time.Time { return time.Date(2021, time.March, day, 0, 0, 0, 0, loc) }

	tests := []struct {
		name string
		tsk  task.Task
		want bool
	}{
		{
			name: "due exactly now",
			tsk:  task.Task{DueDate: date(15), DueTime: "10:00 AM"},
			want: true,
		},
		{
			name: "due exactly at horizon",
			tsk:  task.Task{DueDate: date(16), DueTime: "10:00 AM"},
			want: true,
		},
		{
			name: "inside window",
			tsk:  task.Task{DueDate: date(15), DueTime: "11:59 PM"},
			want: true,
		},
		{
			name: "one minute past due",
			tsk:  task.Task{DueDate: date(15), DueTime: "09:59 AM"},
			want: false,
		},
		{
			name: "one minute beyond horizon",
			tsk:  task.Task{DueDate: date(16), DueTime: "10:01 AM"},
			want: false,
		},
		{
			name: "unparseable due time is never due",
			tsk:  task.Task{DueDate: date(15), DueTime: "10:00"},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDue(tt.tsk, now, horizon))
		})
	}
}
