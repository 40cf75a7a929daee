package task

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDueTime(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
		wantErr      bool
	}{
		// morning
		{in: "01:00 AM", hour: 1},
		{in: "09:05 AM", hour: 9, minute: 5},
		{in: "11:59 AM", hour: 11, minute: 59},
		// noon & midnight
		{in: "12:00 PM", hour: 12},
		{in: "12:30 PM", hour: 12, minute: 30},
		{in: "12:00 AM", hour: 0},
		{in: "12:59 AM", hour: 0, minute: 59},
		// afternoon & evening
		{in: "01:00 PM", hour: 13},
		{in: "02:30 PM", hour: 14, minute: 30},
		{in: "11:59 PM", hour: 23, minute: 59},
		// malformed
		{in: "", wantErr: true},
		{in: "2:30 PM", wantErr: true},   // hour not zero-padded
		{in: "02:5 PM", wantErr: true},   // minute not zero-padded
		{in: "02:30PM", wantErr: true},   // missing space
		{in: "02:30 pm", wantErr: true},  // lowercase marker
		{in: "02:30 XM", wantErr: true},  // unknown marker
		{in: "00:30 AM", wantErr: true},  // hour out of range
		{in: "13:00 PM", wantErr: true},  // hour out of range
		{in: "02:60 PM", wantErr: true},  // minute out of range
		{in: "02-30 PM", wantErr: true},  // wrong separator
		{in: "ab:cd PM", wantErr: true},  // not numeric
		{in: "02:30  PM", wantErr: true}, // double space
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.in), func(t *testing.T) {
			hour, minute, err := ParseDueTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			if assert.NoError(t, err) {
				assert.Equal(t, tt.hour, hour)
				assert.Equal(t, tt.minute, minute)
			}
		})
	}
}
