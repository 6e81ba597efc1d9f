package Escalation

import (
	"testing"
	"time"

	"Hearth/Models"
)

func clock(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestIsSuppressed_Disabled(t *testing.T) {
	settings := Models.QuietHoursSettings{Enabled: false, Start: "21:00", End: "07:00"}
	if IsSuppressed(clock(23, 0), settings) {
		t.Error("disabled settings should never suppress")
	}
}

func TestIsSuppressed_DaytimeWindow(t *testing.T) {
	settings := Models.QuietHoursSettings{Enabled: true, Start: "13:00", End: "15:00"}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window", clock(12, 59), false},
		{"window start", clock(13, 0), true},
		{"inside window", clock(14, 0), true},
		{"window end", clock(15, 0), false},
		{"after window", clock(16, 0), false},
	}

	for _, tc := range cases {
		if got := IsSuppressed(tc.now, settings); got != tc.want {
			t.Errorf("%s: IsSuppressed = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSuppressed_OvernightWindow(t *testing.T) {
	settings := Models.QuietHoursSettings{Enabled: true, Start: "21:00", End: "07:00"}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"evening before start", clock(20, 59), false},
		{"window start", clock(21, 0), true},
		{"midnight", clock(0, 0), true},
		{"early morning", clock(6, 59), true},
		{"window end", clock(7, 0), false},
		{"midday", clock(12, 0), false},
	}

	for _, tc := range cases {
		if got := IsSuppressed(tc.now, settings); got != tc.want {
			t.Errorf("%s: IsSuppressed = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsSuppressed_ZeroLengthWindow(t *testing.T) {
	settings := Models.QuietHoursSettings{Enabled: true, Start: "09:00", End: "09:00"}
	if IsSuppressed(clock(9, 0), settings) {
		t.Error("zero-length window should not suppress")
	}
}

func TestIsSuppressed_MalformedTimes(t *testing.T) {
	settings := Models.QuietHoursSettings{Enabled: true, Start: "9pm", End: "07:00"}
	if IsSuppressed(clock(23, 0), settings) {
		t.Error("malformed window should not suppress")
	}
}
