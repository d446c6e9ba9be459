package eventtime

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseLabel(t *testing.T) {
	cases := []struct {
		label string
		want  TimeOfDay
	}{
		{"02:00 PM", TimeOfDay{14, 0}},
		{"2:00 pm", TimeOfDay{14, 0}},
		{"12:00 AM", TimeOfDay{0, 0}},
		{"12:30 PM", TimeOfDay{12, 30}},
		{"11:59PM", TimeOfDay{23, 59}},
		{" 09:05 am ", TimeOfDay{9, 5}},
	}
	for _, tc := range cases {
		got, err := ParseLabel(tc.label)
		if err != nil {
			t.Fatalf("ParseLabel(%q) returned error: %v", tc.label, err)
		}
		if got != tc.want {
			t.Errorf("ParseLabel(%q) = %+v, want %+v", tc.label, got, tc.want)
		}
	}
}

func TestParseLabelRejectsMalformed(t *testing.T) {
	for _, label := range []string{"", "14:00", "13:00 PM", "00:30 AM", "2:5 PM", "02:60 AM", "noon"} {
		if _, err := ParseLabel(label); err == nil {
			t.Errorf("ParseLabel(%q) expected error", label)
		}
	}
}

func TestLabelRoundTrip(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			in := TimeOfDay{Hour: hour, Minute: minute}
			label := in.Label()
			out, err := ParseLabel(label)
			if err != nil {
				t.Fatalf("ParseLabel(%q) returned error: %v", label, err)
			}
			if out != in {
				t.Fatalf("round trip %+v -> %q -> %+v", in, label, out)
			}
		}
	}
}

func TestLabelNoonAndMidnight(t *testing.T) {
	if got := (TimeOfDay{0, 0}).Label(); got != "12:00 AM" {
		t.Errorf("midnight label = %q", got)
	}
	if got := (TimeOfDay{12, 0}).Label(); got != "12:00 PM" {
		t.Errorf("noon label = %q", got)
	}
	if got := (TimeOfDay{9, 5}).Label(); got != "09:05 AM" {
		t.Errorf("morning label = %q", got)
	}
}

func TestIsEventCompleteDateDominates(t *testing.T) {
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

	for _, label := range []string{"12:00 AM", "08:00 AM", "11:59 PM"} {
		done, err := IsEventComplete(date(2026, time.March, 9), label, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !done {
			t.Errorf("past date with %q should be complete", label)
		}

		done, err = IsEventComplete(date(2026, time.March, 11), label, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if done {
			t.Errorf("future date with %q should not be complete", label)
		}
	}

	done, _ := IsEventComplete(date(2025, time.December, 31), "11:59 PM", now)
	if !done {
		t.Error("event in the previous year should be complete")
	}
	done, _ = IsEventComplete(date(2026, time.April, 1), "12:00 AM", now)
	if done {
		t.Error("event in a later month should not be complete")
	}
}

func TestIsEventCompleteSameDay(t *testing.T) {
	day := date(2026, time.March, 10)

	at := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	done, err := IsEventComplete(day, "02:00 PM", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Error("event should be complete at its exact start minute")
	}

	before := time.Date(2026, time.March, 10, 13, 59, 59, 0, time.UTC)
	done, _ = IsEventComplete(day, "02:00 PM", before)
	if done {
		t.Error("event should not be complete one minute before start")
	}

	midnight := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	done, _ = IsEventComplete(day, "12:00 AM", midnight)
	if !done {
		t.Error("12:00 AM event should be complete at midnight")
	}
	done, _ = IsEventComplete(day, "12:30 PM", time.Date(2026, time.March, 10, 0, 45, 0, 0, time.UTC))
	if done {
		t.Error("12:30 PM event should not be complete at 00:45")
	}
}

func TestIsEventCompleteUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 22:00 UTC on the 9th is already 03:00 on the 10th at UTC+5.
	now := time.Date(2026, time.March, 9, 22, 0, 0, 0, time.UTC).In(loc)

	done, _ := IsEventComplete(date(2026, time.March, 10), "02:00 AM", now)
	if !done {
		t.Error("expected complete when now is 03:00 local on the event date")
	}
	done, _ = IsEventComplete(date(2026, time.March, 10), "04:00 AM", now)
	if done {
		t.Error("expected not complete before 04:00 local on the event date")
	}
}

func TestIsEventCompleteDeterministic(t *testing.T) {
	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	first, _ := IsEventComplete(date(2026, time.March, 10), "02:00 PM", now)
	for i := 0; i < 100; i++ {
		got, _ := IsEventComplete(date(2026, time.March, 10), "02:00 PM", now)
		if got != first {
			t.Fatalf("call %d returned %v, first returned %v", i, got, first)
		}
	}
}

func TestIsEventCompleteInvalidLabel(t *testing.T) {
	if _, err := IsEventComplete(date(2020, time.January, 1), "25:00", time.Now()); err == nil {
		t.Fatal("expected error for malformed label")
	}
}
