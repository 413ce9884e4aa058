package quality

import "testing"

func TestDeriveOverallStatus(t *testing.T) {
	tests := []struct {
		name  string
		items []Status
		prior Status
		want  Status
	}{
		{"single passed", []Status{StatusPassed}, StatusPending, StatusPassed},
		{"all passed", []Status{StatusPassed, StatusPassed, StatusPassed}, StatusPending, StatusPassed},
		{"all failed", []Status{StatusFailed, StatusFailed}, StatusPending, StatusFailed},
		{"passed and failed", []Status{StatusPassed, StatusFailed}, StatusPending, StatusFailed},
		{"passed and partial", []Status{StatusPassed, StatusPartial}, StatusPending, StatusPartial},
		{"failed and in progress", []Status{StatusFailed, StatusInProgress}, StatusPending, StatusPartial},
		{"single pending", []Status{StatusPending}, StatusPassed, StatusInProgress},
		{"passed and pending", []Status{StatusPassed, StatusPending}, StatusPending, StatusInProgress},
		{"failed and pending", []Status{StatusFailed, StatusPending}, StatusPending, StatusInProgress},
		{"empty keeps prior", nil, StatusPartial, StatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveOverallStatus(tt.items, tt.prior); got != tt.want {
				t.Fatalf("DeriveOverallStatus(%v, %q) = %q, want %q", tt.items, tt.prior, got, tt.want)
			}
		})
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	items := []Status{StatusPassed, StatusPartial, StatusPending}
	first := DeriveOverallStatus(items, StatusPending)
	for i := 0; i < 10; i++ {
		if got := DeriveOverallStatus(items, StatusPending); got != first {
			t.Fatalf("run %d: got %q, want %q", i, got, first)
		}
	}
}

func TestRecompute(t *testing.T) {
	qc := &QualityCheck{
		OverallStatus: StatusPending,
		Items: []Item{
			{Parameter: "Thickness", Status: StatusPassed},
			{Parameter: "Finish", Status: StatusPassed},
		},
	}
	if !qc.Recompute() {
		t.Fatal("expected status change")
	}
	if qc.OverallStatus != StatusPassed {
		t.Fatalf("OverallStatus = %q, want Passed", qc.OverallStatus)
	}
	if qc.Recompute() {
		t.Fatal("second recompute should not report a change")
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusInProgress.Valid() {
		t.Fatal("In Progress should be valid")
	}
	if Status("Done").Valid() {
		t.Fatal("unknown status reported valid")
	}
}
