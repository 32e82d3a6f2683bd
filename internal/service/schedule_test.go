package service

import (
	"math"
	"testing"
	"time"

	"github.com/emprestai/emprestai-go/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildSchedule_SplitsFlatInterestEqually(t *testing.T) {
	schedule := BuildSchedule(1000, 10, date(2026, time.March, 15), 2)

	if len(schedule) != 2 {
		t.Fatalf("expected 2 installments, got %d", len(schedule))
	}
	for i, inst := range schedule {
		if inst.Sequence != i+1 {
			t.Errorf("installment %d: expected sequence %d, got %d", i, i+1, inst.Sequence)
		}
		if inst.Status != domain.InstallmentPending {
			t.Errorf("installment %d: expected status pending, got %s", i, inst.Status)
		}
		if math.Abs(inst.PrincipalDue-500) > 1e-9 {
			t.Errorf("installment %d: expected principal 500, got %f", i, inst.PrincipalDue)
		}
		if math.Abs(inst.InterestDue-50) > 1e-9 {
			t.Errorf("installment %d: expected interest 50, got %f", i, inst.InterestDue)
		}
		if math.Abs(inst.TotalDue-550) > 1e-9 {
			t.Errorf("installment %d: expected total 550, got %f", i, inst.TotalDue)
		}
	}
}

func TestBuildSchedule_SumEqualsTotal(t *testing.T) {
	cases := []struct {
		principal float64
		rate      float64
		n         int
	}{
		{1000, 10, 1},
		{1000, 10, 3},
		{7531.13, 12.5, 7},
		{500, 0, 4},
	}

	for _, tc := range cases {
		schedule := BuildSchedule(tc.principal, tc.rate, date(2026, time.January, 10), tc.n)

		var sum float64
		for _, inst := range schedule {
			sum += inst.TotalDue
		}
		want := math.Round(tc.principal*(1+tc.rate/100)*100) / 100
		if math.Abs(sum-want) > 1e-9 {
			t.Errorf("principal=%f rate=%f n=%d: expected sum %f, got %f",
				tc.principal, tc.rate, tc.n, want, sum)
		}
	}
}

func TestBuildSchedule_WholeCentsWithRemainderOnFinal(t *testing.T) {
	// 1100.00 over 3 does not divide evenly in cents: 366.66 + 366.66 +
	// 366.68. Anything else drifts once the columns round to two decimals.
	schedule := BuildSchedule(1000, 10, date(2026, time.March, 15), 3)

	wantTotals := []float64{366.66, 366.66, 366.68}
	wantPrincipal := []float64{333.33, 333.33, 333.34}
	var sum float64
	for i, inst := range schedule {
		if math.Abs(inst.TotalDue-wantTotals[i]) > 1e-9 {
			t.Errorf("installment %d: expected total %.2f, got %f", i+1, wantTotals[i], inst.TotalDue)
		}
		if math.Abs(inst.PrincipalDue-wantPrincipal[i]) > 1e-9 {
			t.Errorf("installment %d: expected principal %.2f, got %f", i+1, wantPrincipal[i], inst.PrincipalDue)
		}
		if math.Abs(inst.PrincipalDue+inst.InterestDue-inst.TotalDue) > 1e-9 {
			t.Errorf("installment %d: principal+interest != total", i+1)
		}
		cents := inst.TotalDue * 100
		if math.Abs(cents-math.Round(cents)) > 1e-9 {
			t.Errorf("installment %d: total %f is not a whole cent amount", i+1, inst.TotalDue)
		}
		sum += inst.TotalDue
	}
	if math.Abs(sum-1100) > 1e-9 {
		t.Errorf("expected schedule to sum to 1100.00 exactly, got %f", sum)
	}
}

func TestBuildSchedule_MonthlyDueDates(t *testing.T) {
	schedule := BuildSchedule(300, 0, date(2026, time.March, 15), 3)

	want := []time.Time{
		date(2026, time.March, 15),
		date(2026, time.April, 15),
		date(2026, time.May, 15),
	}
	for i, inst := range schedule {
		if !inst.DueDate.Equal(want[i]) {
			t.Errorf("installment %d: expected due date %s, got %s",
				i+1, want[i].Format("2006-01-02"), inst.DueDate.Format("2006-01-02"))
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"regular", date(2026, time.March, 15), 1, date(2026, time.April, 15)},
		{"jan 31 to feb in leap year", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"jan 31 to feb in common year", date(2026, time.January, 31), 1, date(2026, time.February, 28)},
		{"clamp then keep clamping", date(2026, time.January, 31), 3, date(2026, time.April, 30)},
		{"year rollover", date(2026, time.November, 30), 3, date(2027, time.February, 28)},
		{"zero months", date(2026, time.July, 1), 0, date(2026, time.July, 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := addMonthsClamped(tc.start, tc.months)
			if !got.Equal(tc.want) {
				t.Errorf("expected %s, got %s",
					tc.want.Format("2006-01-02"), got.Format("2006-01-02"))
			}
		})
	}
}
