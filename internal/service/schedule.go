// Package service holds the business operations behind the HTTP API.
package service

import (
	"math"
	"time"

	"github.com/emprestai/emprestai-go/internal/domain"
)

// BuildSchedule generates a loan's installment schedule. Pure and
// deterministic: interest is flat (computed once on principal) and both
// principal and interest are split equally across installments, not
// amortized. Amounts are whole cents; the split rounds down and the final
// installment absorbs the remainder, so the stored schedule sums exactly to
// the cent-rounded total even after the database truncates to two decimals.
// Installment i is due i-1 months after firstDue, with the day clamped to
// the last day of shorter months (Jan 31 + 1 month = Feb 29 in a leap year).
func BuildSchedule(principal, interestRate float64, firstDue time.Time, installments int) []domain.Installment {
	total := principal * (1 + interestRate/100)

	principalCents := toCents(principal)
	totalCents := toCents(total)

	n := int64(installments)
	principalPer := principalCents / n
	totalPer := totalCents / n

	schedule := make([]domain.Installment, installments)
	for i := range schedule {
		p, t := principalPer, totalPer
		if i == installments-1 {
			p = principalCents - principalPer*(n-1)
			t = totalCents - totalPer*(n-1)
		}
		schedule[i] = domain.Installment{
			Sequence:     i + 1,
			DueDate:      addMonthsClamped(firstDue, i),
			PrincipalDue: fromCents(p),
			InterestDue:  fromCents(t - p),
			TotalDue:     fromCents(t),
			Status:       domain.InstallmentPending,
		}
	}
	return schedule
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// addMonthsClamped adds months to a date, clamping the day to the target
// month's length. time.AddDate alone would normalize Jan 31 + 1 month to
// Mar 2/3.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
