package observability_test

import (
	"testing"
	"time"

	"github.com/emprestai/emprestai-go/internal/infra/observability"
)

func TestMetrics_SnapshotErrorRate(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("success")
	m.IncrRequest("error")

	snap := m.Snapshot()
	if snap.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", snap.ErrorRate)
	}
}

func TestMetrics_RequestDurationObserved(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordRequestDuration("GET /v1/loans", 120*time.Millisecond)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "emprestai_request_duration_seconds" {
			continue
		}
		if len(fam.Metric) != 1 {
			t.Fatalf("expected 1 labeled series, got %d", len(fam.Metric))
		}
		if got := fam.Metric[0].Histogram.GetSampleCount(); got != 1 {
			t.Errorf("expected 1 observation, got %d", got)
		}
		return
	}
	t.Fatal("duration histogram not found in registry")
}

func TestMetrics_PortfolioCounters(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordLoanIssued(1000)
	m.RecordLoanIssued(250.50)
	m.RecordPayment(366.66)

	snap := m.Snapshot()
	if snap.LoansIssued != 2 {
		t.Errorf("expected 2 loans issued, got %d", snap.LoansIssued)
	}
	if snap.AmountDisbursed != 1250.50 {
		t.Errorf("expected 1250.50 disbursed, got %f", snap.AmountDisbursed)
	}
	if snap.PaymentsRecorded != 1 {
		t.Errorf("expected 1 payment, got %d", snap.PaymentsRecorded)
	}
}
