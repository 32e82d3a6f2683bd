package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/cache"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/service"
)

type countingCepFetcher struct {
	calls  int
	result *domain.CepResult
	err    error
}

func (m *countingCepFetcher) Lookup(_ context.Context, _ string) (*domain.CepResult, error) {
	m.calls++
	return m.result, m.err
}

func newLookupService(fetcher *countingCepFetcher) *service.LookupService {
	return service.NewLookupService(fetcher, cache.New[*domain.CepResult](time.Minute),
		observability.NewMetrics(), zap.NewNop())
}

func TestCepLookup_CachesResults(t *testing.T) {
	fetcher := &countingCepFetcher{result: &domain.CepResult{Cep: "51020-000", City: "Recife"}}
	svc := newLookupService(fetcher)

	for i := 0; i < 3; i++ {
		result, err := svc.Cep(context.Background(), "51020-000")
		if err != nil {
			t.Fatalf("lookup %d: expected no error, got %v", i, err)
		}
		if result.City != "Recife" {
			t.Errorf("lookup %d: expected Recife, got %q", i, result.City)
		}
	}

	if fetcher.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", fetcher.calls)
	}
}

func TestCepLookup_NormalizesBeforeValidating(t *testing.T) {
	fetcher := &countingCepFetcher{result: &domain.CepResult{}}
	svc := newLookupService(fetcher)

	if _, err := svc.Cep(context.Background(), "51020-000"); err != nil {
		t.Errorf("hyphenated cep: expected no error, got %v", err)
	}

	_, err := svc.Cep(context.Background(), "not-a-cep")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("non-numeric cep: expected validation error, got %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("invalid cep must not reach upstream, got %d calls", fetcher.calls)
	}
}

func TestCepLookup_ErrorsAreNotCached(t *testing.T) {
	fetcher := &countingCepFetcher{err: &domain.ErrExternalService{Service: "viacep", Err: errors.New("down")}}
	svc := newLookupService(fetcher)

	for i := 0; i < 2; i++ {
		if _, err := svc.Cep(context.Background(), "51020000"); err == nil {
			t.Fatalf("lookup %d: expected error", i)
		}
	}

	if fetcher.calls != 2 {
		t.Errorf("expected 2 upstream calls, got %d", fetcher.calls)
	}
}
