package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/observability"
	"github.com/emprestai/emprestai-go/internal/port"
)

var lookupTracer = otel.Tracer("service/lookup")

// LookupService resolves postal codes for address autofill, caching results
// since CEP data rarely changes.
type LookupService struct {
	fetcher port.CepFetcher
	cache   port.Cache[*domain.CepResult]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLookupService creates a new lookup service.
func NewLookupService(fetcher port.CepFetcher, cache port.Cache[*domain.CepResult], metrics *observability.Metrics, logger *zap.Logger) *LookupService {
	return &LookupService{fetcher: fetcher, cache: cache, metrics: metrics, logger: logger}
}

// Cep resolves a postal code, serving from cache when possible.
func (s *LookupService) Cep(ctx context.Context, cep string) (*domain.CepResult, error) {
	ctx, span := lookupTracer.Start(ctx, "LookupService.Cep")
	defer span.End()
	span.SetAttributes(attribute.String("cep", cep))

	normalized := normalizePostalCode(cep)
	if len(normalized) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "expected 8 digits"}
	}

	if cached, ok := s.cache.Get(normalized); ok {
		s.metrics.IncrCacheHit("cep")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("cep")

	result, err := s.fetcher.Lookup(ctx, normalized)
	if err != nil {
		if _, ok := err.(*domain.ErrNotFound); !ok {
			s.metrics.IncrExternalError("viacep")
			s.logger.Warn("cep lookup failed", zap.String("cep", normalized), zap.Error(err))
		}
		return nil, err
	}

	s.cache.Set(normalized, result)
	return result, nil
}
