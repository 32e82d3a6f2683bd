// Package client holds outbound HTTP clients for external services.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// CepClient resolves Brazilian postal codes via the ViaCEP API.
type CepClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewCepClient creates a new CepClient.
func NewCepClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CepClient {
	return &CepClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// viaCepResponse mirrors the ViaCEP payload. The API answers 200 with
// {"erro": true} for unknown codes instead of a 404.
type viaCepResponse struct {
	Cep        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	Uf         string `json:"uf"`
	Erro       bool   `json:"erro"`
}

// Lookup fetches an address with retry, circuit breaker, and tracing.
func (c *CepClient) Lookup(ctx context.Context, cep string) (*domain.CepResult, error) {
	ctx, span := tracer.Start(ctx, "CepClient.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("cep", cep))

	var payload viaCepResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, cep)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("viacep returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&payload)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		if payload.Erro {
			return nil, &domain.ErrNotFound{Resource: "cep", ID: cep}
		}
		return &domain.CepResult{
			Cep:      payload.Cep,
			Street:   payload.Logradouro,
			District: payload.Bairro,
			City:     payload.Localidade,
			State:    payload.Uf,
		}, nil
	})

	if err != nil {
		if _, ok := err.(*domain.ErrNotFound); ok {
			return nil, err
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrCircuitOpen{Service: "viacep"}
		}
		return nil, &domain.ErrExternalService{Service: "viacep", Err: err}
	}

	return result.(*domain.CepResult), nil
}
