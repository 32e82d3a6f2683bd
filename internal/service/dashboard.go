package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/port"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// defaultEvolutionMonths is the chart window when the caller does not ask
// for one.
const defaultEvolutionMonths = 6

// DashboardService aggregates the tenant's portfolio for the dashboard.
type DashboardService struct {
	store  port.ReportStore
	logger *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.ReportStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, logger: logger}
}

// Summary fans the aggregate queries out in parallel; the response is a
// consistent-enough snapshot for a dashboard, not a ledger statement.
func (s *DashboardService) Summary(ctx context.Context, auth domain.AuthContext) (*domain.DashboardSummary, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "read dashboard without tenant context"}
	}

	var summary domain.DashboardSummary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountLoans(gctx, auth.TenantID, domain.LoanActive)
		summary.ActiveLoans = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountLoans(gctx, auth.TenantID, domain.LoanOverdue)
		summary.OverdueLoans = n
		return err
	})
	g.Go(func() error {
		v, err := s.store.OutstandingPrincipal(gctx, auth.TenantID)
		summary.OutstandingPrincipal = v
		return err
	})
	g.Go(func() error {
		v, err := s.store.TotalReceived(gctx, auth.TenantID)
		summary.TotalReceived = v
		return err
	})
	g.Go(func() error {
		v, err := s.store.TotalAccountBalance(gctx, auth.TenantID)
		summary.AccountBalance = v
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountClients(gctx, auth.TenantID)
		summary.Clients = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate dashboard: %w", err)
	}

	s.logger.Debug("dashboard summary computed",
		zap.String("tenant_id", auth.TenantID),
		zap.Int("active_loans", summary.ActiveLoans))
	return &summary, nil
}

// Evolution returns per-month disbursed vs received totals for the chart.
func (s *DashboardService) Evolution(ctx context.Context, auth domain.AuthContext, months int) ([]domain.EvolutionPoint, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Evolution")
	defer span.End()

	if auth.TenantID == "" {
		return nil, &domain.ErrForbidden{Action: "read dashboard without tenant context"}
	}
	if months <= 0 {
		months = defaultEvolutionMonths
	}
	if months > 36 {
		months = 36
	}
	return s.store.Evolution(ctx, auth.TenantID, months)
}
