package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

func listTenantsHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/tenants")
		defer span.End()

		page, pageSize := parsePagination(r)
		query := r.URL.Query()
		q := domain.TenantListQuery{
			Search:   query.Get("search"),
			Plan:     query.Get("plan"),
			Status:   query.Get("status"),
			Page:     page,
			PageSize: pageSize,
		}

		tenants, meta, err := svc.List(ctx, AuthFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, tenants, meta)
	}
}

func getTenantHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/tenants/{tenantId}")
		defer span.End()

		tenantID, err := uuidParam(r, "tenantId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		tenant, err := svc.Get(ctx, AuthFromContext(ctx), tenantID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, tenant)
	}
}

func provisionTenantHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /admin/tenants")
		defer span.End()

		var req domain.ProvisionTenantRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		tenant, err := svc.Provision(ctx, AuthFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, tenant)
	}
}

func patchTenantHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /admin/tenants/{tenantId}")
		defer span.End()

		tenantID, err := uuidParam(r, "tenantId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var upd domain.TenantUpdate
		if err := decodeBody(r, &upd); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		tenant, err := svc.Patch(ctx, AuthFromContext(ctx), tenantID, upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, tenant)
	}
}

func deleteTenantHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /admin/tenants/{tenantId}")
		defer span.End()

		tenantID, err := uuidParam(r, "tenantId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.Delete(ctx, AuthFromContext(ctx), tenantID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func tenantEventsHandler(svc *service.TenantService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /admin/tenants/{tenantId}/events")
		defer span.End()

		tenantID, err := uuidParam(r, "tenantId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		events, err := svc.Events(ctx, AuthFromContext(ctx), tenantID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, events)
	}
}
