package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

func listClientsHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients")
		defer span.End()

		page, pageSize := parsePagination(r)
		query := r.URL.Query()
		q := domain.ClientListQuery{
			Search:   query.Get("search"),
			Name:     query.Get("name"),
			City:     query.Get("city"),
			District: query.Get("district"),
			Page:     page,
			PageSize: pageSize,
		}

		clients, meta, err := svc.List(ctx, AuthFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, clients, meta)
	}
}

func getClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/clients/{clientId}")
		defer span.End()

		clientID, err := uuidParam(r, "clientId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		client, err := svc.Get(ctx, AuthFromContext(ctx), clientID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, client)
	}
}

func createClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/clients")
		defer span.End()

		var in domain.ClientInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		client, err := svc.Create(ctx, AuthFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, client)
	}
}

func updateClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/clients/{clientId}")
		defer span.End()

		clientID, err := uuidParam(r, "clientId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var in domain.ClientInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		client, err := svc.Update(ctx, AuthFromContext(ctx), clientID, &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, client)
	}
}

func deleteClientHandler(svc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/clients/{clientId}")
		defer span.End()

		clientID, err := uuidParam(r, "clientId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.Delete(ctx, AuthFromContext(ctx), clientID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
