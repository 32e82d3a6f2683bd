package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

func listLoansHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans")
		defer span.End()

		page, pageSize := parsePagination(r)
		query := r.URL.Query()
		q := domain.LoanListQuery{
			Status:   query.Get("status"),
			ClientID: query.Get("clientId"),
			Search:   query.Get("search"),
			Page:     page,
			PageSize: pageSize,
		}

		loans, meta, err := svc.List(ctx, AuthFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, loans, meta)
	}
}

func getLoanHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans/{loanId}")
		defer span.End()

		loanID, err := uuidParam(r, "loanId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		loan, err := svc.Get(ctx, AuthFromContext(ctx), loanID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, loan)
	}
}

func issueLoanHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/loans")
		defer span.End()

		var req domain.LoanRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		loan, err := svc.Issue(ctx, AuthFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, loan)
	}
}

func updateLoanHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/loans/{loanId}")
		defer span.End()

		loanID, err := uuidParam(r, "loanId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var upd domain.LoanUpdate
		if err := decodeBody(r, &upd); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		loan, err := svc.Update(ctx, AuthFromContext(ctx), loanID, upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, loan)
	}
}

func deleteLoanHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/loans/{loanId}")
		defer span.End()

		loanID, err := uuidParam(r, "loanId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := svc.Delete(ctx, AuthFromContext(ctx), loanID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listInstallmentsHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans/{loanId}/installments")
		defer span.End()

		loanID, err := uuidParam(r, "loanId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		installments, err := svc.Installments(ctx, AuthFromContext(ctx), loanID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, installments)
	}
}

func payLoanHandler(svc *service.LoanService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/loans/{loanId}/payments")
		defer span.End()

		loanID, err := uuidParam(r, "loanId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var req domain.PaymentRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		loan, err := svc.Pay(ctx, AuthFromContext(ctx), loanID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, loan)
	}
}
