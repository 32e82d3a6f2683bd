package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/emprestai/emprestai-go/internal/domain"
	"github.com/emprestai/emprestai-go/internal/service"
)

func listAccountsHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		accounts, err := svc.List(ctx, AuthFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, accounts)
	}
}

func getAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}")
		defer span.End()

		accountID, err := uuidParam(r, "accountId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		account, err := svc.Get(ctx, AuthFromContext(ctx), accountID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusOK, account)
	}
}

func createAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		var in domain.AccountInput
		if err := decodeBody(r, &in); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		account, err := svc.Create(ctx, AuthFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, account)
	}
}

func depositHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/deposits")
		defer span.End()

		accountID, err := uuidParam(r, "accountId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var req domain.MovementRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		account, err := svc.Deposit(ctx, AuthFromContext(ctx), accountID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, account)
	}
}

func withdrawHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/withdrawals")
		defer span.End()

		accountID, err := uuidParam(r, "accountId")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var req domain.MovementRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		account, err := svc.Withdraw(ctx, AuthFromContext(ctx), accountID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeData(w, http.StatusCreated, account)
	}
}

func listTransactionsHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		page, pageSize := parsePagination(r)
		query := r.URL.Query()
		q := domain.TransactionListQuery{
			AccountID: query.Get("accountId"),
			Direction: query.Get("direction"),
			LoanID:    query.Get("loanId"),
			Page:      page,
			PageSize:  pageSize,
		}

		txs, meta, err := svc.Transactions(ctx, AuthFromContext(ctx), q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeList(w, txs, meta)
	}
}
