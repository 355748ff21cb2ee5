/**
 * @description
 * This file contains the HTTP handlers for the account and ledger endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For URL parameters.
 * - internal/app, internal/domain: For service logic, models, and errors.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/corebank/banking-service/internal/app"
	"github.com/corebank/banking-service/internal/domain"
)

// BankingHandlers holds the application service that handlers will use.
type BankingHandlers struct {
	service *app.Service
}

// NewBankingHandlers creates a new instance of BankingHandlers.
func NewBankingHandlers(service *app.Service) *BankingHandlers {
	return &BankingHandlers{service: service}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *BankingHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			log.Printf("level=error component=api msg=\"response encode failed\" err=%v", err)
		}
	}
}

// writeServiceError maps a service error onto its HTTP status using the error
// kind. Internal errors are logged in full but surface as an opaque 500.
func (h *BankingHandlers) writeServiceError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	message := err.Error()

	switch kind {
	case domain.KindInvalidAmount, domain.KindMissingDestination:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindNameConflict:
		status = http.StatusConflict
	case domain.KindInsufficientFunds:
		status = http.StatusBadRequest
	case domain.KindUnauthenticated:
		status = http.StatusUnauthorized
	default:
		log.Printf("level=error component=api msg=\"internal error\" err=%v", err)
		message = "internal server error"
	}

	h.writeJSON(w, status, errorResponse{Error: message, Code: kind.String()})
}

// currentUser resolves the authenticated username from the context into its
// user record. It writes the error response itself and returns nil on failure.
func (h *BankingHandlers) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	username, ok := GetAuthUsername(r.Context())
	if !ok {
		http.Error(w, "Could not get username from context", http.StatusInternalServerError)
		return nil
	}
	user, err := h.service.ResolveUser(r.Context(), username)
	if err != nil {
		log.Printf("level=warn component=api outcome=reject reason=user_resolution_failed username=%s err=%v", username, err)
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "user not found", Code: domain.KindUnauthenticated.String()})
		return nil
	}
	return user
}

// CreateAccountHandler opens a new named account for the authenticated user.
func (h *BankingHandlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.AccountName) == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account_name is required"})
		return
	}

	account, err := h.service.AddAccount(r.Context(), user.ID, strings.TrimSpace(req.AccountName))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, domain.ViewOf(account))
}

// ListAccountsHandler returns every account owned by the authenticated user.
func (h *BankingHandlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	views := make([]domain.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, domain.ViewOf(&accounts[i]))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// GetAccountHandler returns one of the authenticated user's accounts by name.
func (h *BankingHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	accountName := chi.URLParam(r, "accountName")
	account, err := h.service.GetAccount(r.Context(), user.ID, accountName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.ViewOf(account))
}

// DeleteAccountHandler removes one of the authenticated user's accounts.
func (h *BankingHandlers) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	accountName := chi.URLParam(r, "accountName")
	if err := h.service.DeleteAccount(r.Context(), user.ID, accountName); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
}

// DepositHandler credits an amount to one of the authenticated user's accounts.
func (h *BankingHandlers) DepositHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	record, err := h.service.Deposit(r.Context(), user.ID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// TransferHandler moves an amount from one of the authenticated user's
// accounts to a destination account, possibly owned by another user.
func (h *BankingHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	var req domain.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	record, err := h.service.Transfer(r.Context(), user.ID, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, record)
}

// HistoryHandler returns the activity feed of one of the authenticated user's
// accounts, oldest first.
func (h *BankingHandlers) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	accountName := chi.URLParam(r, "accountName")
	entries, err := h.service.GetHistory(r.Context(), user.ID, accountName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}
