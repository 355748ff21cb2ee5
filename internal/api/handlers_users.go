/**
 * @description
 * This file contains the HTTP handlers for the public user endpoints: signup,
 * email verification and login. These routes sit outside the auth middleware
 * because their callers do not hold a token yet.
 */

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/corebank/banking-service/internal/domain"
)

// SignUpHandler registers a new user and their default account.
func (h *BankingHandlers) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username, email and password are required"})
		return
	}

	user, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// VerifyEmailHandler confirms a pending verification code.
func (h *BankingHandlers) VerifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Email == "" || req.Code == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and code are required"})
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "email verified"})
}

// RequestVerificationCodeHandler issues a fresh verification code for an
// unverified user and queues the mail that carries it.
func (h *BankingHandlers) RequestVerificationCodeHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Email == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	if err := h.service.RequestVerificationCode(r.Context(), req.Email); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "verification code sent"})
}

// LoginHandler authenticates a username/password pair and returns an access token.
func (h *BankingHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username and password are required"})
		return
	}

	token, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, token)
}
