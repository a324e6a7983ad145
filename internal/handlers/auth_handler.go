package handlers

import (
	"net/http"

	"millionaire/internal/security"
	"millionaire/internal/service"
)

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at"`
	User      UserView `json:"user"`
}

// Register creates an account and signs the new player in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		respondWithServiceError(w, "Error registering user", err)
		return
	}

	h.login(w, r, req, http.StatusCreated)
}

// Login exchanges credentials for a token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.login(w, r, req, http.StatusOK)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, req credentialsRequest, status int) {
	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, "Error logging in", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, res.Token, res.Session.ExpiresAt))
	respondJSON(w, status, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.Session.ExpiresAt.UTC().Format(timeFormat),
		User:      newUserView(res.User),
	})
}

// Logout ends the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), sessionFromContext(r.Context())); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}
