package handlers

import (
	"net/http"

	"millionaire/internal/service"
)

// UserHandler serves player profiles
type UserHandler struct {
	gameService *service.GameService
}

// NewUserHandler creates a new user handler
func NewUserHandler(gameService *service.GameService) *UserHandler {
	return &UserHandler{gameService: gameService}
}

// Show returns a player's profile and game history. Any signed-in player
// may view any profile.
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	profile, err := h.gameService.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "Error loading profile", err)
		return
	}

	respondJSON(w, http.StatusOK, newProfileView(profile))
}

// Me returns the signed-in player's own profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	profile, err := h.gameService.GetProfile(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading profile", err)
		return
	}

	respondJSON(w, http.StatusOK, newProfileView(profile))
}
