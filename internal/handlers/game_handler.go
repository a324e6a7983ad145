package handlers

import (
	"fmt"
	"net/http"

	"millionaire/internal/game"
	"millionaire/internal/service"
	"millionaire/internal/validation"
)

// GameHandler exposes the game operations of the signed-in player
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

type answerRequest struct {
	Letter string `json:"letter"`
}

type answerResponse struct {
	Correct bool     `json:"correct"`
	Game    GameView `json:"game"`
}

type takeMoneyResponse struct {
	Prize int64    `json:"prize"`
	Game  GameView `json:"game"`
}

type helpRequest struct {
	HelpType string `json:"help_type"`
}

type helpResponse struct {
	Hint game.Hint `json:"hint"`
	Game GameView  `json:"game"`
}

// Create starts a new game
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	g, err := h.gameService.CreateGame(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error creating game", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/games/%d", g.ID()))
	respondJSON(w, http.StatusCreated, newGameView(g))
}

// Show returns the state of a game
func (h *GameHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	gameID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	g, err := h.gameService.GetGame(r.Context(), user.ID, gameID)
	if err != nil {
		respondWithServiceError(w, "Error loading game", err)
		return
	}

	respondJSON(w, http.StatusOK, newGameView(g))
}

// Answer submits an answer letter for the current question
func (h *GameHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	gameID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateAnswerLetter(req.Letter); err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	res, err := h.gameService.Answer(r.Context(), user.ID, gameID, req.Letter)
	if err != nil {
		respondWithServiceError(w, "Error answering question", err)
		return
	}

	respondJSON(w, http.StatusOK, answerResponse{Correct: res.Correct, Game: newGameView(res.Game)})
}

// TakeMoney ends the game keeping the prize won so far
func (h *GameHandler) TakeMoney(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	gameID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	g, prize, err := h.gameService.TakeMoney(r.Context(), user.ID, gameID)
	if err != nil {
		respondWithServiceError(w, "Error taking money", err)
		return
	}

	respondJSON(w, http.StatusOK, takeMoneyResponse{Prize: prize, Game: newGameView(g)})
}

// Help applies a hint to the current question
func (h *GameHandler) Help(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	gameID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req helpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	hintType, err := validation.ValidateHintType(req.HelpType)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	g, hint, err := h.gameService.UseHelp(r.Context(), user.ID, gameID, hintType)
	if err != nil {
		respondWithServiceError(w, "Error using help", err)
		return
	}

	respondJSON(w, http.StatusOK, helpResponse{Hint: hint, Game: newGameView(g)})
}
