package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-undo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-undo/internal/entity"
)

type handlers struct {
	logger *slog.Logger
	uGame  uGame
}

type moveRequest struct {
	Cell *int `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.CreateGame(r.Context())
	if err != nil {
		that.writeError(w, r, "createGame", err)
		return
	}

	that.writeJSON(w, r, http.StatusCreated, entity.NewGameView(game, false))
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, "getGame", err)
		return
	}

	that.writeJSON(w, r, http.StatusOK, entity.NewGameView(game, false))
}

func (that *handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := that.uGame.DeleteGame(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, r, "deleteGame", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) makeMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		that.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	game, applied, err := that.uGame.MakeMove(r.Context(), chi.URLParam(r, "id"), *req.Cell)
	if err != nil {
		that.writeError(w, r, "makeMove", err)
		return
	}

	that.writeJSON(w, r, http.StatusOK, entity.NewGameView(game, applied))
}

func (that *handlers) undoLast(w http.ResponseWriter, r *http.Request) {
	game, applied, err := that.uGame.UndoLast(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, "undoLast", err)
		return
	}

	that.writeJSON(w, r, http.StatusOK, entity.NewGameView(game, applied))
}

// writeError - maps domain errors to status codes; anything unknown is a 500.
func (that *handlers) writeError(w http.ResponseWriter, r *http.Request, method string, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		that.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: apperror.ErrGameNotFound.Error()})
	case errors.Is(err, apperror.ErrInvalidCell):
		that.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: apperror.ErrInvalidCell.Error()})
	default:
		loggerFromContext(r.Context(), that.logger).Error("request failed", "method", method, "error", err)
		that.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		loggerFromContext(r.Context(), that.logger).Error("failed to write response", "error", err)
	}
}
