package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/domain"
)

// GameHandler exposes the game use cases as JSON endpoints. The session id
// returned by POST /api/games identifies the player on every later call.
type GameHandler struct {
	service *app.GameService
}

func NewGameHandler(service *app.GameService) *GameHandler {
	return &GameHandler{service: service}
}

// Register mounts the REST routes on mux.
func (h *GameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.start)
	mux.HandleFunc("GET /api/games/{id}", h.current)
	mux.HandleFunc("DELETE /api/games/{id}", h.end)
	mux.HandleFunc("POST /api/games/{id}/answers", h.answer)
	mux.HandleFunc("GET /api/games/{id}/level-result", h.levelResult)
	mux.HandleFunc("POST /api/games/{id}/next", h.next)
	mux.HandleFunc("POST /api/games/{id}/time-up", h.timeUp)
	mux.HandleFunc("GET /api/ranking", h.ranking)
}

type startRequest struct {
	Name string `json:"name"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorPayload{Code: "bad_request", Message: "invalid JSON body"}})
		return
	}
	view, err := h.service.StartGame(r.Context(), req.Name)
	if err != nil {
		h.fail(w, err, view)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *GameHandler) current(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Current(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) end(w http.ResponseWriter, r *http.Request) {
	if err := h.service.EndSession(r.Context(), r.PathValue("id")); err != nil {
		respondWithError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errorPayload{Code: "bad_request", Message: "invalid JSON body"}})
		return
	}
	result, err := h.service.SubmitAnswer(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		h.fail(w, err, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) levelResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.LevelResult(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *GameHandler) next(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.NextLevel(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) timeUp(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.TimeUp(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GameHandler) ranking(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: errorPayload{Code: "bad_request", Message: "page must be an integer"}})
			return
		}
		page = n
	}
	result, err := h.service.Ranking(r.Context(), page)
	if err != nil {
		respondWithError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// fail attaches the partial result only for outcomes that still stand:
// a terminal game whose leaderboard write failed or whose pool ran out.
func (h *GameHandler) fail(w http.ResponseWriter, err error, partial any) {
	if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, domain.ErrPoolExhausted) {
		respondWithError(w, err, partial)
		return
	}
	respondWithError(w, err, nil)
}
