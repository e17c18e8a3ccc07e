package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/domain"
)

// WSHandler drives one game per websocket connection. The connection reads
// commands in order, so a player's operations are already serialized here;
// the session store lock covers REST clients touching the same session.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Name string `json:"name"`
}

type rankingPayload struct {
	Page int `json:"page"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Game    any    `json:"game,omitempty"`
}

// ServeWS upgrades the request and runs the game loop until the client
// disconnects. ?session=<id> reattaches to an existing session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	sess := &wsSession{service: h.service, id: sessionID, send: send, done: writerDone}
	if sessionID != "" {
		sess.resume(r.Context())
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		sess.handle(r.Context(), inbound)
	}

	close(send)
	<-writerDone
}

type wsSession struct {
	service *app.GameService
	id      string
	send    chan<- outboundMessage[any]
	// done closes when the writer stops; later messages are dropped.
	done    <-chan struct{}
}

func (s *wsSession) emit(kind string, payload any) {
	select {
	case s.send <- outboundMessage[any]{Type: kind, Payload: payload}:
	case <-s.done:
	}
}

func (s *wsSession) fail(err error, game any) {
	payload := errorPayloadFor(err)
	if statusFor(err) >= http.StatusInternalServerError {
		log.Printf("ws request failed: %v", err)
	}
	s.emit("error", wsError{Code: payload.Code, Message: payload.Message, Game: game})
}

func (s *wsSession) failBadPayload() {
	s.emit("error", wsError{Code: "bad_request", Message: "invalid payload"})
}

func (s *wsSession) resume(ctx context.Context) {
	view, err := s.service.Current(ctx, s.id)
	if err != nil {
		s.id = ""
		s.fail(err, nil)
		return
	}
	s.emitGame(view)
}

// emitGame sends the message matching the game's phase.
func (s *wsSession) emitGame(view domain.GameView) {
	switch {
	case view.Phase == domain.PhaseGameOver:
		s.emit("gameOver", view)
	case view.Question != nil:
		s.emit("question", view)
	default:
		s.emit("state", view)
	}
}

func (s *wsSession) handle(ctx context.Context, in inboundMessage) {
	switch in.Type {
	case "answer", "levelResult", "next", "timeUp":
		if s.id == "" {
			s.fail(domain.ErrSessionNotFound, nil)
			return
		}
	}
	switch in.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			s.failBadPayload()
			return
		}
		view, err := s.service.StartGame(ctx, payload.Name)
		if view.SessionID != "" {
			s.id = view.SessionID
		}
		if err != nil && !errors.Is(err, domain.ErrPoolExhausted) {
			s.fail(err, nil)
			return
		}
		s.emitGame(view)
	case "answer":
		var payload answerRequest
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			s.failBadPayload()
			return
		}
		result, err := s.service.SubmitAnswer(ctx, s.id, payload.Answer)
		if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
			s.fail(err, nil)
			return
		}
		s.emit("answerResult", result)
		if result.LevelResult != nil {
			s.emit("levelResult", result.LevelResult)
		}
		if err != nil {
			s.fail(err, result.Game)
			return
		}
		if result.Game.Question != nil {
			s.emit("question", result.Game)
		} else if result.Game.Terminal {
			s.emit("gameOver", result.Game)
		}
	case "levelResult":
		result, err := s.service.LevelResult(ctx, s.id)
		if err != nil {
			s.fail(err, nil)
			return
		}
		s.emit("levelResult", result)
	case "next":
		view, err := s.service.NextLevel(ctx, s.id)
		if err != nil && !errors.Is(err, domain.ErrPoolExhausted) {
			s.fail(err, nil)
			return
		}
		s.emitGame(view)
	case "timeUp":
		view, err := s.service.TimeUp(ctx, s.id)
		if err != nil {
			var game any
			if errors.Is(err, domain.ErrStoreUnavailable) {
				game = view
			}
			s.fail(err, game)
			return
		}
		s.emitGame(view)
	case "ranking":
		payload := rankingPayload{Page: 1}
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &payload); err != nil {
				s.failBadPayload()
				return
			}
		}
		page, err := s.service.Ranking(ctx, payload.Page)
		if err != nil {
			s.fail(err, nil)
			return
		}
		s.emit("ranking", page)
	default:
		s.emit("error", wsError{Code: "bad_request", Message: "unsupported message type"})
	}
}
