package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"veggie-trivia-service/internal/app"
	"veggie-trivia-service/internal/domain"
	"veggie-trivia-service/internal/infra/memory"
)

func newTestService(t *testing.T) *app.GameService {
	t.Helper()
	questions := make([]domain.Question, domain.MinPoolSize)
	for i := range questions {
		questions[i] = domain.Question{
			Text:          fmt.Sprintf("Which vegetable is number %d?", i),
			Choices:       []string{"Carrot", "Leek", "Kale"},
			CorrectAnswer: "Leek",
			Attribution:   "grower",
		}
	}
	pool, err := app.NewQuestionPool(questions, domain.MinPoolSize)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	return app.NewGameService(memory.NewSessionStore(time.Hour), memory.NewLeaderboardStore(), pool, app.WithSeed(7))
}

func TestWebSocketGameFlow(t *testing.T) {
	wsHandler := NewWSHandler(newTestService(t))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, "answer", map[string]any{"answer": "Leek"})
	typ, payload := readNext(conn, t)
	if typ != "error" || payload["code"] != "session_not_found" {
		t.Fatalf("expected session_not_found before start, got %s %v", typ, payload)
	}

	send(t, conn, "start", map[string]any{"name": "Ana"})
	typ, payload = readNext(conn, t)
	if typ != "question" {
		t.Fatalf("expected question, got %s %v", typ, payload)
	}
	if payload["level"] != float64(1) || payload["timeLimitSeconds"] != float64(40) {
		t.Fatalf("unexpected first question: %v", payload)
	}

	for i := 0; i < domain.QuestionsPerLevel; i++ {
		send(t, conn, "answer", map[string]any{"answer": "Leek"})
		typ, payload = readNext(conn, t)
		if typ != "answerResult" || payload["correct"] != true {
			t.Fatalf("expected correct answerResult, got %s %v", typ, payload)
		}
		want := "question"
		if i == domain.QuestionsPerLevel-1 {
			want = "levelResult"
		}
		if typ, payload = readNext(conn, t); typ != want {
			t.Fatalf("expected %s, got %s %v", want, typ, payload)
		}
	}
	if payload["roundScore"] != float64(3) || payload["terminal"] != false {
		t.Fatalf("unexpected level result: %v", payload)
	}

	send(t, conn, "next", nil)
	typ, payload = readNext(conn, t)
	if typ != "question" || payload["level"] != float64(2) || payload["timeLimitSeconds"] != float64(38) {
		t.Fatalf("expected level 2 question, got %s %v", typ, payload)
	}

	send(t, conn, "timeUp", nil)
	typ, payload = readNext(conn, t)
	if typ != "gameOver" || payload["finalized"] != true || payload["score"] != float64(3) {
		t.Fatalf("expected finalized gameOver, got %s %v", typ, payload)
	}

	send(t, conn, "timeUp", nil)
	typ, payload = readNext(conn, t)
	if typ != "error" || payload["code"] != "session_already_finalized" {
		t.Fatalf("expected already finalized error, got %s %v", typ, payload)
	}

	send(t, conn, "ranking", map[string]any{"page": 1})
	typ, payload = readNext(conn, t)
	if typ != "ranking" || payload["total"] != float64(1) {
		t.Fatalf("expected ranking with one entry, got %s %v", typ, payload)
	}
	entries := payload["entries"].([]any)
	top := entries[0].(map[string]any)
	if top["name"] != "Ana" || top["level"] != float64(2) || top["rank"] != float64(1) {
		t.Fatalf("unexpected ranking row: %v", top)
	}
}

func TestWebSocketRejectsInvalidName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(newTestService(t)).ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):]+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, "start", map[string]any{"name": "a b"})
	typ, payload := readNext(conn, t)
	if typ != "error" || payload["code"] != "invalid_name" {
		t.Fatalf("expected invalid_name, got %s %v", typ, payload)
	}

	send(t, conn, "dance", nil)
	typ, payload = readNext(conn, t)
	if typ != "error" || payload["code"] != "bad_request" {
		t.Fatalf("expected bad_request, got %s %v", typ, payload)
	}
}

func send(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	msg := map[string]any{"type": kind}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", kind, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg.Type, msg.Payload
}

func TestEmitDropsMessagesOnceWriterStops(t *testing.T) {
	send := make(chan outboundMessage[any])
	done := make(chan struct{})
	close(done)
	sess := &wsSession{send: send, done: done}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 32; i++ {
			sess.emit("question", i)
		}
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatalf("emit blocked after the writer stopped")
	}
}
