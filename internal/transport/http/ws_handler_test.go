package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingo-lesson-service/internal/app"
	"lingo-lesson-service/internal/domain"
	"lingo-lesson-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketLessonFlow(t *testing.T) {
	lessons := memory.NewLessonRepository(memory.NewStaticLessonLoader(sampleLessons()), time.Minute)
	service := app.NewSessionService(
		memory.NewSessionRepository(),
		lessons,
		memory.NewProgressStores(),
		memory.NewStaticHeartSource(domain.HeartState{Hearts: 5}),
		memory.NewGrader(lessons),
		memory.NoopCompleter{},
	)
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "lesson-1", "u1")
	defer conn.Close()

	// First question arrives on connect.
	_, payload := readNext(conn, t, "question")
	if payload["questionIndex"] != float64(0) {
		t.Fatalf("expected question 0, got %+v", payload)
	}

	writeMsg(t, conn, map[string]any{"type": "select", "payload": map[string]any{"option": 1}})
	writeMsg(t, conn, map[string]any{"type": "submit"})
	_, payload = readNext(conn, t, "answerResult")
	if payload["correct"] != true || payload["score"] != float64(1) {
		t.Fatalf("expected correct answer with score 1, got %+v", payload)
	}

	writeMsg(t, conn, map[string]any{"type": "continue"})
	_, payload = readNext(conn, t, "question")
	if payload["questionIndex"] != float64(1) {
		t.Fatalf("expected question 1, got %+v", payload)
	}

	writeMsg(t, conn, map[string]any{"type": "select", "payload": map[string]any{"option": 0}})
	writeMsg(t, conn, map[string]any{"type": "submit"})
	readNext(conn, t, "answerResult")

	writeMsg(t, conn, map[string]any{"type": "continue"})
	_, payload = readNext(conn, t, "finished")
	if payload["score"] != float64(1) || payload["questionCount"] != float64(2) {
		t.Fatalf("expected finished with score 1 of 2, got %+v", payload)
	}
}

func TestWebSocketGuardedSubmit(t *testing.T) {
	lessons := memory.NewLessonRepository(memory.NewStaticLessonLoader(sampleLessons()), time.Minute)
	service := app.NewSessionService(
		memory.NewSessionRepository(),
		lessons,
		memory.NewProgressStores(),
		memory.NewStaticHeartSource(domain.HeartState{Hearts: 5}),
		memory.NewGrader(lessons),
		memory.NoopCompleter{},
	)
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "lesson-1", "u1")
	defer conn.Close()

	readNext(conn, t, "question")
	writeMsg(t, conn, map[string]any{"type": "submit"})
	msgType, _ := readNext(conn, t, "")
	if msgType != "error" {
		t.Fatalf("expected error for submit without selection, got %s", msgType)
	}
}

func TestWebSocketBlockedStreamsCountdown(t *testing.T) {
	lessons := memory.NewLessonRepository(memory.NewStaticLessonLoader(sampleLessons()), time.Minute)
	regen := time.Now().Add(time.Hour)
	service := app.NewSessionService(
		memory.NewSessionRepository(),
		lessons,
		memory.NewProgressStores(),
		memory.NewStaticHeartSource(domain.HeartState{Hearts: 0, NextRegenAt: &regen}),
		memory.NewGrader(lessons),
		memory.NoopCompleter{},
	)
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "lesson-1", "u1")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "hearts")
	if msgType != "hearts" {
		t.Fatalf("expected hearts message, got %s", msgType)
	}
	countdown, _ := payload["countdown"].(string)
	if countdown == "" {
		t.Fatalf("expected a countdown, got %+v", payload)
	}
}

func newTestServer(service *app.SessionService) *httptest.Server {
	wsHandler := NewWSHandler(service)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dial(t *testing.T, server *httptest.Server, lessonID, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?lessonId=" + lessonID + "&userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleLessons() map[string]domain.Lesson {
	return map[string]domain.Lesson{
		"lesson-1": {
			ID:    "lesson-1",
			Title: "Basics 1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: `Which one means "the man"?`,
					Options: []domain.Option{
						{Text: "la femme", Correct: false},
						{Text: "l'homme", Correct: true},
					},
				},
				{
					ID:     "q2",
					Prompt: `Which one means "the woman"?`,
					Options: []domain.Option{
						{Text: "l'homme", Correct: false},
						{Text: "la femme", Correct: true},
					},
				},
			},
		},
	}
}
