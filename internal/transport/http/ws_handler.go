package http

import (
	"encoding/json"
	"log"
	"net/http"

	"lingo-lesson-service/internal/app"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
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

type selectPayload struct {
	Option int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type heartsPayload struct {
	Countdown   string `json:"countdown,omitempty"`
	Calculating bool   `json:"calculating"`
}

type answerResult struct {
	QuestionIndex int  `json:"questionIndex"`
	Correct       bool `json:"correct"`
	Score         int  `json:"score"`
}

type finishedPayload struct {
	LessonID      string `json:"lessonId"`
	Score         int    `json:"score"`
	QuestionCount int    `json:"questionCount"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one lesson session
// per connection. While the heart gate blocks entry, countdown ticks are
// streamed until hearts regenerate or the client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	lessonID := r.URL.Query().Get("lessonId")
	userID := r.URL.Query().Get("userId")
	if lessonID == "" || userID == "" {
		http.Error(w, "missing lessonId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if gate := h.service.GateFor(r.Context(), userID); !gate.Allowed {
		if !h.streamCountdown(r, conn, userID, gate) {
			return
		}
	}

	session, err := h.service.Start(r.Context(), userID, lessonID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Abandon(userID, lessonID)

	if err := conn.WriteJSON(outboundMessage[app.Snapshot]{Type: "question", Payload: session.Snapshot()}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			// Disconnect mid-question abandons the session; the last
			// checkpoint stays resumable.
			return
		}

		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "invalid select payload")
				continue
			}
			if err := session.Select(payload.Option); err != nil {
				h.writeError(conn, err.Error())
			}

		case "submit":
			result, err := session.Submit(r.Context())
			if err != nil {
				h.writeError(conn, err.Error())
				continue
			}
			snap := session.Snapshot()
			if err := conn.WriteJSON(outboundMessage[answerResult]{Type: "answerResult", Payload: answerResult{
				QuestionIndex: snap.QuestionIndex,
				Correct:       result.Correct,
				Score:         snap.Score,
			}}); err != nil {
				return
			}

		case "continue":
			snap, err := session.Continue(r.Context())
			if err != nil {
				h.writeError(conn, err.Error())
				continue
			}
			if snap.Finished {
				if err := conn.WriteJSON(outboundMessage[finishedPayload]{Type: "finished", Payload: finishedPayload{
					LessonID:      snap.LessonID,
					Score:         snap.Score,
					QuestionCount: snap.QuestionCount,
				}}); err != nil {
					return
				}
				return
			}
			if err := conn.WriteJSON(outboundMessage[app.Snapshot]{Type: "question", Payload: snap}); err != nil {
				return
			}

		default:
			h.writeError(conn, "unsupported message type")
		}
	}
}

// streamCountdown pushes one hearts message per second until the gate opens.
// Returns false when the client disconnects or the request context ends; the
// watcher is cancelled on every exit path.
func (h *WSHandler) streamCountdown(r *http.Request, conn *websocket.Conn, userID string, gate app.Gate) bool {
	updates, cancel := h.service.Watcher(userID).Watch(r.Context())
	defer cancel()

	if err := conn.WriteJSON(heartsMessage(gate)); err != nil {
		return false
	}
	for gate := range updates {
		if gate.Allowed {
			return true
		}
		if err := conn.WriteJSON(heartsMessage(gate)); err != nil {
			return false
		}
	}
	return false
}

func heartsMessage(gate app.Gate) outboundMessage[heartsPayload] {
	return outboundMessage[heartsPayload]{Type: "hearts", Payload: heartsPayload{
		Countdown:   gate.Countdown,
		Calculating: gate.Countdown == "" && !gate.Allowed,
	}}
}

func (h *WSHandler) writeError(conn *websocket.Conn, msg string) {
	if err := conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: msg}}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
