// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/danielhkuo/live-poll/auth"
	"github.com/danielhkuo/live-poll/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	requestTimeout = 10 * time.Second
)

// Engine is the part of the poll service reachable from the realtime
// channel.
type Engine interface {
	Join(ctx context.Context, observerID string) error
	StartPoll(ctx context.Context, pollID string) (*models.Poll, error)
	StopPoll(ctx context.Context, pollID string) (*models.Poll, error)
	Vote(ctx context.Context, req models.SubmitVoteRequest) (*models.Poll, error)
}

// Handler upgrades requests to WebSocket connections, registers them with
// the hub and dispatches inbound frames to the engine.
type Handler struct {
	hub       *Hub
	engine    Engine
	adminSalt string
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, engine Engine, adminSalt string) *Handler {
	return &Handler{
		hub:       hub,
		engine:    engine,
		adminSalt: adminSalt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same policy as the CORS middleware: any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	o := h.hub.register(id)
	slog.Info("observer connected", "observer", id, "observers", h.hub.Count())

	go h.writeLoop(conn, o)
	h.readLoop(conn, id)

	h.hub.unregister(id)
	slog.Info("observer disconnected", "observer", id, "observers", h.hub.Count())
}

func (h *Handler) readLoop(conn *websocket.Conn, id string) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("observer read failed", "observer", id, "error", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			h.reply(id, models.EventError, "invalid frame")
			continue
		}
		h.dispatch(id, in)
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, o *observer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-o.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Warn("observer write failed", "observer", o.id, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) dispatch(id string, in inbound) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch in.Event {
	case models.EventJoin:
		if err := h.engine.Join(ctx, id); err != nil {
			slog.Error("join failed", "observer", id, "error", err)
			h.reply(id, models.EventError, "Failed to fetch poll state")
		}

	case models.EventStartPoll, models.EventStopPoll:
		var cmd models.PollCommand
		if err := json.Unmarshal(in.Data, &cmd); err != nil || cmd.PollID == "" {
			h.reply(id, models.EventError, "pollId is required")
			return
		}
		if err := auth.ValidateAdminKey(cmd.PollID, cmd.AdminKey, h.adminSalt); err != nil {
			h.reply(id, models.EventError, "Invalid admin key")
			return
		}

		var err error
		if in.Event == models.EventStartPoll {
			_, err = h.engine.StartPoll(ctx, cmd.PollID)
		} else {
			_, err = h.engine.StopPoll(ctx, cmd.PollID)
		}
		if err != nil {
			h.reply(id, models.EventError, err.Error())
		}

	case models.EventVote:
		var req models.SubmitVoteRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			h.reply(id, models.EventVoteError, "invalid vote")
			return
		}
		p, err := h.engine.Vote(ctx, req)
		if err != nil {
			h.reply(id, models.EventVoteError, err.Error())
			return
		}
		h.send(id, models.EventVoteSuccess, models.VoteResult{Success: true, Poll: p})

	default:
		h.reply(id, models.EventError, "unknown event "+in.Event)
	}
}

func (h *Handler) reply(id, event, message string) {
	h.send(id, event, models.MessagePayload{Message: message})
}

func (h *Handler) send(id, event string, payload any) {
	if err := h.hub.SendTo(id, event, payload); err != nil {
		slog.Warn("reply dropped", "observer", id, "event", event, "error", err)
	}
}
