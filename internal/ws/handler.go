package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gateway-service/internal/auth"
	"gateway-service/internal/gateway"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// Handler upgrades websocket connections and dispatches client operations to
// the gateway facade.
type Handler struct {
	hub      *Hub
	gw       *gateway.Gateway
	verifier *auth.Verifier
	logger   *slog.Logger
}

func NewHandler(hub *Hub, gw *gateway.Gateway, verifier *auth.Verifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, gw: gw, verifier: verifier, logger: logger}
}

// Serve handles GET /ws. The bearer credential rides in the token query
// parameter (or Authorization header); a missing or invalid credential
// terminates the connection before the upgrade.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "userID", identity.UserID, "error", err)
		return
	}

	client := newClient(h.hub, conn, identity)
	h.hub.register <- client
	if err := h.gw.Connect(identity, client.id); err != nil {
		h.hub.unregister <- client
		conn.Close()
		return
	}

	go client.writePump()
	client.enqueueJSON(PushFrame{Event: "connected", Payload: map[string]interface{}{
		"connectionId": client.id,
		"userId":       identity.UserID,
	}, Timestamp: time.Now().Unix()})

	client.readPump(h.handleFrame)

	h.gw.Disconnect(client.id)
	h.hub.unregister <- client
}

// handleFrame dispatches one inbound operation. Every operation answers with
// an ack; malformed identifiers are rejected without mutating state.
func (h *Handler) handleFrame(c *Client, frame Frame) {
	var err error
	switch frame.Action {
	case ActionPing:
		h.hub.EmitToConnection(c.id, gateway.EventPong, nil)
		return

	case ActionEcho:
		var payload map[string]interface{}
		if len(frame.Payload) > 0 {
			if jsonErr := json.Unmarshal(frame.Payload, &payload); jsonErr != nil {
				h.ack(c, frame.Action, gateway.ErrBadRequest)
				return
			}
		}
		h.hub.EmitToConnection(c.id, gateway.EventEchoResponse, payload)
		return

	case ActionRegisterUser:
		var p registerPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.UserID == 0 || p.UserID != c.identity.UserID {
			err = gateway.ErrBadRequest
		}
		// Registration itself happened at connect; legacy clients still
		// send registerUser and expect an ack.

	case ActionJoin:
		var p roomPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.Room == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.JoinRoom(c.id, gateway.LegacyRoom(p.Room))
		}

	case ActionLeave:
		var p roomPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.Room == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.LeaveRoom(c.id, gateway.LegacyRoom(p.Room))
		}

	case ActionJoinChat:
		var p chatPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.ChatID == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.JoinRoom(c.id, gateway.ChatRoom(p.ChatID))
		}

	case ActionLeaveChat:
		var p chatPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.ChatID == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.LeaveRoom(c.id, gateway.ChatRoom(p.ChatID))
		}

	case ActionTyping:
		var p roomPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.Room == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.Typing(c.id, gateway.LegacyRoom(p.Room), gateway.EventTyping)
		}

	case ActionChatTyping:
		var p chatPayload
		if jsonErr := json.Unmarshal(frame.Payload, &p); jsonErr != nil || p.ChatID == 0 {
			err = gateway.ErrBadRequest
		} else {
			err = h.gw.Typing(c.id, gateway.ChatRoom(p.ChatID), gateway.EventChatTyping)
		}

	case ActionJoinAdminRoom:
		err = h.gw.JoinAdminRoom(c.id)

	default:
		c.enqueueJSON(Ack{Event: "ack", Action: frame.Action, OK: false, Code: CodeUnknownAction, Message: "unknown action"})
		return
	}

	h.ack(c, frame.Action, err)
}

func (h *Handler) ack(c *Client, action string, err error) {
	ack := Ack{Event: "ack", Action: action, OK: err == nil}
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrForbidden):
		ack.Code = CodeForbidden
		ack.Message = "admin role required"
	case errors.Is(err, gateway.ErrBadRequest):
		ack.Code = CodeBadRequest
		ack.Message = "invalid identifier"
	default:
		ack.Code = CodeBadRequest
		ack.Message = err.Error()
	}
	if qErr := c.enqueueJSON(ack); qErr != nil {
		h.logger.Debug("ack dropped", "connID", c.id, "action", action, "error", qErr)
	}
}
