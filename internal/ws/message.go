package ws

import "encoding/json"

// Client-to-server actions. The join/leave/typing pair exists twice: the
// chat-suffixed forms address chat rooms, the bare forms address legacy
// numeric rooms kept for older clients.
const (
	ActionRegisterUser  = "registerUser"
	ActionJoin          = "join"
	ActionLeave         = "leave"
	ActionJoinChat      = "joinChat"
	ActionLeaveChat     = "leaveChat"
	ActionTyping        = "typing"
	ActionChatTyping    = "chatTyping"
	ActionJoinAdminRoom = "joinAdminRoom"
	ActionEcho          = "echo"
	ActionPing          = "ping"
)

// Ack rejection codes.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeForbidden     = "FORBIDDEN"
	CodeUnknownAction = "UNKNOWN_ACTION"
)

// Frame is one inbound client operation. Payload stays raw until the action
// is known.
type Frame struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PushFrame is one server-to-client event.
type PushFrame struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Ack answers an inbound operation. Code and Message are set only on
// rejection.
type Ack struct {
	Event   string `json:"event"`
	Action  string `json:"action,omitempty"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type registerPayload struct {
	UserID uint `json:"userId"`
}

type roomPayload struct {
	Room uint `json:"room"`
}

type chatPayload struct {
	ChatID uint `json:"chatId"`
}
