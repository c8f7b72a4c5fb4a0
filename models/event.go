package models

import "encoding/json"

// Socket event types
const (
	EventAddUser    = "add-user"
	EventSendMsg    = "send-msg"
	EventMsgReceive = "msg-receive"
)

// SocketEvent is the frame format on the live channel
type SocketEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SendMsgPayload is what a client emits to relay a message it already saved
type SendMsgPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// ReceivedMessage is pushed to the recipient. From tags the push so the
// recipient can tell it apart from its own messages.
type ReceivedMessage struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// NewEvent marshals payload into a socket event
func NewEvent(eventType string, payload interface{}) (SocketEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SocketEvent{}, err
	}
	return SocketEvent{Type: eventType, Payload: data}, nil
}
