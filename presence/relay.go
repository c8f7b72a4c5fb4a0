package presence

import (
	"log/slog"

	"chatty/models"
)

// Relay forwards live messages to recipients found in a Directory
type Relay struct {
	directory *Directory
	logger    *slog.Logger
}

func NewRelay(directory *Directory, logger *slog.Logger) *Relay {
	return &Relay{directory: directory, logger: logger}
}

// Relay pushes text from senderID to recipientID's live connection. It
// returns false when the recipient is offline or its buffer is full; neither
// case is an error for the sender.
func (r *Relay) Relay(senderID, recipientID, text string) bool {
	conn, ok := r.directory.Lookup(recipientID)
	if !ok {
		r.logger.Debug("relay dropped, recipient offline",
			slog.String("from", senderID),
			slog.String("to", recipientID),
		)
		return false
	}

	event, err := models.NewEvent(models.EventMsgReceive, models.ReceivedMessage{
		From:    senderID,
		Message: text,
	})
	if err != nil {
		r.logger.Error("relay encode failed", slog.String("error", err.Error()))
		return false
	}

	if !conn.Push(event) {
		r.logger.Warn("relay dropped, recipient buffer full",
			slog.String("to", recipientID),
			slog.String("conn", conn.ID()),
		)
		return false
	}
	return true
}
