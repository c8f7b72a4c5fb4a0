package models

import "time"

// Message is a persisted direct message. Users holds the participant pair
// in the order it was sent (sender first); lookups treat it as unordered.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Users     [2]string `json:"users"`
	Text      string    `json:"text"`
	Quote     string    `json:"quote,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewMessage builds an unsaved message from sender to recipient
func NewMessage(from, to, text, quote string) *Message {
	return &Message{
		Sender: from,
		Users:  [2]string{from, to},
		Text:   text,
		Quote:  quote,
	}
}

// DisplayMessage is a message projected for one side of a conversation
type DisplayMessage struct {
	ID       string `json:"id"`
	FromSelf bool   `json:"fromSelf"`
	Message  string `json:"message"`
	Quote    string `json:"quote"`
}

// QuoteMessage is the single-hop view returned by the quote resolver
type QuoteMessage struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Message string `json:"message"`
	Quote   string `json:"quote"`
}

// ToDisplay projects the message relative to viewer
func (m *Message) ToDisplay(viewer string) DisplayMessage {
	return DisplayMessage{
		ID:       m.ID,
		FromSelf: m.Sender == viewer,
		Message:  m.Text,
		Quote:    m.Quote,
	}
}

// ToQuote projects the message for the quote resolver
func (m *Message) ToQuote() *QuoteMessage {
	return &QuoteMessage{
		ID:      m.ID,
		From:    m.Sender,
		Message: m.Text,
		Quote:   m.Quote,
	}
}
