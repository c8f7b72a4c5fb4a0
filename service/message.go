package service

import (
	"context"
	"errors"
	"log/slog"

	"chatty/apperror"
	"chatty/database"
	"chatty/models"
)

const msgNoSuchMessage = "Message does not exist."

// MessageService persists messages and reads conversations and quotes
type MessageService struct {
	messages database.MessageStore
	opts     Options
	logger   *slog.Logger
}

func NewMessageService(messages database.MessageStore, opts Options, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages: messages,
		opts:     opts,
		logger:   logger,
	}
}

// AddMessage stores a message from req.From to req.To. Participants are not
// checked against the accounts collection.
func (s *MessageService) AddMessage(ctx context.Context, req *models.AddMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	msg := models.NewMessage(req.From, req.To, req.Message, req.Quote)
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		s.logger.Error("failed to store message",
			slog.String("from", req.From),
			slog.String("to", req.To),
			slog.String("error", err.Error()),
		)
		return nil, storeFailure(err)
	}
	return msg, nil
}

// GetAllMessages returns the conversation between req.From and req.To,
// oldest first, projected from req.From's point of view
func (s *MessageService) GetAllMessages(ctx context.Context, req *models.GetAllMessagesRequest) ([]models.DisplayMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	messages, err := s.messages.GetConversation(ctx, req.From, req.To)
	if err != nil {
		return nil, storeFailure(err)
	}

	out := make([]models.DisplayMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ToDisplay(req.From))
	}
	return out, nil
}

// GetQuoteMessage resolves one quote hop. Nested quotes are left as ids so
// the caller decides how many levels to fetch.
func (s *MessageService) GetQuoteMessage(ctx context.Context, req *models.GetQuoteMessageRequest) (*models.QuoteMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	msg, err := s.messages.GetMessageByID(ctx, req.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.NotFound(msgNoSuchMessage)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return msg.ToQuote(), nil
}
