package models

import (
	"strings"
	"unicode/utf8"

	"chatty/apperror"
)

const maxPasswordBytes = 72

// Request types for every gateway operation. Each one is validated before
// anything reaches the store.

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" || r.Password == "" {
		return apperror.ValidationFailed("username", "Username and password are required")
	}
	return nil
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))

	if n := utf8.RuneCountInString(r.Username); n < 3 || n > 20 {
		return apperror.ValidationFailed("username", "Username must be 3-20 characters")
	}
	if !strings.Contains(r.Email, "@") {
		return apperror.ValidationFailed("email", "Invalid email address")
	}
	if len(r.Password) < 6 {
		return apperror.ValidationFailed("password", "Password must be at least 6 characters")
	}
	// bcrypt rejects anything longer
	if len(r.Password) > maxPasswordBytes {
		return apperror.ValidationFailed("password", "Password must be at most 72 bytes")
	}
	return nil
}

type GetAllUsersRequest struct {
	ID string `json:"id"`
}

func (r *GetAllUsersRequest) Validate() error {
	return requireID("id", r.ID)
}

type GetMentionUsersRequest struct {
	ID     string `json:"id"`
	Starts string `json:"starts"`
}

func (r *GetMentionUsersRequest) Validate() error {
	return requireID("id", r.ID)
}

type SetAvatarRequest struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

func (r *SetAvatarRequest) Validate() error {
	if err := requireID("id", r.ID); err != nil {
		return err
	}
	if r.Image == "" {
		return apperror.ValidationFailed("image", "Avatar image is required")
	}
	return nil
}

type AddMessageRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
	Quote   string `json:"quote,omitempty"`
}

func (r *AddMessageRequest) Validate() error {
	if err := requireID("from", r.From); err != nil {
		return err
	}
	if err := requireID("to", r.To); err != nil {
		return err
	}
	if r.Message == "" {
		return apperror.ValidationFailed("message", "Message text is required")
	}
	return nil
}

type GetAllMessagesRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r *GetAllMessagesRequest) Validate() error {
	if err := requireID("from", r.From); err != nil {
		return err
	}
	return requireID("to", r.To)
}

type GetQuoteMessageRequest struct {
	ID string `json:"id"`
}

func (r *GetQuoteMessageRequest) Validate() error {
	return requireID("id", r.ID)
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	return nil
}
