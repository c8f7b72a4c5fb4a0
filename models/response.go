package models

import "chatty/apperror"

// MessageSuccess is the envelope message for successful operations
const MessageSuccess = "SUCCESS"

// MessageAdded is kept byte-for-byte compatible with existing clients
const MessageAdded = "Message added succesfully."

// UserResponse wraps login, register and setAvatar results
type UserResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// GetUsersResponse wraps getAllUsers and getMentionUsers results
type GetUsersResponse struct {
	Status  bool    `json:"status"`
	Message string  `json:"message"`
	Users   []*User `json:"users"`
}

// AddMessageResponse carries no payload beyond the status
type AddMessageResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// GetAllMessageResponse wraps a conversation
type GetAllMessageResponse struct {
	Status   bool             `json:"status"`
	Message  string           `json:"message"`
	Messages []DisplayMessage `json:"messages"`
}

// GetQuoteMessageResponse wraps a resolved quote
type GetQuoteMessageResponse struct {
	Status  bool          `json:"status"`
	Message string        `json:"message"`
	Quote   *QuoteMessage `json:"quote"`
}

func NewUserResponse(user *User, err error) *UserResponse {
	if err != nil {
		return &UserResponse{Message: apperror.Message(err)}
	}
	return &UserResponse{Status: true, Message: MessageSuccess, User: user.Public()}
}

func NewGetUsersResponse(users []*User, err error) *GetUsersResponse {
	if err != nil {
		return &GetUsersResponse{Message: apperror.Message(err)}
	}
	if users == nil {
		users = []*User{}
	}
	return &GetUsersResponse{Status: true, Message: MessageSuccess, Users: users}
}

func NewAddMessageResponse(err error) *AddMessageResponse {
	if err != nil {
		return &AddMessageResponse{Message: apperror.Message(err)}
	}
	return &AddMessageResponse{Status: true, Message: MessageAdded}
}

func NewGetAllMessageResponse(messages []DisplayMessage, err error) *GetAllMessageResponse {
	if err != nil {
		return &GetAllMessageResponse{Message: apperror.Message(err)}
	}
	if messages == nil {
		messages = []DisplayMessage{}
	}
	return &GetAllMessageResponse{Status: true, Message: MessageSuccess, Messages: messages}
}

func NewGetQuoteMessageResponse(quote *QuoteMessage, err error) *GetQuoteMessageResponse {
	if err != nil {
		return &GetQuoteMessageResponse{Message: apperror.Message(err)}
	}
	return &GetQuoteMessageResponse{Status: true, Message: MessageSuccess, Quote: quote}
}
