// Package handlers serves the REST API and the live WebSocket channel.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"chatty/render"
	"chatty/service"
)

// Handler serves the REST endpoints. They return the same envelopes as the
// GraphQL gateway.
type Handler struct {
	users    *service.UserService
	messages *service.MessageService
	logger   *slog.Logger
}

func NewHandler(users *service.UserService, messages *service.MessageService, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		messages: messages,
		logger:   logger,
	}
}

// Routes mounts the REST API on r
func (h *Handler) Routes(r *mux.Router) {
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	auth.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	auth.HandleFunc("/allusers/{id}", h.GetAllUsers).Methods(http.MethodGet)
	auth.HandleFunc("/mention/{id}", h.GetMentionUsers).Methods(http.MethodGet)
	auth.HandleFunc("/setavatar/{id}", h.SetAvatar).Methods(http.MethodPost)
	auth.HandleFunc("/logout/{id}", h.Logout).Methods(http.MethodGet)

	message := r.PathPrefix("/api/message").Subrouter()
	message.HandleFunc("/addmsg", h.AddMessage).Methods(http.MethodPost)
	message.HandleFunc("/getmsg", h.GetAllMessages).Methods(http.MethodPost)
	message.HandleFunc("/quote/{id}", h.GetQuoteMessage).Methods(http.MethodGet)
}

// decode reads the request body into dst. On failure it writes the error
// response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := render.Decode(w, r, dst)
	if err == nil {
		return true
	}

	status := render.DecodeStatus(err)
	message := "Invalid request body"
	if status == http.StatusRequestEntityTooLarge {
		message = "Request body too large"
	}
	render.JSON(w, status, map[string]interface{}{
		"status":  false,
		"message": message,
	})
	return false
}
