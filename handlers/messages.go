package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatty/models"
	"chatty/render"
)

// AddMessage stores a message. Clients relay it over the socket themselves
// once this succeeds.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req models.AddMessageRequest
	if !decode(w, r, &req) {
		return
	}

	_, err := h.messages.AddMessage(r.Context(), &req)
	render.JSON(w, http.StatusOK, models.NewAddMessageResponse(err))
}

// GetAllMessages returns the conversation between from and to
func (h *Handler) GetAllMessages(w http.ResponseWriter, r *http.Request) {
	var req models.GetAllMessagesRequest
	if !decode(w, r, &req) {
		return
	}

	render.JSON(w, http.StatusOK, models.NewGetAllMessageResponse(h.messages.GetAllMessages(r.Context(), &req)))
}

// GetQuoteMessage resolves one quote hop
func (h *Handler) GetQuoteMessage(w http.ResponseWriter, r *http.Request) {
	req := models.GetQuoteMessageRequest{ID: mux.Vars(r)["id"]}
	render.JSON(w, http.StatusOK, models.NewGetQuoteMessageResponse(h.messages.GetQuoteMessage(r.Context(), &req)))
}
