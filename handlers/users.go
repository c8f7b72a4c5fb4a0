package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatty/models"
	"chatty/render"
)

// GetAllUsers returns every user except the one in the path
func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	req := models.GetAllUsersRequest{ID: mux.Vars(r)["id"]}
	render.JSON(w, http.StatusOK, models.NewGetUsersResponse(h.users.GetAllUsers(r.Context(), &req)))
}

// GetMentionUsers returns users whose username starts with ?starts=
func (h *Handler) GetMentionUsers(w http.ResponseWriter, r *http.Request) {
	req := models.GetMentionUsersRequest{
		ID:     mux.Vars(r)["id"],
		Starts: r.URL.Query().Get("starts"),
	}
	render.JSON(w, http.StatusOK, models.NewGetUsersResponse(h.users.GetMentionUsers(r.Context(), &req)))
}
