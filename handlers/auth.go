package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatty/models"
	"chatty/render"
)

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	render.JSON(w, http.StatusOK, models.NewUserResponse(h.users.Login(r.Context(), &req)))
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	render.JSON(w, http.StatusOK, models.NewUserResponse(h.users.Register(r.Context(), &req)))
}

type setAvatarBody struct {
	Image string `json:"image"`
}

// SetAvatar stores the avatar for the user in the path
func (h *Handler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var body setAvatarBody
	if !decode(w, r, &body) {
		return
	}

	req := models.SetAvatarRequest{ID: mux.Vars(r)["id"], Image: body.Image}
	render.JSON(w, http.StatusOK, models.NewUserResponse(h.users.SetAvatar(r.Context(), &req)))
}

// Logout forgets the user's live connection
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.users.Logout(r.Context(), mux.Vars(r)["id"])
	render.JSON(w, http.StatusOK, models.NewUserResponse(nil, err))
}
