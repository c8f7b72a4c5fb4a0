package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"chatty/middleware"
	"chatty/render"
)

// NewRouter mounts the GraphQL gateway, the REST API and the live channel.
// CORS wraps the router so preflight requests never reach route matching.
func NewRouter(api *Handler, socket *SocketHandler, graphql http.Handler, origin string, logger *slog.Logger) http.Handler {
	r := mux.NewRouter()

	r.Handle("/graphql", graphql).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/ws", socket).Methods(http.MethodGet)
	api.Routes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, map[string]interface{}{"status": true, "message": "ok"})
	}).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.CORS(origin)(h)
	h = middleware.Recover(logger)(h)
	h = middleware.Logger(logger)(h)
	return h
}
