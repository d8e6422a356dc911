package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/imposter-backend/internal/ws"
)

func SetupRoutes(deps ws.Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/ws", ws.Handler(deps))
	r.Get("/healthz", Healthz)
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
