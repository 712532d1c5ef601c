package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/hub"
	"github.com/ludojam/ludo-backend/internal/registry"
	"github.com/ludojam/ludo-backend/internal/ws"
)

func SetupRoutes(reg *registry.Registry, h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(reg, h, log))
	r.Get("/rooms/{roomID}", GetRoom(reg, log))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
