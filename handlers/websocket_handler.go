package handlers

import (
	"log/slog"
	"net/http"

	"github.com/contesthub/server/live"
	"github.com/contesthub/server/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering happens at the CORS layer for the REST
		// surface; websocket clients are accepted from anywhere.
		return true
	},
}

type WebSocketHandler struct {
	hub            *live.Hub
	contestService services.ContestService
}

func NewWebSocketHandler(hub *live.Hub, contestService services.ContestService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, contestService: contestService}
}

// ServeWs handles GET /ws/contests/{contestID}: it upgrades the
// connection and joins the contest's event room.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "contestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.contestService.GetByID(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		slog.Warn("websocket upgrade failed", slog.Int("contest_id", id), slog.Any("error", err))
		return
	}

	h.hub.Join(id, conn)
}
