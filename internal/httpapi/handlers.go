package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ludojam/ludo-backend/internal/engine"
	"github.com/ludojam/ludo-backend/internal/gameroom"
	"github.com/ludojam/ludo-backend/internal/hub"
	"github.com/ludojam/ludo-backend/internal/registry"
	"github.com/ludojam/ludo-backend/internal/store"
	"github.com/ludojam/ludo-backend/internal/types"
)

type createRequest struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type roomResponse struct {
	RoomID  string       `json:"room_id"`
	UID     string       `json:"uid,omitempty"`
	Version int64        `json:"version"`
	State   engine.State `json:"state"`
}

// CreateRoom seats the caller as the host of a freshly allocated room.
// Callers without an identity get a uid minted for them, mirroring the
// anonymous sign-in of the original client.
func CreateRoom(reg *registry.Registry, h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, types.CodeBadRequest, "bad json")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, types.CodeBadRequest, "name required")
			return
		}
		if req.UID == "" {
			req.UID = uuid.NewString()
		}

		snap, err := reg.Create(r.Context(), req.UID, req.Name)
		if err != nil {
			log.Error("create room", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, types.CodeStoreUnavailable, "could not create room")
			return
		}

		// Spin the actor up right away so the first websocket attach
		// does not race room creation.
		reply := make(chan *gameroom.Room, 1)
		h.Inbox() <- hub.Adopt{ID: snap.Doc.RoomID, Snap: snap, Reply: reply}
		<-reply

		writeJSON(w, http.StatusCreated, roomResponse{
			RoomID:  snap.Doc.RoomID,
			UID:     req.UID,
			Version: snap.Revision,
			State:   snap.Doc,
		})
	}
}

// GetRoom returns the current snapshot of a room document.
func GetRoom(reg *registry.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		snap, err := reg.Snapshot(r.Context(), roomID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, types.CodeRoomNotFound, "room not found")
			return
		}
		if err != nil {
			log.Error("get room", zap.String("room", roomID), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, types.CodeStoreUnavailable, "store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, roomResponse{
			RoomID:  snap.Doc.RoomID,
			Version: snap.Revision,
			State:   snap.Doc,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, types.ServerMessage{Type: "error", Code: code, Error: msg})
}
