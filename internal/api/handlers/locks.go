package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ringo-bridge/backend/internal/api/middleware"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/storage"
)

// LockEntityResponse represents a lock entity in API responses.
type LockEntityResponse struct {
	EntityID    string  `json:"entity_id"`
	EntryID     string  `json:"entry_id"`
	LockID      int     `json:"lock_id"`
	RelayID     int     `json:"relay_id"`
	Name        string  `json:"name"`
	State       string  `json:"state"`
	AssignedKey *string `json:"assigned_key,omitempty"`
}

// ListLockEntities returns all registered lock entities with their live state.
func ListLockEntities(br *bridge.Bridge, entities *storage.LockEntityRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stored, err := entities.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query lock entities")
			return
		}

		// Runtime entities carry fresher names and state than the rows.
		live := make(map[string]*LockEntityResponse, len(stored))
		out := make([]LockEntityResponse, 0, len(stored))
		for _, record := range stored {
			out = append(out, LockEntityResponse{
				EntityID:    record.EntityID,
				EntryID:     record.EntryID,
				LockID:      record.LockID,
				RelayID:     record.RelayID,
				Name:        record.Name,
				State:       record.State,
				AssignedKey: record.AssignedKey,
			})
			live[record.EntityID] = &out[len(out)-1]
		}

		for _, runtime := range br.Runtimes() {
			for _, entity := range runtime.Platform.List() {
				if resp, ok := live[entity.EntityID]; ok {
					resp.Name = entity.Name()
					resp.State = entity.State()
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

// UnlockEntity opens a lock entity through its owning platform.
func UnlockEntity(br *bridge.Bridge) http.HandlerFunc {
	return entityAction(br, br.Unlock)
}

// LockEntity relocks a lock entity and cancels any pending auto-relock.
func LockEntity(br *bridge.Bridge) http.HandlerFunc {
	return entityAction(br, br.Lock)
}

func entityAction(br *bridge.Bridge, action func(ctx context.Context, entityID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityID := mux.Vars(r)["entity_id"]

		if err := action(r.Context(), entityID); err != nil {
			middleware.WriteAPIError(w, err)
			return
		}

		state := ""
		for _, runtime := range br.Runtimes() {
			if entity, ok := runtime.Platform.Get(entityID); ok {
				state = entity.State()
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"entity_id": entityID,
			"state":     state,
		})
	}
}
