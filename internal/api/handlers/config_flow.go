package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ringo-bridge/backend/internal/api/middleware"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/configflow"
)

// ConfigFlowResult mirrors the host framework's flow result shape: a
// created entry, a form with field errors, or an abort with a reason.
type ConfigFlowResult struct {
	Type    string            `json:"type"`
	EntryID string            `json:"entry_id,omitempty"`
	Title   string            `json:"title,omitempty"`
	Locks   int               `json:"locks,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

// ConfigFlowUser runs the "user" setup step: validate credentials, create
// the config entry and bring its runtime up.
func ConfigFlowUser(flow *configflow.Flow, br *bridge.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input configflow.UserInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		entry, err := flow.StepUser(r.Context(), input)
		if err != nil {
			var stepErr *configflow.StepError
			var abortErr *configflow.AbortError

			w.Header().Set("Content-Type", "application/json")
			switch {
			case errors.As(err, &stepErr):
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ConfigFlowResult{
					Type:   "form",
					Errors: map[string]string{"base": stepErr.Base},
				})
			case errors.As(err, &abortErr):
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(ConfigFlowResult{
					Type:   "abort",
					Reason: abortErr.Reason,
				})
			default:
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, err.Error())
			}
			return
		}

		// The entry is persisted even when the first setup attempt fails;
		// it is retried on the next boot.
		locks := 0
		if runtime, err := br.StartEntry(r.Context(), entry); err != nil {
			log.Warn().Err(err).Str("entry_id", entry.ID).Msg("entry created but not ready")
		} else {
			locks = len(runtime.Platform.List())
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ConfigFlowResult{
			Type:    "create_entry",
			EntryID: entry.ID,
			Title:   entry.Title,
			Locks:   locks,
		})
	}
}
