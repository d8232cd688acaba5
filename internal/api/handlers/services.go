package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ringo-bridge/backend/internal/api/middleware"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/storage"
)

// ServiceFieldResponse describes one declared service field.
type ServiceFieldResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// ServiceResponse describes one registered service and its schema.
type ServiceResponse struct {
	Name   string                 `json:"name"`
	Fields []ServiceFieldResponse `json:"fields"`
}

// ListServices returns all registered services with their field tables.
func ListServices(br *bridge.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dispatcher, err := br.Dispatcher()
		if err != nil {
			middleware.WriteAPIError(w, err)
			return
		}

		out := make([]ServiceResponse, 0)
		for _, name := range dispatcher.Services() {
			schema, ok := dispatcher.SchemaFor(name)
			if !ok {
				continue
			}
			resp := ServiceResponse{Name: name, Fields: []ServiceFieldResponse{}}
			for _, f := range schema.Fields() {
				resp.Fields = append(resp.Fields, ServiceFieldResponse{
					Name:     f.Name,
					Type:     string(f.Type),
					Required: f.Required,
				})
			}
			out = append(out, resp)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

// CallService invokes a service by name with a JSON object payload.
func CallService(br *bridge.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["service"]

		args := map[string]any{}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Failed to read request body")
			return
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &args); err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
				return
			}
		}

		result, err := br.Dispatch(r.Context(), name, args)
		if err != nil {
			middleware.WriteAPIError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service": name,
			"result":  result,
		})
	}
}

// ServiceLog returns the most recent service call audit records.
func ServiceLog(audit *storage.ServiceLogRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "limit must be a non-negative integer")
				return
			}
			limit = parsed
		}

		calls, err := audit.Recent(r.Context(), limit)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query service log")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(calls)
	}
}
