// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/storage/models"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.PingContext(r.Context()) == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	Entries          int `json:"entries"`
	Locks            int `json:"locks"`
	Unlocked         int `json:"unlocked"`
	Unavailable      int `json:"unavailable"`
	ConnectedClients int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(hub *websocket.Hub, br *bridge.Bridge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var response StatusResponse
		for _, runtime := range br.Runtimes() {
			response.Entries++
			for _, entity := range runtime.Platform.List() {
				response.Locks++
				switch entity.State() {
				case models.StateUnlocked:
					response.Unlocked++
				case models.StateUnavailable:
					response.Unavailable++
				}
			}
		}
		response.ConnectedClients = hub.ClientCount()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
