// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/ringo-bridge/backend/internal/api/handlers"
	"github.com/ringo-bridge/backend/internal/api/middleware"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/configflow"
	"github.com/ringo-bridge/backend/internal/i18n"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	hub *websocket.Hub,
	br *bridge.Bridge,
	flow *configflow.Flow,
	catalog *i18n.Catalog,
	entities *storage.LockEntityRepository,
	audit *storage.ServiceLogRepository,
) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(hub, br)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Config flow endpoint
	api.HandleFunc("/config-flow/user", handlers.ConfigFlowUser(flow, br)).Methods("POST")

	// Lock entity endpoints
	api.HandleFunc("/entities", handlers.ListLockEntities(br, entities)).Methods("GET")
	api.HandleFunc("/entities/{entity_id}/unlock", handlers.UnlockEntity(br)).Methods("POST")
	api.HandleFunc("/entities/{entity_id}/lock", handlers.LockEntity(br)).Methods("POST")

	// Service endpoints
	api.HandleFunc("/services", handlers.ListServices(br)).Methods("GET")
	api.HandleFunc("/services/log", handlers.ServiceLog(audit)).Methods("GET")
	api.HandleFunc("/services/{service}", handlers.CallService(br)).Methods("POST")

	// Translation endpoints
	api.HandleFunc("/translations", handlers.ListLocales(catalog)).Methods("GET")
	api.HandleFunc("/translations/{locale}", handlers.Translations(catalog)).Methods("GET")

	return r
}
