package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringo-bridge/backend/internal/api"
	"github.com/ringo-bridge/backend/internal/bridge"
	"github.com/ringo-bridge/backend/internal/configflow"
	"github.com/ringo-bridge/backend/internal/i18n"
	"github.com/ringo-bridge/backend/internal/storage"
	"github.com/ringo-bridge/backend/internal/websocket"
)

// newVendorServer fakes the Ringo cloud: token issuance plus one lock with
// one valid key.
func newVendorServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Ringo-Api-Client") != "client-id" || r.Header.Get("Ringo-Api-Secret") != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status": 401, "message": "bad credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": "token-1"})
	})
	mux.HandleFunc("/locks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": []map[string]any{
			{"lock_id": 1, "relay_id": 1, "name": "Front door"},
		}})
	})
	mux.HandleFunc("/key-list", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": []map[string]any{
			{"digital_key": "dk-1", "name": "Owner", "locks": []map[string]any{{"lock_id": 1, "relay_id": 1}}, "is_valid": 1, "is_ended": 0},
		}})
	})
	mux.HandleFunc("/open-door", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": true})
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": 200, "data": []map[string]any{
			{"id": 1, "email": "owner@example.com"},
		}})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

type harness struct {
	api    *httptest.Server
	vendor *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	vendor := newVendorServer(t)

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	hub := websocket.NewHub()
	go hub.Run()
	events := websocket.NewEventBroadcaster(hub)

	entries := storage.NewEntryRepository(db)
	entities := storage.NewLockEntityRepository(db)
	audit := storage.NewServiceLogRepository(db)

	catalog, err := i18n.Load()
	require.NoError(t, err)

	log := zerolog.Nop()
	br := bridge.New(entries, entities, audit, events, nil, log)
	flow := configflow.NewFlow(entries, configflow.DefaultProbe(log), log)

	router := api.NewRouter(db, hub, br, flow, catalog, entities, audit)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &harness{api: server, vendor: vendor}
}

func (h *harness) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(h.api.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (h *harness) get(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(h.api.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil
	}
	return out
}

func (h *harness) setup(t *testing.T) {
	t.Helper()
	resp, body := h.post(t, "/api/config-flow/user", map[string]any{
		"host": h.vendor.URL, "client": "client-id", "secret": "client-secret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "setup flow: %v", body)
	require.Equal(t, "create_entry", body["type"])
}

func TestConfigFlow(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post(t, "/api/config-flow/user", map[string]any{
		"host": h.vendor.URL, "client": "client-id", "secret": "client-secret",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "create_entry", body["type"])
	assert.Equal(t, "Ringo", body["title"])
	assert.EqualValues(t, 1, body["locks"])

	// Same host again aborts.
	resp, body = h.post(t, "/api/config-flow/user", map[string]any{
		"host": h.vendor.URL, "client": "client-id", "secret": "client-secret",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "already_configured", body["reason"])
}

func TestConfigFlowInvalidAuth(t *testing.T) {
	h := newHarness(t)

	resp, body := h.post(t, "/api/config-flow/user", map[string]any{
		"host": h.vendor.URL, "client": "client-id", "secret": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "form", body["type"])
	errors, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "invalid_auth", errors["base"])
}

func TestLockActions(t *testing.T) {
	h := newHarness(t)
	h.setup(t)

	resp, body := h.post(t, "/api/entities/lock.ringo_1_1/unlock", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unlocked", body["state"])

	resp, body = h.post(t, "/api/entities/lock.ringo_1_1/lock", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "locked", body["state"])

	resp, _ = h.post(t, "/api/entities/lock.ringo_9_9/unlock", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServiceCalls(t *testing.T) {
	h := newHarness(t)
	h.setup(t)

	resp, body := h.post(t, "/api/services/get_locks", map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result, ok := body["result"].([]any)
	require.True(t, ok)
	assert.Len(t, result, 1)

	// Validation failures map to 400 before any vendor call.
	resp, body = h.post(t, "/api/services/create_key", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", body["error"])

	resp, body = h.post(t, "/api/services/reboot_lock", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["error"])
}

func TestServiceCallsWithoutEntry(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post(t, "/api/services/get_locks", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListServices(t *testing.T) {
	h := newHarness(t)
	h.setup(t)

	resp, err := http.Get(h.api.URL + "/api/services")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var services []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&services))

	names := make(map[string]bool)
	for _, svc := range services {
		names[fmt.Sprint(svc["name"])] = true
	}
	for _, want := range []string{
		"create_key", "update_key", "delete_key", "set_digital_key",
		"get_locks", "get_keys", "get_users", "get_key_status", "open_door_by_pin",
	} {
		assert.True(t, names[want], "service %s missing", want)
	}
}

func TestTranslationsEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/api/translations/sl")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	table, ok := body["translations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Povezava ni uspela", table["config.error.cannot_connect"])
}

func TestHealthEndpoint(t *testing.T) {
	h := newHarness(t)

	resp, body := h.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
