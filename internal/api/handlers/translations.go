package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ringo-bridge/backend/internal/api/middleware"
	"github.com/ringo-bridge/backend/internal/i18n"
)

// ListLocales returns the locales the catalog ships.
func ListLocales(catalog *i18n.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"default": i18n.DefaultLocale,
			"locales": catalog.Locales(),
		})
	}
}

// Translations returns the flattened translation table for a locale.
// Unknown locales fall back to the default rather than erroring, the way
// the host frontend expects.
func Translations(catalog *i18n.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locale := mux.Vars(r)["locale"]
		if locale == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Locale is required")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"locale":       locale,
			"translations": catalog.Table(locale),
		})
	}
}
