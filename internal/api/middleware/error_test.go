package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringo-bridge/backend/internal/ringo"
)

// Auth, connectivity and vendor rejections are all upstream failures, so
// they surface as 502 rather than the vendor's own status.
func TestWriteAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: bad field", ringo.ErrValidation), http.StatusBadRequest, ErrValidation},
		{"not found", fmt.Errorf("%w: no such key", ringo.ErrNotFound), http.StatusNotFound, ErrNotFound},
		{"auth", fmt.Errorf("%w: credentials rejected", ringo.ErrAuth), http.StatusBadGateway, ErrUnauthorized},
		{"connectivity", fmt.Errorf("%w: host unreachable", ringo.ErrConnectivity), http.StatusBadGateway, ErrCannotConnect},
		{"vendor", &ringo.VendorError{Status: 422, Message: "rejected"}, http.StatusBadGateway, ErrVendor},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, ErrInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAPIError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}
