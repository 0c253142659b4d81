// AngelaMos | 2026
// handler_test.go

package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/curator-backend/internal/health"
)

type pinger struct {
	err error
}

func (p pinger) Ping(context.Context) error {
	return p.err
}

var down = pinger{err: errors.New("connection refused")}

func get(t *testing.T, h *health.Handler, path string) (int, health.ReadinessResponse) {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body health.ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		components []health.Component
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			components: []health.Component{{Name: "database", Checker: pinger{}}, {Name: "redis", Checker: pinger{}, Optional: true}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "optional down",
			components: []health.Component{{Name: "database", Checker: pinger{}}, {Name: "redis", Checker: down, Optional: true}},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name:       "required down",
			components: []health.Component{{Name: "database", Checker: down}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
		{
			name:       "required unconfigured",
			components: []health.Component{{Name: "database"}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := get(t, health.NewHandler(tt.components...), "/readyz")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			require.Len(t, body.Checks, len(tt.components))
			for i, c := range tt.components {
				assert.Equal(t, c.Name, body.Checks[i].Name)
			}
		})
	}
}

func TestShutdownFailsProbes(t *testing.T) {
	h := health.NewHandler(health.Component{Name: "database", Checker: pinger{}})

	code, body := get(t, h, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.SetShutdown(true)

	for _, path := range []string{"/healthz", "/readyz"} {
		code, body = get(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "shutting_down", body.Status)
	}
}

func TestNotReady(t *testing.T) {
	h := health.NewHandler()
	h.SetReady(false)

	code, body := get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body.Status)
}
