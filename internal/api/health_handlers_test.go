package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["store"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
	assert.Equal(t, "0 public tales indexed", env.Data.Components["search"].Message)
}

func TestHealthCheck_Unconfigured(t *testing.T) {
	s := &Server{}
	out, err := s.handleHealthCheck(t.Context(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "degraded", out.Body.Status)
	assert.Equal(t, "degraded", out.Body.Components["store"].Status)
	assert.Equal(t, "degraded", out.Body.Components["search"].Status)
}

func TestFormatDocCount(t *testing.T) {
	assert.Equal(t, "1 public tale indexed", formatDocCount(1))
	assert.Equal(t, "12 public tales indexed", formatDocCount(12))
}
