package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	g := gin.New()
	RegisterHealth(g, time.Now(), nil)

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"OK","message":"Blog API is running"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	g := gin.New()
	RegisterHealth(g, time.Now(), map[string]Probe{"store": ok})
	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)

	g = gin.New()
	RegisterHealth(g, time.Now(), map[string]Probe{"store": ok, "redis": down})
	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string          `json:"status"`
		Deps   map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Status)
	require.Equal(t, map[string]bool{"store": true, "redis": false}, body.Deps)
}
