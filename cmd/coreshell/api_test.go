package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchstate/core/internal/env/memenv"
	"github.com/watchstate/core/internal/runtime"
)

func newTestRouter(t *testing.T, adminToken string) *chi.Mux {
	t.Helper()
	d := runtime.NewDispatcher(memenv.New(), nil)
	d.Dispatch(context.Background(), runtime.Init{})

	r := chi.NewRouter()
	mountAPI(r, d, zerolog.Nop(), adminToken, false)
	return r
}

func TestStateRouteReturnsDispatcherSnapshot(t *testing.T) {
	r := newTestRouter(t, "")
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminLogLevelRejectsMissingToken(t *testing.T) {
	r := newTestRouter(t, "secret")
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/admin/log-level", "application/json", strings.NewReader(`{"level":"debug"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogLevelRejectsWrongToken(t *testing.T) {
	r := newTestRouter(t, "secret")
	srv := httptest.NewServer(r)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/log-level", strings.NewReader(`{"level":"debug"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogLevelAcceptsCorrectToken(t *testing.T) {
	r := newTestRouter(t, "secret")
	srv := httptest.NewServer(r)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/log-level", strings.NewReader(`{"level":"debug"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAdminLogLevelRejectsInvalidLevel(t *testing.T) {
	r := newTestRouter(t, "secret")
	srv := httptest.NewServer(r)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/log-level", strings.NewReader(`{"level":"not-a-level"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
