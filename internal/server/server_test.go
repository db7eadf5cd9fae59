package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/auth"
	"taskboard/internal/config"
	"taskboard/internal/server"
	"taskboard/internal/service"
	"taskboard/internal/storetest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := service.New(storetest.New(), tokens, service.Options{})
	srv := server.NewServer(config.Config{ServerAddress: "127.0.0.1:0"}, svc, tokens)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestRoutes_AuthFlow(t *testing.T) {
	ts := newTestServer(t)

	res := do(t, http.MethodGet, ts.URL+"/api/ping", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = do(t, http.MethodGet, ts.URL+"/api/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = do(t, http.MethodPost, ts.URL+"/api/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"secret-pass","role":"customer"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = do(t, http.MethodPost, ts.URL+"/api/auth/login", "", `{"username":"alice","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&login))

	res = do(t, http.MethodGet, ts.URL+"/api/auth/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("Content-Type"))

	res = do(t, http.MethodGet, ts.URL+"/api/orders/open", login.AccessToken, "")
	require.Equal(t, http.StatusForbidden, res.StatusCode, "customers do not browse open orders")

	res = do(t, http.MethodGet, ts.URL+"/api/boards/public", "", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
}
