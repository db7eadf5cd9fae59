package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"taskboard/internal/middleware"
	"taskboard/models"
)

type stubParser struct{}

func (stubParser) Parse(token string) (int64, error) {
	if token == "good" {
		return 7, nil
	}
	return 0, errors.New("bad token")
}

type stubLoader struct {
	user *models.User
}

func (s stubLoader) Authenticate(_ context.Context, userID int64) (*models.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, models.ErrUnauthorized
	}
	return s.user, nil
}

func TestAuth(t *testing.T) {
	active := &models.User{ID: 7, Username: "alice", IsActive: true}

	tests := []struct {
		name       string
		header     string
		loader     stubLoader
		wantStatus int
	}{
		{name: "no header", header: "", loader: stubLoader{user: active}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", loader: stubLoader{user: active}, wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", loader: stubLoader{user: active}, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer good", loader: stubLoader{}, wantStatus: http.StatusUnauthorized},
		{name: "ok", header: "Bearer good", loader: stubLoader{user: active}, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", loader: stubLoader{user: active}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = middleware.UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			middleware.Auth(stubParser{}, tt.loader)(next).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, active, seen)
			} else {
				require.Contains(t, w.Body.String(), `"detail"`)
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := middleware.UserFromContext(context.Background())
	require.False(t, ok)
}
