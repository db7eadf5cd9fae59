package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taskboard/models"
)

type userKey struct{}

// TokenParser достаёт id пользователя из access-токена
type TokenParser interface {
	Parse(token string) (int64, error)
}

// UserLoader загружает активного пользователя по id
type UserLoader interface {
	Authenticate(ctx context.Context, userID int64) (*models.User, error)
}

func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey{}).(*models.User)
	return u, ok && u != nil
}

// Auth проверяет заголовок Authorization: Bearer <token> и кладёт пользователя в контекст
func Auth(tokens TokenParser, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				unauthorized(w, "not authenticated")
				return
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "could not validate credentials")
				return
			}

			user, err := users.Authenticate(r.Context(), userID)
			if err != nil {
				zap.L().Debug("token owner rejected", zap.Int64("user_id", userID), zap.Error(err))
				unauthorized(w, "could not validate credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
