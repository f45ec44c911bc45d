package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"secretariat_import/internal/logger"
	"secretariat_import/internal/repository"

	"go.uber.org/zap"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

type TokenRepo interface {
	FindTokenByPlainToken(ctx context.Context, plainToken string) (*repository.PersonalAccessToken, error)
}

// TokenMiddleware authenticates with a bearer token from the Authorization
// header or, failing that, the token query parameter. Preflight requests
// pass through.
func TokenMiddleware(tokenRepo TokenRepo, log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var pat *repository.PersonalAccessToken
			if plain := bearer(r.Header.Get("Authorization")); plain != "" {
				p, err := tokenRepo.FindTokenByPlainToken(r.Context(), plain)
				if err == nil {
					pat = p
				} else {
					log.Debug("[AUTH] header token rejected", zap.Error(err))
				}
			}

			if pat == nil {
				if plain := strings.TrimSpace(r.URL.Query().Get("token")); plain != "" {
					p, err := tokenRepo.FindTokenByPlainToken(r.Context(), plain)
					if err == nil {
						pat = p
					} else {
						log.Debug("[AUTH] query token rejected", zap.Error(err))
					}
				}
			}

			if pat == nil {
				unauthorized(w, "unauthorized")
				return
			}
			if pat.ExpiresAt != nil && pat.ExpiresAt.Before(time.Now()) {
				unauthorized(w, "token expired")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, strconv.FormatInt(pat.UserID, 10))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func GetUserID(ctx context.Context) (string, error) {
	v, ok := ctx.Value(UserIDKey).(string)
	if !ok || v == "" {
		return "", errors.New("userID not found in context")
	}
	return v, nil
}
