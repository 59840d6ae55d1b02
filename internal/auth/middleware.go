package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type userContextKey struct{}

var errInvalidToken = errors.New("invalid token")

// Middleware resolves the caller's user ID from a bearer token. The static
// API token maps to the default user; any other token must be an HS256 JWT
// whose subject is the user's UUID.
type Middleware struct {
	token     string
	userID    uuid.UUID
	jwtSecret []byte
	public    map[string]bool
}

func NewMiddleware(token string, userID uuid.UUID, jwtSecret string, publicPaths ...string) Middleware {
	public := make(map[string]bool, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = true
	}
	return Middleware{token: token, userID: userID, jwtSecret: []byte(jwtSecret), public: public}
}

func (m Middleware) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.public[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authz := r.Header.Get("Authorization")
		if authz == "" {
			http.Error(w, "missing authorization", http.StatusUnauthorized)
			return
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(authz, prefix) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		userID, err := m.resolve(strings.TrimPrefix(authz, prefix))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) resolve(raw string) (uuid.UUID, error) {
	if m.token != "" && raw == m.token {
		return m.userID, nil
	}
	if len(m.jwtSecret) == 0 {
		return uuid.Nil, errInvalidToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %v", errInvalidToken, err)
	}
	return userID, nil
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userContextKey{})
	id, ok := v.(uuid.UUID)
	return id, ok
}
