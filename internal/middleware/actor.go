package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talenthive/recruiting_layer/pkg/logger"
)

type contextKey string

const (
	actorIDKey contextKey = "actor_id"
	actorRole  contextKey = "actor_role"
)

// Claims are the token claims the recruiting layer cares about. Token
// issuance and full permission evaluation live outside this module.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ActorExtractor pulls the acting user out of a bearer token and stores it
// on the request context. A missing or invalid token is tolerated: the
// request continues anonymously and authorization decisions happen
// downstream, per operation.
type ActorExtractor struct {
	key []byte
	log *logger.Logger
}

// NewActorExtractor builds the extractor over an HMAC verification key. A
// nil key disables verification and leaves every request anonymous.
func NewActorExtractor(key []byte, log *logger.Logger) *ActorExtractor {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	return &ActorExtractor{key: key, log: log}
}

// Handler returns the middleware handler.
func (m *ActorExtractor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.key) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			next.ServeHTTP(w, r)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.key, nil
		})
		if err != nil || !token.Valid {
			m.log.WithError(err).Debug("bearer token rejected, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorIDKey, claims.UserID)
		ctx = context.WithValue(ctx, actorRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorID returns the authenticated user id, or "" for anonymous requests.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorIDKey).(string)
	return id
}

// ActorRole returns the authenticated user's role, or "".
func ActorRole(ctx context.Context) string {
	role, _ := ctx.Value(actorRole).(string)
	return role
}

// WithActor stamps an actor onto the context. Intended for tests and
// internal callers.
func WithActor(ctx context.Context, id, role string) context.Context {
	ctx = context.WithValue(ctx, actorIDKey, id)
	return context.WithValue(ctx, actorRole, role)
}
