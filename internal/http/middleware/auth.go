package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"evbooking/internal/models"
)

type contextKey string

const actorKey contextKey = "actor"

// Auth validates JWT bearer tokens and places the acting user and role into
// the request context. Lifecycle calls receive the actor explicitly; this is
// the only place it is read from transport.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(parts[1])
			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenInvalidClaims
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid token claims", http.StatusUnauthorized)
				return
			}

			actor, err := extractActor(claims)
			if err != nil {
				http.Error(w, "actor not found in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractActor(claims jwt.MapClaims) (models.Actor, error) {
	var actor models.Actor

	switch v := claims["user_id"].(type) {
	case float64:
		actor.UserID = int64(v)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return actor, err
		}
		actor.UserID = id
	default:
		return actor, fmt.Errorf("user_id not present")
	}

	role, _ := claims["role"].(string)
	switch models.Role(role) {
	case models.RoleOperator, models.RoleBackoffice:
		actor.Role = models.Role(role)
	default:
		actor.Role = models.RoleOwner
	}
	return actor, nil
}

// WithActor returns a context carrying the actor, as Auth would set it.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor placed by Auth.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return models.Actor{}, false
	}
	actor, ok := val.(models.Actor)
	return actor, ok
}
