package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/services"
	"github.com/senyabanana/auction-service/internal/utils"
)

type actorKey struct{}

// AuthMiddleware проверяет токен из заголовка Authorization.
type AuthMiddleware struct {
	Tokens *services.TokenService
	Logger *log.Logger
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware.
func NewAuthMiddleware(tokens *services.TokenService, logger *log.Logger) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens, Logger: logger}
}

// Require пропускает запрос дальше только с действующим токеном и кладёт пользователя в контекст.
func (m *AuthMiddleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		actor, err := m.Tokens.Parse(raw)
		if err != nil {
			m.Logger.Println(err)
			utils.SendErrorResponse(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	}
}

// actorFrom достаёт пользователя, положенного в контекст AuthMiddleware.
func actorFrom(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(models.Actor)
	return actor, ok
}

func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := actorFrom(r.Context())
	if !ok {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "missing bearer token")
	}
	return actor, ok
}
