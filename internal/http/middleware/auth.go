package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
)

type contextKey string

const (
	ContextKeySubject  contextKey = "subject"
	ContextKeyAudience contextKey = "audience"
	ContextKeyUsuario  contextKey = "usuario"
)

// Auth valida JWT de acesso e injeta no contexto o usuário reconstruído a
// partir das claims (papel, unidades e permissões resolvidas no login).
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if len(claims.Audience) == 0 {
				writeError(w, http.StatusUnauthorized, "AUTH", "audience inválida")
				return
			}

			usuario := acesso.Usuario{
				Username:       claims.Subject,
				Papel:          acesso.Papel(claims.Papel),
				UnidadeColeta:  claims.UnidadeColeta,
				UnidadeEntrega: claims.UnidadeEntrega,
				Permissoes:     claims.Permissoes,
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyAudience, claims.Audience[0])
			ctx = context.WithValue(ctx, ContextKeyUsuario, usuario)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetAudience recupera audience do contexto.
func GetAudience(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAudience).(string)
	return val
}

// GetUsuario recupera o usuário autenticado do contexto.
func GetUsuario(ctx context.Context) (acesso.Usuario, bool) {
	val, ok := ctx.Value(ContextKeyUsuario).(acesso.Usuario)
	return val, ok
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
