package middleware

import (
	"net/http"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
)

// RequirePermissao barra a rota para quem não possui a chave. ADMIN passa
// sempre. A verificação protege visões e ações inteiras, nunca registros
// individuais; o escopo por registro é aplicado no filtro.
func RequirePermissao(chave string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			usuario, ok := GetUsuario(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "AUTH", "usuário ausente do contexto")
				return
			}
			if !usuario.TemPermissao(chave) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "permissão necessária: "+chave)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePainelGerencial bloqueia o papel UNIDADE, que enxerga apenas listas
// operacionais.
func RequirePainelGerencial(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		usuario, ok := GetUsuario(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "AUTH", "usuário ausente do contexto")
			return
		}
		if usuario.Papel == acesso.PapelUnidade {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito ao painel gerencial")
			return
		}
		next.ServeHTTP(w, r)
	})
}
