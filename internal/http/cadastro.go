package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"
)

// ListarUsuarios devolve o diretório sem senhas.
func (h *Handler) ListarUsuarios(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.cadastro.ListarUsuarios(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível listar usuários", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"usuarios":   usuarios,
		"permissoes": acesso.TodasPermissoes,
	})
}

// SalvarUsuario cria ou substitui um usuário do diretório.
func (h *Handler) SalvarUsuario(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username       string   `json:"username"`
		Senha          string   `json:"senha"`
		Papel          string   `json:"role"`
		UnidadeColeta  string   `json:"linkedOriginUnit"`
		UnidadeEntrega string   `json:"linkedDestUnit"`
		Permissoes     []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	usuario := acesso.Usuario{
		Username:       payload.Username,
		Senha:          payload.Senha,
		Papel:          acesso.Papel(payload.Papel),
		UnidadeColeta:  payload.UnidadeColeta,
		UnidadeEntrega: payload.UnidadeEntrega,
		Permissoes:     acesso.NormalizarPermissoes(payload.Permissoes),
	}

	if err := h.cadastro.SalvarUsuario(r.Context(), usuario); err != nil {
		h.handleCadastroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "usuario_salvo"})
}

// ExcluirUsuario remove um usuário do diretório.
func (h *Handler) ExcluirUsuario(w http.ResponseWriter, r *http.Request) {
	if err := h.cadastro.ExcluirUsuario(r.Context(), chi.URLParam(r, "username")); err != nil {
		h.handleCadastroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "usuario_excluido"})
}

// ListarPerfis devolve os perfis e o catálogo de permissões.
func (h *Handler) ListarPerfis(w http.ResponseWriter, r *http.Request) {
	perfis, err := h.cadastro.ListarPerfis(r.Context())
	if err != nil {
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível listar perfis", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"perfis":     perfis,
		"permissoes": acesso.TodasPermissoes,
	})
}

// SalvarPerfil cria ou substitui um perfil.
func (h *Handler) SalvarPerfil(w http.ResponseWriter, r *http.Request) {
	var perfil acesso.Perfil
	if err := json.NewDecoder(r.Body).Decode(&perfil); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.cadastro.SalvarPerfil(r.Context(), perfil); err != nil {
		h.handleCadastroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "perfil_salvo"})
}

// ExcluirPerfil remove um perfil.
func (h *Handler) ExcluirPerfil(w http.ResponseWriter, r *http.Request) {
	if err := h.cadastro.ExcluirPerfil(r.Context(), chi.URLParam(r, "nome")); err != nil {
		h.handleCadastroError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "perfil_excluido"})
}

func (h *Handler) handleCadastroError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsernameObrigatorio),
		errors.Is(err, service.ErrSenhaObrigatoria),
		errors.Is(err, service.ErrNomePerfilInvalido):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível gravar na planilha", nil)
	}
}
