package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	httpmiddleware "github.com/decexpressosaoluiz-blip/sle-pendencias/internal/http/middleware"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"
)

const refreshCookiePainel = "painel"

// Login autentica contra a aba de usuários da planilha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Senha    string `json:"senha"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Senha) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "username e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Username, payload.Senha)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona a sessão a partir do cookie httpOnly.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshInvalid):
			h.clearRefreshCookie(w)
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
		case errors.Is(err, service.ErrConexao):
			WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "planilha indisponível", nil)
		default:
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		}
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me devolve o usuário reconstruído das claims do token.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	usuario, ok := httpmiddleware.GetUsuario(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário ausente do contexto", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": usuario})
}

// TrocarSenha grava nova senha para o próprio usuário.
func (h *Handler) TrocarSenha(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NovaSenha string `json:"novaSenha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if len(strings.TrimSpace(payload.NovaSenha)) < 4 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "senha muito curta", nil)
		return
	}

	username := httpmiddleware.GetSubject(r.Context())
	if err := h.authService.TrocarSenha(r.Context(), username, payload.NovaSenha); err != nil {
		h.handleAuthError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "senha_atualizada"})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUsuarioNaoEncontrado):
		WriteError(w, http.StatusUnauthorized, "USER_NOT_FOUND", "usuário não encontrado", nil)
	case errors.Is(err, service.ErrSenhaIncorreta):
		WriteError(w, http.StatusUnauthorized, "WRONG_PASSWORD", "senha incorreta", nil)
	case errors.Is(err, service.ErrConexao):
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível consultar a planilha", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user":         result.Usuario,
	})
}

func getRefreshFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(refreshCookiePainel); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookiePainel,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookiePainel,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
