package http

import (
	"encoding/json"
	"net/http"
)

// ListarNotificacoes devolve os avisos pendentes do usuário.
func (h *Handler) ListarNotificacoes(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	avisos, err := h.notificacoes.Listar(r.Context(), usuario)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar notificações", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"notificacoes": avisos,
		"total":        len(avisos),
	})
}

// DispensarNotificacoes marca avisos como lidos.
func (h *Handler) DispensarNotificacoes(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if err := h.notificacoes.Dispensar(r.Context(), usuario, payload.IDs); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível dispensar notificações", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "dispensadas"})
}
