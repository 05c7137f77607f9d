package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
)

// ListarNotas devolve o fio de anotações de um CTE.
func (h *Handler) ListarNotas(w http.ResponseWriter, r *http.Request) {
	cte := strings.TrimSpace(r.URL.Query().Get("cte"))
	if cte == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "cte obrigatório", nil)
		return
	}

	notas := h.pendencias.Notas(cte)
	WriteJSON(w, http.StatusOK, map[string]any{
		"notas": notas,
		"total": len(notas),
	})
}

// AdicionarNota registra uma anotação em um CTE; imagem anexa exige a
// permissão de upload.
func (h *Handler) AdicionarNota(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	var payload struct {
		CTE    string `json:"cte"`
		Serie  string `json:"serie"`
		Codigo string `json:"codigo"`
		Texto  string `json:"texto"`
		Imagem string `json:"imagem"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.CTE) == "" || strings.TrimSpace(payload.Texto) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "cte e texto são obrigatórios", nil)
		return
	}
	if payload.Imagem != "" && !usuario.TemPermissao(acesso.PermUploadImagem) {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "permissão necessária: "+acesso.PermUploadImagem, nil)
		return
	}

	nota := pendencia.Nota{
		CTE:    strings.TrimSpace(payload.CTE),
		Serie:  strings.TrimSpace(payload.Serie),
		Codigo: strings.TrimSpace(payload.Codigo),
		Texto:  strings.TrimSpace(payload.Texto),
	}

	if err := h.pendencias.AdicionarNota(r.Context(), usuario, nota, payload.Imagem); err != nil {
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível gravar a nota", nil)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "nota_registrada"})
}

// AlternarProcesso liga ou desliga a marcação de processo em aberto.
func (h *Handler) AlternarProcesso(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	var payload struct {
		Aberto bool `json:"aberto"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	cte := strings.TrimSpace(chi.URLParam(r, "cte"))
	if cte == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "cte obrigatório", nil)
		return
	}

	if err := h.pendencias.AlternarProcesso(r.Context(), usuario, cte, payload.Aberto); err != nil {
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível alterar o processo", nil)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"cte": cte, "aberto": payload.Aberto})
}
