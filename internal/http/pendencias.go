package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	httpmiddleware "github.com/decexpressosaoluiz-blip/sle-pendencias/internal/http/middleware"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
)

// filtroDaQuery traduz a query string nos filtros do domínio. Valores não
// reconhecidos são ignorados, nunca rejeitados: a lista degrada para menos
// filtros, não para erro.
func filtroDaQuery(r *http.Request) pendencia.Filtro {
	q := r.URL.Query()

	f := pendencia.Filtro{
		Busca:   strings.TrimSpace(q.Get("busca")),
		Unidade: strings.TrimSpace(q.Get("unidade")),
	}

	for _, s := range q["status"] {
		switch st := pendencia.Status(strings.ToUpper(strings.TrimSpace(s))); st {
		case pendencia.StatusVencida, pendencia.StatusPrioridade, pendencia.StatusAmanha, pendencia.StatusNoPrazo:
			f.Status = append(f.Status, st)
		}
	}

	for _, p := range q["pagamento"] {
		if p = strings.TrimSpace(p); p != "" {
			f.Pagamentos = append(f.Pagamentos, p)
		}
	}

	switch strings.ToUpper(q.Get("notas")) {
	case string(pendencia.NotasCom):
		f.Notas = pendencia.NotasCom
	case string(pendencia.NotasSem):
		f.Notas = pendencia.NotasSem
	default:
		f.Notas = pendencia.NotasTodas
	}

	if strings.EqualFold(q.Get("modo"), string(pendencia.ModoOrigem)) {
		f.Modo = pendencia.ModoOrigem
	} else {
		f.Modo = pendencia.ModoDestino
	}

	return f
}

func ordenacaoDaQuery(r *http.Request) (string, bool) {
	q := r.URL.Query()
	return q.Get("ordenarPor"), strings.EqualFold(q.Get("ordem"), "desc")
}

func usuarioOuErro(w http.ResponseWriter, r *http.Request) (acesso.Usuario, bool) {
	usuario, ok := httpmiddleware.GetUsuario(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "AUTH", "usuário ausente do contexto", nil)
	}
	return usuario, ok
}

// ListarPendencias devolve a lista escopada, filtrada e ordenada.
func (h *Handler) ListarPendencias(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	campo, desc := ordenacaoDaQuery(r)
	lista, atualizadoEm := h.pendencias.Listar(usuario, filtroDaQuery(r), campo, desc)

	WriteJSON(w, http.StatusOK, map[string]any{
		"pendencias":   lista,
		"total":        len(lista),
		"atualizadoEm": atualizadoEm,
	})
}

// ListarAbertas devolve a visão global de processos em aberto.
func (h *Handler) ListarAbertas(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	campo, desc := ordenacaoDaQuery(r)
	lista, atualizadoEm := h.pendencias.ListarAbertas(usuario, filtroDaQuery(r), campo, desc)

	WriteJSON(w, http.StatusOK, map[string]any{
		"pendencias":   lista,
		"total":        len(lista),
		"atualizadoEm": atualizadoEm,
	})
}

// DetalhePendencia devolve o registro e o fio de notas dele.
func (h *Handler) DetalhePendencia(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	p, notas, err := h.pendencias.Detalhe(usuario, chi.URLParam(r, "cte"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "pendência não encontrada", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"pendencia": p,
		"notas":     notas,
	})
}

// Estatisticas devolve os KPIs do painel gerencial.
func (h *Handler) Estatisticas(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	stats, atualizadoEm := h.pendencias.Estatisticas(usuario, filtroDaQuery(r))
	WriteJSON(w, http.StatusOK, map[string]any{
		"stats":        stats,
		"atualizadoEm": atualizadoEm,
	})
}

// Exportar baixa o relatório CSV da visão atual.
func (h *Handler) Exportar(w http.ResponseWriter, r *http.Request) {
	usuario, ok := usuarioOuErro(w, r)
	if !ok {
		return
	}

	campo, desc := ordenacaoDaQuery(r)
	conteudo := h.pendencias.ExportarCSV(usuario, filtroDaQuery(r), campo, desc)

	nome := fmt.Sprintf("pendencias-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nome))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(conteudo)
}

// Atualizar força uma recarga imediata da planilha.
func (h *Handler) Atualizar(w http.ResponseWriter, r *http.Request) {
	if err := h.pendencias.Atualizar(r.Context()); err != nil {
		WriteError(w, http.StatusBadGateway, "CONNECTION_ERROR", "não foi possível atualizar a carga", nil)
		return
	}

	snap := h.pendencias.Carga()
	WriteJSON(w, http.StatusOK, map[string]any{
		"total":        len(snap.Pendencias),
		"atualizadoEm": snap.AtualizadoEm,
	})
}
