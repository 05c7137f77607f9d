package pendencia

import (
	"sort"
	"strings"
)

// Contagem agrega quantidade e valor acumulado de CTEs.
type Contagem struct {
	Count int     `json:"count"`
	Valor float64 `json:"valor"`
}

// Estatisticas são os KPIs do painel gerencial.
type Estatisticas struct {
	Total        int                 `json:"total"`
	ValorTotal   float64             `json:"valorTotal"`
	PorStatus    map[Status]Contagem `json:"porStatus"`
	PorUnidade   map[string]Contagem `json:"porUnidade"`
	PorPagamento map[string]Contagem `json:"porPagamento"`
	// Unidades com mais pendências, em ordem decrescente (no máximo 10).
	MaioresOfensores []Ofensor `json:"maioresOfensores"`
}

// Ofensor destaca uma unidade de entrega no ranking.
type Ofensor struct {
	Unidade string  `json:"unidade"`
	Count   int     `json:"count"`
	Valor   float64 `json:"valor"`
}

// Calcular agrega estatísticas sobre o conjunto já filtrado.
func Calcular(ps []Pendencia) Estatisticas {
	s := Estatisticas{
		PorStatus:    make(map[Status]Contagem),
		PorUnidade:   make(map[string]Contagem),
		PorPagamento: make(map[string]Contagem),
	}

	for _, p := range ps {
		s.Total++
		s.ValorTotal += p.ValorCTE

		soma(s.PorStatus, p.StatusCalculado, p.ValorCTE)
		if p.Entrega != "" {
			soma(s.PorUnidade, p.Entrega, p.ValorCTE)
		}
		soma(s.PorPagamento, classePagamento(p.FretePago), p.ValorCTE)
	}

	s.MaioresOfensores = ranquear(s.PorUnidade, 10)
	return s
}

func soma[K comparable](m map[K]Contagem, k K, valor float64) {
	c := m[k]
	c.Count++
	c.Valor += valor
	m[k] = c
}

// classePagamento reduz o texto livre do feed a uma classe curta para
// agrupamento nos gráficos.
func classePagamento(fretePago string) string {
	t := strings.ToUpper(fretePago)
	switch {
	case strings.Contains(t, "CIF"):
		return "CIF"
	case strings.Contains(t, "FOB"):
		return "FOB"
	case strings.Contains(t, "REMETENTE"):
		return "REM"
	case strings.Contains(t, "DEST"):
		return "DEST"
	default:
		return "OUTROS"
	}
}

func ranquear(porUnidade map[string]Contagem, limite int) []Ofensor {
	out := make([]Ofensor, 0, len(porUnidade))
	for unidade, c := range porUnidade {
		out = append(out, Ofensor{Unidade: unidade, Count: c.Count, Valor: c.Valor})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Unidade < out[j].Unidade
	})
	if len(out) > limite {
		out = out[:limite]
	}
	return out
}
