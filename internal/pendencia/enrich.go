package pendencia

import "strings"

// Enriquecer preenche NotaCount e ProcessoAberto em cada pendência a partir
// das coleções buscadas em paralelo.
func Enriquecer(ps []Pendencia, notas []Nota, abertos []string) []Pendencia {
	porCTE := make(map[string]int, len(notas))
	for _, n := range notas {
		porCTE[strings.TrimSpace(n.CTE)]++
	}

	abertoSet := make(map[string]struct{}, len(abertos))
	for _, cte := range abertos {
		abertoSet[strings.TrimSpace(cte)] = struct{}{}
	}

	out := make([]Pendencia, len(ps))
	for i, p := range ps {
		cte := strings.TrimSpace(p.CTE)
		p.NotaCount = porCTE[cte]
		_, p.ProcessoAberto = abertoSet[cte]
		out[i] = p
	}
	return out
}

// NotasDoCTE devolve as anotações da pendência, comparando o CTE aparado.
func NotasDoCTE(notas []Nota, cte string) []Nota {
	cte = strings.TrimSpace(cte)
	var out []Nota
	for _, n := range notas {
		if strings.TrimSpace(n.CTE) == cte {
			out = append(out, n)
		}
	}
	return out
}
