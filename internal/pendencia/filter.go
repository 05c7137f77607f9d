package pendencia

import (
	"sort"
	"strings"
)

// Modo indica qual vínculo de unidade escopa a lista de um usuário UNIDADE.
type Modo string

const (
	ModoDestino Modo = "DESTINO"
	ModoOrigem  Modo = "ORIGEM"
)

// NotaFiltro é o filtro tri-estado por presença de anotações.
type NotaFiltro string

const (
	NotasTodas NotaFiltro = "ALL"
	NotasCom   NotaFiltro = "WITH_NOTE"
	NotasSem   NotaFiltro = "WITHOUT_NOTE"
)

// Escopo descreve a visibilidade do usuário, já resolvida a partir do papel.
// TodasUnidades vale para ADMIN/LEITOR e para a visão global de processos
// abertos; caso contrário a lista fica restrita ao vínculo de unidade.
type Escopo struct {
	TodasUnidades  bool
	UnidadeColeta  string
	UnidadeEntrega string
}

// Filtro reúne os parâmetros escolhidos pelo usuário. O escopo de papel é
// aplicado antes de qualquer um deles.
type Filtro struct {
	Busca      string
	Status     []Status
	Pagamentos []string
	Unidade    string
	Notas      NotaFiltro
	Modo       Modo
}

// Aplicar devolve o subconjunto visível, na ordem de entrada.
func Aplicar(ps []Pendencia, escopo Escopo, f Filtro) []Pendencia {
	modo := f.Modo
	if modo == "" {
		modo = ModoDestino
	}

	res := make([]Pendencia, 0, len(ps))
	for _, p := range ps {
		if !visivel(p, escopo, modo, f.Unidade) {
			continue
		}
		if f.Busca != "" && !combinaBusca(p, f.Busca) {
			continue
		}
		if len(f.Status) > 0 && !contemStatus(f.Status, p.StatusCalculado) {
			continue
		}
		if len(f.Pagamentos) > 0 && !combinaPagamento(p.FretePago, f.Pagamentos) {
			continue
		}
		switch f.Notas {
		case NotasCom:
			if p.NotaCount == 0 {
				continue
			}
		case NotasSem:
			if p.NotaCount > 0 {
				continue
			}
		}
		res = append(res, p)
	}
	return res
}

func visivel(p Pendencia, escopo Escopo, modo Modo, unidade string) bool {
	if !escopo.TodasUnidades {
		if modo == ModoOrigem {
			return escopo.UnidadeColeta == "" || p.Coleta == escopo.UnidadeColeta
		}
		return escopo.UnidadeEntrega == "" || p.Entrega == escopo.UnidadeEntrega
	}
	// Seletor explícito de unidade (ADMIN/LEITOR).
	return unidade == "" || p.Entrega == unidade
}

func combinaBusca(p Pendencia, busca string) bool {
	s := strings.ToLower(busca)
	return strings.Contains(strings.ToLower(p.CTE), s) ||
		strings.Contains(strings.ToLower(p.Destinatario), s) ||
		strings.Contains(strings.ToLower(p.Codigo), s)
}

func contemStatus(set []Status, st Status) bool {
	for _, s := range set {
		if s == st {
			return true
		}
	}
	return false
}

// combinaPagamento testa por substring: os valores do feed são livres e
// superconjuntos dos rótulos filtrados (ex.: "FATURAR_DESTINATARIO" contém
// "DEST").
func combinaPagamento(fretePago string, filtros []string) bool {
	pago := strings.ToUpper(fretePago)
	for _, f := range filtros {
		if f != "" && strings.Contains(pago, strings.ToUpper(f)) {
			return true
		}
	}
	return false
}

// Campos de ordenação aceitos.
const (
	OrdenarStatus       = "status"
	OrdenarFretePago    = "fretePago"
	OrdenarDataLimite   = "dataLimiteBaixa"
	OrdenarDestinatario = "destinatario"
	OrdenarValor        = "valorCte"
)

// Ordenar ordena de forma estável pelo campo escolhido. A data limite é
// interpretada como instante antes da comparação; comparação textual
// ordenaria "05/01/2025" antes de "20/12/2024".
func Ordenar(ps []Pendencia, campo string, descendente bool) {
	menor := comparador(campo)
	sort.SliceStable(ps, func(i, j int) bool {
		if descendente {
			return menor(ps[j], ps[i])
		}
		return menor(ps[i], ps[j])
	})
}

func comparador(campo string) func(a, b Pendencia) bool {
	switch campo {
	case OrdenarStatus:
		return func(a, b Pendencia) bool { return a.StatusCalculado < b.StatusCalculado }
	case OrdenarFretePago:
		return func(a, b Pendencia) bool { return a.FretePago < b.FretePago }
	case OrdenarDestinatario:
		return func(a, b Pendencia) bool { return a.Destinatario < b.Destinatario }
	case OrdenarValor:
		return func(a, b Pendencia) bool { return a.ValorCTE < b.ValorCTE }
	default:
		return func(a, b Pendencia) bool {
			da, _ := ParseDataBR(a.DataLimiteBaixa)
			db, _ := ParseDataBR(b.DataLimiteBaixa)
			return da.Before(db)
		}
	}
}
