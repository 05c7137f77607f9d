package pendencia

import "testing"

func amostra() []Pendencia {
	return []Pendencia{
		{CTE: "100", Entrega: "SP", Coleta: "RJ", Destinatario: "Loja Azul", Codigo: "A1", StatusCalculado: StatusVencida, FretePago: "CIF", DataLimiteBaixa: "20/12/2024", NotaCount: 2, ValorCTE: 100},
		{CTE: "200", Entrega: "MG", Coleta: "SP", Destinatario: "Mercado Verde", Codigo: "B2", StatusCalculado: StatusPrioridade, FretePago: "FATURAR_DESTINATARIO", DataLimiteBaixa: "05/01/2025", ValorCTE: 50},
		{CTE: "300", Entrega: "SP", Coleta: "MG", Destinatario: "Deposito Central", Codigo: "C3", StatusCalculado: StatusNoPrazo, FretePago: "FOB", DataLimiteBaixa: "10/02/2025", NotaCount: 1, ValorCTE: 80},
	}
}

func TestAplicarEscopoUnidadeDestino(t *testing.T) {
	escopo := Escopo{UnidadeEntrega: "SP", UnidadeColeta: "RJ"}
	res := Aplicar(amostra(), escopo, Filtro{Modo: ModoDestino})
	if len(res) != 2 {
		t.Fatalf("esperava 2 registros de entrega SP, obteve %d", len(res))
	}
	for _, p := range res {
		if p.Entrega != "SP" {
			t.Fatalf("registro fora do escopo: %+v", p)
		}
	}

	// Outros filtros não ampliam o escopo.
	res = Aplicar(amostra(), escopo, Filtro{Modo: ModoDestino, Busca: "Mercado"})
	if len(res) != 0 {
		t.Fatalf("busca vazou o escopo de unidade: %v", res)
	}
}

func TestAplicarEscopoUnidadeOrigem(t *testing.T) {
	escopo := Escopo{UnidadeEntrega: "SP", UnidadeColeta: "RJ"}
	res := Aplicar(amostra(), escopo, Filtro{Modo: ModoOrigem})
	if len(res) != 1 || res[0].CTE != "100" {
		t.Fatalf("modo origem deveria devolver só coleta RJ: %v", res)
	}
}

func TestAplicarTodasUnidadesComSeletor(t *testing.T) {
	escopo := Escopo{TodasUnidades: true}
	if res := Aplicar(amostra(), escopo, Filtro{}); len(res) != 3 {
		t.Fatalf("ADMIN/LEITOR deveria ver tudo, obteve %d", len(res))
	}
	res := Aplicar(amostra(), escopo, Filtro{Unidade: "MG"})
	if len(res) != 1 || res[0].CTE != "200" {
		t.Fatalf("seletor de unidade falhou: %v", res)
	}
}

func TestAplicarBusca(t *testing.T) {
	escopo := Escopo{TodasUnidades: true}
	res := Aplicar(amostra(), escopo, Filtro{Busca: "verde"})
	if len(res) != 1 || res[0].CTE != "200" {
		t.Fatalf("busca por destinatário falhou: %v", res)
	}
	if res := Aplicar(amostra(), escopo, Filtro{Busca: "c3"}); len(res) != 1 || res[0].CTE != "300" {
		t.Fatalf("busca por código falhou: %v", res)
	}
}

func TestAplicarStatusEPagamento(t *testing.T) {
	escopo := Escopo{TodasUnidades: true}
	res := Aplicar(amostra(), escopo, Filtro{Status: []Status{StatusVencida, StatusPrioridade}})
	if len(res) != 2 {
		t.Fatalf("filtro de status: %v", res)
	}
	// Pagamento por substring: "DEST" encontra "FATURAR_DESTINATARIO".
	res = Aplicar(amostra(), escopo, Filtro{Pagamentos: []string{"DEST"}})
	if len(res) != 1 || res[0].CTE != "200" {
		t.Fatalf("filtro de pagamento: %v", res)
	}
}

func TestAplicarFiltroNotas(t *testing.T) {
	escopo := Escopo{TodasUnidades: true}
	if res := Aplicar(amostra(), escopo, Filtro{Notas: NotasCom}); len(res) != 2 {
		t.Fatalf("com nota: %v", res)
	}
	if res := Aplicar(amostra(), escopo, Filtro{Notas: NotasSem}); len(res) != 1 || res[0].CTE != "200" {
		t.Fatalf("sem nota: %v", res)
	}
}

func TestOrdenarDataLimiteCronologica(t *testing.T) {
	ps := []Pendencia{
		{CTE: "a", DataLimiteBaixa: "5/1/2025"},
		{CTE: "b", DataLimiteBaixa: "20/12/2024"},
	}
	Ordenar(ps, OrdenarDataLimite, false)
	if ps[0].CTE != "b" {
		t.Fatal("20/12/2024 deveria vir antes de 5/1/2025 (ordem cronológica)")
	}
	Ordenar(ps, OrdenarDataLimite, true)
	if ps[0].CTE != "a" {
		t.Fatal("ordem descendente não inverteu")
	}
}

func TestOrdenarEstavel(t *testing.T) {
	ps := []Pendencia{
		{CTE: "1", DataLimiteBaixa: "01/01/2025"},
		{CTE: "2", DataLimiteBaixa: "01/01/2025"},
		{CTE: "3", DataLimiteBaixa: "01/01/2025"},
	}
	Ordenar(ps, OrdenarDataLimite, false)
	if ps[0].CTE != "1" || ps[1].CTE != "2" || ps[2].CTE != "3" {
		t.Fatalf("ordenação não estável: %v", ps)
	}
}
