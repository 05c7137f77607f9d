package pendencia

import (
	"testing"
	"time"
)

var ref = time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)

func TestCalcularStatus(t *testing.T) {
	cases := []struct {
		limite string
		want   Status
	}{
		{"10/03/2025", StatusVencida},
		{"14/03/2025", StatusVencida},
		// Sem zero à esquerda, como a planilha às vezes publica.
		{"5/3/2025", StatusVencida},
		{"16/3/2025", StatusAmanha},
		{"15/03/2025", StatusPrioridade},
		{"16/03/2025", StatusAmanha},
		{"17/03/2025", StatusNoPrazo},
		{"20/12/2026", StatusNoPrazo},
		// Datas ilegíveis caem no dia de referência: nunca vencidas.
		{"sem data", StatusPrioridade},
		{"", StatusPrioridade},
	}
	for _, tc := range cases {
		if got := CalcularStatus(tc.limite, ref); got != tc.want {
			t.Errorf("CalcularStatus(%q) = %s, esperado %s", tc.limite, got, tc.want)
		}
	}
}

func TestParseDataBR(t *testing.T) {
	d, ok := ParseDataBR("05/01/2025")
	if !ok || d.Day() != 5 || d.Month() != time.January || d.Year() != 2025 {
		t.Fatalf("ParseDataBR falhou: %v %v", d, ok)
	}
	d, ok = ParseDataBR("5/3/2025")
	if !ok || d.Day() != 5 || d.Month() != time.March || d.Year() != 2025 {
		t.Fatalf("data sem zero à esquerda rejeitada: %v %v", d, ok)
	}
	for _, s := range []string{"2025-01-05", "10/03", "a/b/c", "", "sem data"} {
		if _, ok := ParseDataBR(s); ok {
			t.Fatalf("ParseDataBR(%q) deveria falhar", s)
		}
	}
}

func linhaValida() []string {
	return []string{
		"123456", "1", "COD9", "01/03/2025", "14", "15/03/2025", "PENDENTE",
		" spo ", " rio ", "R$ 1.234,56", "R$ 10,00", "3", "1.250,5",
		"Faturar_Destinatario", "ACME LTDA", "aguardando cliente",
	}
}

func TestFromRow(t *testing.T) {
	p := FromRow(linhaValida(), 0, ref)
	if p == nil {
		t.Fatal("linha válida descartada")
	}
	if p.CTE != "123456" || p.Serie != "1" {
		t.Fatalf("chave errada: %q/%q", p.CTE, p.Serie)
	}
	if p.Coleta != "SPO" || p.Entrega != "RIO" {
		t.Fatalf("unidades não normalizadas: %q/%q", p.Coleta, p.Entrega)
	}
	if p.ValorCTE != 1234.56 {
		t.Fatalf("ValorCTE = %v, esperado 1234.56", p.ValorCTE)
	}
	if p.Peso != 1250.5 {
		t.Fatalf("Peso = %v, esperado 1250.5", p.Peso)
	}
	if p.FretePago != "FATURAR_DESTINATARIO" {
		t.Fatalf("FretePago = %q", p.FretePago)
	}
	if p.StatusCalculado != StatusPrioridade {
		t.Fatalf("status = %s", p.StatusCalculado)
	}
}

func TestFromRowPulaCTEEmBranco(t *testing.T) {
	row := linhaValida()
	row[0] = "  "
	if p := FromRow(row, 0, ref); p != nil {
		t.Fatalf("linha sem CTE deveria ser pulada, obteve %+v", p)
	}
}

func TestFromRowLinhaCurta(t *testing.T) {
	p := FromRow([]string{"999"}, 2, ref)
	if p == nil {
		t.Fatal("linha curta com CTE deveria ser aceita")
	}
	if p.ValorCTE != 0 || p.Entrega != "" {
		t.Fatalf("colunas ausentes deveriam valer zero: %+v", p)
	}
	if p.ID != "999--2" {
		t.Fatalf("ID = %q", p.ID)
	}
}

func TestParseMoedaBR(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"R$ 1.234,56", 1234.56},
		{"R$1.234.567,89", 1234567.89},
		{"10,5", 10.5},
		{"42", 42},
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := parseMoedaBR(tc.in); got != tc.want {
			t.Errorf("parseMoedaBR(%q) = %v, esperado %v", tc.in, got, tc.want)
		}
	}
}

func TestFromRows(t *testing.T) {
	vazia := linhaValida()
	vazia[0] = ""
	ps := FromRows([][]string{linhaValida(), vazia, linhaValida()}, ref)
	if len(ps) != 2 {
		t.Fatalf("esperava 2 pendências, obteve %d", len(ps))
	}
}
