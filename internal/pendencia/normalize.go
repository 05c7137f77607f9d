package pendencia

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Posições das colunas no feed publicado (esquema fixo, sem validação de
// cabeçalho; a linha 0 é descartada pelo chamador).
const (
	colCTE = iota
	colSerie
	colCodigo
	colDataEmissao
	colPrazoParaBaixa
	colDataLimiteBaixa
	colSituacao
	colColeta
	colEntrega
	colValorCTE
	colTxEntrega
	colVolumes
	colPeso
	colFretePago
	colDestinatario
	colJustificativa
)

// FromRow converte uma linha decodificada em Pendencia. Linhas com a coluna
// de CTE em branco são puladas (retorna nil). ref é o dia usado na derivação
// de status.
func FromRow(row []string, index int, ref time.Time) *Pendencia {
	val := func(idx int) string {
		if idx < len(row) {
			return row[idx]
		}
		return ""
	}

	cte := strings.TrimSpace(val(colCTE))
	if cte == "" {
		return nil
	}

	serie := strings.TrimSpace(val(colSerie))
	dataLimite := val(colDataLimiteBaixa)

	return &Pendencia{
		ID:              fmt.Sprintf("%s-%s-%d", cte, serie, index),
		CTE:             cte,
		Serie:           serie,
		Codigo:          val(colCodigo),
		DataEmissao:     val(colDataEmissao),
		PrazoParaBaixa:  parseInteiro(val(colPrazoParaBaixa)),
		DataLimiteBaixa: dataLimite,
		Situacao:        val(colSituacao),
		Coleta:          strings.ToUpper(strings.TrimSpace(val(colColeta))),
		Entrega:         strings.ToUpper(strings.TrimSpace(val(colEntrega))),
		ValorCTE:        parseMoedaBR(val(colValorCTE)),
		TxEntrega:       parseMoedaBR(val(colTxEntrega)),
		Volumes:         parseInteiro(val(colVolumes)),
		Peso:            parseMoedaBR(val(colPeso)),
		FretePago:       strings.ToUpper(val(colFretePago)),
		Destinatario:    val(colDestinatario),
		Justificativa:   val(colJustificativa),
		StatusCalculado: CalcularStatus(dataLimite, ref),
	}
}

// FromRows normaliza todas as linhas de dados (sem o cabeçalho).
func FromRows(rows [][]string, ref time.Time) []Pendencia {
	out := make([]Pendencia, 0, len(rows))
	for i, row := range rows {
		if p := FromRow(row, i, ref); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// parseMoedaBR interpreta valores no formato pt-BR ("R$ 1.234,56"): remove o
// prefixo não numérico, descarta separadores de milhar e troca a vírgula
// decimal. Valores ilegíveis valem 0.
func parseMoedaBR(s string) float64 {
	s = strings.TrimSpace(s)
	start := strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsDigit(r) || r == '-'
	})
	if start < 0 {
		return 0
	}
	s = strings.ReplaceAll(s[start:], ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInteiro(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
