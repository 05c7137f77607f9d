// Package pendencia concentra o modelo e as transformações puras do painel:
// normalização das linhas da planilha, derivação de status, enriquecimento,
// filtragem por papel e ordenação.
package pendencia

import (
	"strconv"
	"strings"
	"time"
)

// Status é o estado derivado do prazo de baixa. Recalculado a cada carga,
// nunca persistido.
type Status string

const (
	StatusVencida    Status = "OVERDUE"
	StatusPrioridade Status = "PRIORITY"
	StatusAmanha     Status = "TOMORROW"
	StatusNoPrazo    Status = "ON_TIME"
)

// Pendencia representa uma obrigação de entrega pendente de baixa.
type Pendencia struct {
	ID              string  `json:"id"`
	CTE             string  `json:"cte"`
	Serie           string  `json:"serie"`
	Codigo          string  `json:"codigo"`
	DataEmissao     string  `json:"dataEmissao"`
	PrazoParaBaixa  int     `json:"prazoParaBaixa"`
	DataLimiteBaixa string  `json:"dataLimiteBaixa"`
	Situacao        string  `json:"situacao"`
	Coleta          string  `json:"coleta"`
	Entrega         string  `json:"entrega"`
	ValorCTE        float64 `json:"valorCte"`
	TxEntrega       float64 `json:"txEntrega"`
	Volumes         int     `json:"volumes"`
	Peso            float64 `json:"peso"`
	FretePago       string  `json:"fretePago"`
	Destinatario    string  `json:"destinatario"`
	Justificativa   string  `json:"justificativa"`

	// Campos derivados, preenchidos após a carga.
	StatusCalculado Status `json:"status"`
	NotaCount       int    `json:"noteCount"`
	ProcessoAberto  bool   `json:"hasOpenProcess"`
}

// Nota é uma anotação livre amarrada à pendência pela chave (cte, serie).
// Do ponto de vista do painel é somente-anexar.
type Nota struct {
	ID         string `json:"id"`
	CTE        string `json:"cte"`
	Serie      string `json:"serie"`
	Codigo     string `json:"codigo"`
	Data       string `json:"data"`
	Autor      string `json:"autor"`
	Texto      string `json:"texto"`
	LinkImagem string `json:"linkImagem,omitempty"`
}

// ParseDataBR interpreta datas no formato DD/MM/YYYY. A planilha nem sempre
// preenche com zero à esquerda ("5/3/2025"), então as partes são convertidas
// individualmente em vez de exigir dígitos fixos. Entradas fora do formato
// retornam ok=false; cada chamador define seu valor de fallback.
func ParseDataBR(s string) (time.Time, bool) {
	partes := strings.Split(strings.TrimSpace(s), "/")
	if len(partes) != 3 {
		return time.Time{}, false
	}
	dia, errDia := strconv.Atoi(strings.TrimSpace(partes[0]))
	mes, errMes := strconv.Atoi(strings.TrimSpace(partes[1]))
	ano, errAno := strconv.Atoi(strings.TrimSpace(partes[2]))
	if errDia != nil || errMes != nil || errAno != nil {
		return time.Time{}, false
	}
	return time.Date(ano, time.Month(mes), dia, 0, 0, 0, 0, time.UTC), true
}

// CalcularStatus deriva o status do prazo em relação ao dia de referência.
// Datas ilegíveis caem no próprio dia de referência, virando PRIORITY e
// nunca OVERDUE.
func CalcularStatus(dataLimite string, ref time.Time) Status {
	limite, ok := ParseDataBR(dataLimite)
	if !ok {
		limite = ref
	}

	dias := diasEntre(ref, limite)
	switch {
	case dias < 0:
		return StatusVencida
	case dias == 0:
		return StatusPrioridade
	case dias == 1:
		return StatusAmanha
	default:
		return StatusNoPrazo
	}
}

// diasEntre conta dias corridos entre as meias-noites de a e b.
func diasEntre(a, b time.Time) int {
	am := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bm := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bm.Sub(am).Hours() / 24)
}
