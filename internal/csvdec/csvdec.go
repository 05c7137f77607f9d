// Package csvdec decodifica o feed CSV publicado pela planilha.
//
// O publicador do Google Sheets não segue o RFC 4180 à risca (linhas finais
// sem terminador, campos vazios no fim da linha), então o decoder replica o
// comportamento observado do feed em vez de usar encoding/csv, que é estrito
// quanto a aspas e não apara espaços.
package csvdec

import "strings"

// Decode transforma texto delimitado em linhas de campos.
//
// Regras: campos separados por vírgula; um campo pode ser envolvido por
// aspas duplas para conter vírgulas e quebras de linha; `""` dentro de aspas
// vira uma aspa literal; `\n` ou `\r\n` encerram a linha apenas fora de
// aspas; a última linha é emitida mesmo sem terminador; campo vazio no fim
// da linha ainda é emitido. Cada campo é aparado ao ser emitido.
func Decode(text string) [][]string {
	var (
		result  [][]string
		row     []string
		current strings.Builder
		inQuote bool
	)

	push := func() {
		row = append(row, strings.TrimSpace(current.String()))
		current.Reset()
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"':
			if inQuote && i+1 < len(text) && text[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuote = !inQuote
			}
		case ch == ',' && !inQuote:
			push()
		case (ch == '\r' || ch == '\n') && !inQuote:
			if current.Len() > 0 || len(row) > 0 {
				push()
			}
			if len(row) > 0 {
				result = append(result, row)
			}
			row = nil
			if ch == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 || len(row) > 0 {
		push()
		result = append(result, row)
	}

	return result
}

// Encode serializa linhas no mesmo dialeto aceito por Decode, citando apenas
// campos que contêm vírgula, aspas ou quebra de linha. Decode(Encode(rows))
// reproduz os campos originais.
func Encode(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if strings.ContainsAny(field, ",\"\r\n") {
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(field, "\"", "\"\""))
				b.WriteByte('"')
			} else {
				b.WriteString(field)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
