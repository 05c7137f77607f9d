package planilha

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/csvdec"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
)

// Limite de leitura do feed; o publicador não manda Content-Length confiável.
const maxCSVBytes = 32 << 20

// FetchPendencias baixa o feed CSV, descarta o cabeçalho e normaliza as
// linhas. ref é o dia usado na derivação de status.
func (c *Client) FetchPendencias(ctx context.Context, ref time.Time) ([]pendencia.Pendencia, error) {
	endpoint, err := c.cacheBust(c.csvURL, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planilha: csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("planilha: csv: HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCSVBytes))
	if err != nil {
		return nil, fmt.Errorf("planilha: csv: %w", err)
	}

	rows := csvdec.Decode(string(raw))
	if len(rows) <= 1 {
		return nil, nil
	}
	// Linha 0 é o cabeçalho; não há validação de esquema.
	return pendencia.FromRows(rows[1:], ref), nil
}
