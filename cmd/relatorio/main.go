package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/config"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/planilha"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"
)

// relatorio faz uma carga única da planilha e imprime as estatísticas do
// painel em JSON, para uso em cron ou inspeção manual.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("relatório falhou")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadPlanilha()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cliente, err := planilha.New(planilha.Config{
		CSVURL:    cfg.CSVURL,
		ScriptURL: cfg.ScriptURL,
		Timeout:   cfg.RemoteTimeout,
	})
	if err != nil {
		return fmt.Errorf("planilha: %w", err)
	}

	pendencias := service.NewPendenciaService(cliente, nil, 0, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout*3)
	defer cancel()
	// Carga indisponível degrada para relatório vazio, como o painel.
	if err := pendencias.Atualizar(ctx); err != nil {
		log.Warn().Err(err).Msg("carga indisponível, relatório sai vazio")
	}

	snap := pendencias.Carga()
	stats := pendencia.Calcular(snap.Pendencias)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"atualizadoEm": snap.AtualizadoEm,
		"stats":        stats,
	})
}
