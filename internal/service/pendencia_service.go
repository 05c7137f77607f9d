package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/csvdec"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/storage"
)

// ErrPendenciaNaoEncontrada indica CTE ausente da carga atual.
var ErrPendenciaNaoEncontrada = errors.New("pendência não encontrada")

// fonteDados é o subconjunto do cliente da planilha usado pelo painel.
type fonteDados interface {
	FetchPendencias(ctx context.Context, ref time.Time) ([]pendencia.Pendencia, error)
	FetchNotas(ctx context.Context, cte string) ([]pendencia.Nota, error)
	FetchProcessosAbertos(ctx context.Context) ([]string, error)
	AddNota(ctx context.Context, nota pendencia.Nota, imagem string) error
	ToggleProcesso(ctx context.Context, cte string, aberto bool, usuario string) error
}

// Snapshot é a carga consistente mais recente. Substituída por inteiro a
// cada atualização bem-sucedida; nunca parcialmente.
type Snapshot struct {
	Pendencias   []pendencia.Pendencia
	Notas        []pendencia.Nota
	Abertos      []string
	AtualizadoEm time.Time
}

// PendenciaService mantém a carga em memória e executa o ciclo de
// atualização (inicial, periódico e manual).
type PendenciaService struct {
	fonte    fonteDados
	uploader storage.Uploader
	logger   zerolog.Logger
	interval time.Duration
	agora    func() time.Time

	mu   sync.RWMutex
	snap Snapshot

	once   sync.Once
	cancel context.CancelFunc
}

// NewPendenciaService cria o serviço; interval <= 0 usa 30s.
func NewPendenciaService(fonte fonteDados, uploader storage.Uploader, interval time.Duration, logger zerolog.Logger) *PendenciaService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &PendenciaService{
		fonte:    fonte,
		uploader: uploader,
		logger:   logger,
		interval: interval,
		agora:    time.Now,
	}
}

// Start inicia o ciclo periódico. Seguro para chamar múltiplas vezes.
func (s *PendenciaService) Start(parent context.Context) {
	s.once.Do(func() {
		ctx, cancel := context.WithCancel(parent)
		s.cancel = cancel
		go s.runLoop(ctx)
	})
}

// Stop encerra o ciclo periódico.
func (s *PendenciaService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *PendenciaService) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("pendencias: ciclo de atualização iniciado")

	if err := s.Atualizar(ctx); err != nil {
		s.logger.Error().Err(err).Msg("pendencias: carga inicial falhou")
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("pendencias: ciclo encerrado")
			return
		case <-ticker.C:
			if err := s.Atualizar(ctx); err != nil {
				// Mantém a carga anterior (obsoleta porém consistente).
				s.logger.Warn().Err(err).Msg("pendencias: atualização falhou")
			}
		}
	}
}

// Atualizar busca pendências, notas e processos abertos em paralelo e só
// publica a nova carga se as três chamadas tiverem sucesso. Atualizações
// concorrentes não são serializadas: vale a última escrita.
func (s *PendenciaService) Atualizar(ctx context.Context) error {
	ref := s.agora()

	var (
		ps      []pendencia.Pendencia
		notas   []pendencia.Nota
		abertos []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ps, err = s.fonte.FetchPendencias(gctx, ref)
		return err
	})
	g.Go(func() error {
		var err error
		notas, err = s.fonte.FetchNotas(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		abertos, err = s.fonte.FetchProcessosAbertos(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	snap := Snapshot{
		Pendencias:   pendencia.Enriquecer(ps, notas, abertos),
		Notas:        notas,
		Abertos:      abertos,
		AtualizadoEm: ref,
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.logger.Debug().Int("pendencias", len(ps)).Int("notas", len(notas)).Msg("pendencias: carga publicada")
	return nil
}

// Carga devolve a snapshot atual.
func (s *PendenciaService) Carga() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Listar aplica escopo de papel, filtros e ordenação sobre a carga atual.
func (s *PendenciaService) Listar(usuario acesso.Usuario, f pendencia.Filtro, campo string, descendente bool) ([]pendencia.Pendencia, time.Time) {
	snap := s.Carga()
	res := pendencia.Aplicar(snap.Pendencias, escopoDe(usuario, false), f)
	pendencia.Ordenar(res, campo, descendente)
	return res, snap.AtualizadoEm
}

// ListarAbertas devolve as pendências com processo em aberto. A visão é
// global: o escopo de unidade é suspenso de propósito.
func (s *PendenciaService) ListarAbertas(usuario acesso.Usuario, f pendencia.Filtro, campo string, descendente bool) ([]pendencia.Pendencia, time.Time) {
	snap := s.Carga()
	visiveis := pendencia.Aplicar(snap.Pendencias, escopoDe(usuario, true), f)

	res := visiveis[:0]
	for _, p := range visiveis {
		if p.ProcessoAberto {
			res = append(res, p)
		}
	}
	pendencia.Ordenar(res, campo, descendente)
	return res, snap.AtualizadoEm
}

// Detalhe devolve a pendência e o fio de notas dela.
func (s *PendenciaService) Detalhe(usuario acesso.Usuario, cte string) (pendencia.Pendencia, []pendencia.Nota, error) {
	snap := s.Carga()
	escopo := escopoDe(usuario, false)

	cte = strings.TrimSpace(cte)
	for _, p := range snap.Pendencias {
		if strings.TrimSpace(p.CTE) != cte {
			continue
		}
		// Visível em qualquer dos dois modos do usuário.
		destino := pendencia.Aplicar([]pendencia.Pendencia{p}, escopo, pendencia.Filtro{Modo: pendencia.ModoDestino})
		origem := pendencia.Aplicar([]pendencia.Pendencia{p}, escopo, pendencia.Filtro{Modo: pendencia.ModoOrigem})
		if len(destino) == 0 && len(origem) == 0 && !p.ProcessoAberto {
			return pendencia.Pendencia{}, nil, ErrPendenciaNaoEncontrada
		}
		return p, pendencia.NotasDoCTE(snap.Notas, cte), nil
	}
	return pendencia.Pendencia{}, nil, ErrPendenciaNaoEncontrada
}

// Notas devolve o fio de anotações de um CTE na carga atual.
func (s *PendenciaService) Notas(cte string) []pendencia.Nota {
	snap := s.Carga()
	return pendencia.NotasDoCTE(snap.Notas, cte)
}

// Estatisticas calcula os KPIs do painel sobre o conjunto filtrado.
func (s *PendenciaService) Estatisticas(usuario acesso.Usuario, f pendencia.Filtro) (pendencia.Estatisticas, time.Time) {
	snap := s.Carga()
	res := pendencia.Aplicar(snap.Pendencias, escopoDe(usuario, false), f)
	return pendencia.Calcular(res), snap.AtualizadoEm
}

// Cabeçalho do relatório exportado, na ordem das colunas.
var colunasExport = []string{
	"PROCESSO ABERTO?", "STATUS", "PAGAMENTO", "CTE", "SERIE", "CODIGO",
	"EMISSAO", "DATA LIMITE", "ORIGEM (COLETA)", "DESTINO (ENTREGA)",
	"DESTINATARIO", "VALOR", "JUSTIFICATIVA / ULTIMA NOTA",
}

// ExportarCSV produz o relatório das pendências visíveis, já filtradas, no
// mesmo dialeto do feed. A última nota do CTE substitui a justificativa.
func (s *PendenciaService) ExportarCSV(usuario acesso.Usuario, f pendencia.Filtro, campo string, descendente bool) []byte {
	res, _ := s.Listar(usuario, f, campo, descendente)
	snap := s.Carga()

	rows := make([][]string, 0, len(res)+1)
	rows = append(rows, colunasExport)
	for _, p := range res {
		obs := p.Justificativa
		// O feed de notas é somente-anexar: a última da lista é a mais nova.
		if notas := pendencia.NotasDoCTE(snap.Notas, p.CTE); len(notas) > 0 {
			ultima := notas[len(notas)-1]
			obs = fmt.Sprintf("[%s] %s: %s", ultima.Data, ultima.Autor, ultima.Texto)
		}

		aberto := "NAO"
		if p.ProcessoAberto {
			aberto = "SIM"
		}
		st := string(p.StatusCalculado)
		if p.StatusCalculado == pendencia.StatusVencida {
			st = "CRITICO"
		}

		rows = append(rows, []string{
			aberto, st, p.FretePago, p.CTE, p.Serie, p.Codigo,
			p.DataEmissao, p.DataLimiteBaixa, p.Coleta, p.Entrega,
			p.Destinatario, fmt.Sprintf("%.2f", p.ValorCTE), obs,
		})
	}
	return []byte(csvdec.Encode(rows))
}

// AdicionarNota grava uma anotação. Com uploader configurado, a imagem
// (base64) vira URL hospedada; sem uploader, o base64 segue para o script
// como no fluxo original. Dispara uma atualização para a nota aparecer na
// próxima leitura.
func (s *PendenciaService) AdicionarNota(ctx context.Context, usuario acesso.Usuario, nota pendencia.Nota, imagemBase64 string) error {
	nota.Autor = usuario.Username

	imagem := imagemBase64
	if imagemBase64 != "" {
		if url, err := s.hospedarImagem(ctx, nota.CTE, imagemBase64); err == nil {
			imagem = url
		} else if !errors.Is(err, storage.ErrSemUploader) {
			return err
		}
	}

	if err := s.fonte.AddNota(ctx, nota, imagem); err != nil {
		return err
	}
	s.recarregar(ctx)
	return nil
}

// AlternarProcesso liga/desliga a marcação de processo em aberto.
func (s *PendenciaService) AlternarProcesso(ctx context.Context, usuario acesso.Usuario, cte string, aberto bool) error {
	if err := s.fonte.ToggleProcesso(ctx, cte, aberto, usuario.Username); err != nil {
		return err
	}
	s.recarregar(ctx)
	return nil
}

func (s *PendenciaService) recarregar(ctx context.Context) {
	if err := s.Atualizar(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("pendencias: recarga pós-mutação falhou")
	}
}

func (s *PendenciaService) hospedarImagem(ctx context.Context, cte, imagemBase64 string) (string, error) {
	corpo, err := base64.StdEncoding.DecodeString(depurarBase64(imagemBase64))
	if err != nil {
		return "", fmt.Errorf("imagem base64 inválida: %w", err)
	}

	res, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         fmt.Sprintf("%s-%s.jpg", strings.TrimSpace(cte), uuid.NewString()),
		Body:        corpo,
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

// depurarBase64 descarta o prefixo data-URL, quando presente.
func depurarBase64(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}

func escopoDe(u acesso.Usuario, todasUnidades bool) pendencia.Escopo {
	if todasUnidades || !u.Papel.Escopado() {
		return pendencia.Escopo{TodasUnidades: true}
	}
	return pendencia.Escopo{
		UnidadeColeta:  u.UnidadeColeta,
		UnidadeEntrega: u.UnidadeEntrega,
	}
}
