package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
)

// Tipos de notificação exibidos no sino do painel.
const (
	NotifVencida  = "OVERDUE"
	NotifProcesso = "OPEN_PROCESS"
	NotifNota     = "NEW_NOTE"
)

// Notificacao é um aviso derivado da carga atual. O ID é determinístico
// (tipo + chave do registro) para que a dispensa sobreviva às recargas.
type Notificacao struct {
	ID    string `json:"id"`
	Tipo  string `json:"tipo"`
	CTE   string `json:"cte"`
	Texto string `json:"texto"`
}

// redisSets é o subconjunto de comandos usado para registrar dispensas.
type redisSets interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// NotificacaoService projeta avisos por usuário sobre a carga em memória e
// guarda as dispensas em um conjunto no Redis.
type NotificacaoService struct {
	pendencias *PendenciaService
	redis      redisSets
	ttl        time.Duration
}

func NewNotificacaoService(pendencias *PendenciaService, redis redisSets, ttl time.Duration) *NotificacaoService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &NotificacaoService{pendencias: pendencias, redis: redis, ttl: ttl}
}

func chaveDispensadas(username string) string {
	return fmt.Sprintf("notif:dispensadas:%s", strings.ToLower(strings.TrimSpace(username)))
}

// Listar gera os avisos do usuário, descontando os já dispensados. Vencidos
// e notas novas respeitam o escopo de unidade; processos em aberto alertam
// independentemente dele.
func (s *NotificacaoService) Listar(ctx context.Context, usuario acesso.Usuario) ([]Notificacao, error) {
	snap := s.pendencias.Carga()
	visiveis := visiveisPara(snap.Pendencias, usuario)

	dispensadas, err := s.redis.SMembers(ctx, chaveDispensadas(usuario.Username)).Result()
	if err != nil {
		return nil, err
	}
	ocultas := make(map[string]struct{}, len(dispensadas))
	for _, id := range dispensadas {
		ocultas[id] = struct{}{}
	}

	avisos := make([]Notificacao, 0)
	emitir := func(n Notificacao) {
		if _, ok := ocultas[n.ID]; !ok {
			avisos = append(avisos, n)
		}
	}

	// Avisos de nota nova só vão para quem trabalha o registro (ADMIN e
	// UNIDADE); LEITOR acompanha prazos e processos, não a conversa.
	notificaNotas := usuario.Papel == acesso.PapelAdmin || usuario.Papel == acesso.PapelUnidade

	for _, p := range visiveis {
		if p.StatusCalculado == pendencia.StatusVencida {
			emitir(Notificacao{
				ID:    fmt.Sprintf("%s:%s", NotifVencida, p.CTE),
				Tipo:  NotifVencida,
				CTE:   p.CTE,
				Texto: fmt.Sprintf("CTE %s venceu em %s", p.CTE, p.DataLimiteBaixa),
			})
		}
		if !notificaNotas {
			continue
		}
		for _, n := range pendencia.NotasDoCTE(snap.Notas, p.CTE) {
			if strings.EqualFold(strings.TrimSpace(n.Autor), usuario.Username) {
				continue
			}
			emitir(Notificacao{
				ID:    fmt.Sprintf("%s:%s:%s", NotifNota, p.CTE, n.ID),
				Tipo:  NotifNota,
				CTE:   p.CTE,
				Texto: fmt.Sprintf("%s anotou no CTE %s", n.Autor, p.CTE),
			})
		}
	}

	// Processo em aberto alerta todo mundo, fora do escopo de unidade; a
	// busca é um esforço coletivo entre as filiais.
	for _, p := range snap.Pendencias {
		if !p.ProcessoAberto {
			continue
		}
		emitir(Notificacao{
			ID:    fmt.Sprintf("%s:%s", NotifProcesso, p.CTE),
			Tipo:  NotifProcesso,
			CTE:   p.CTE,
			Texto: fmt.Sprintf("CTE %s está com processo em aberto", p.CTE),
		})
	}
	return avisos, nil
}

// Dispensar marca avisos como lidos para o usuário.
func (s *NotificacaoService) Dispensar(ctx context.Context, usuario acesso.Usuario, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return nil
	}

	key := chaveDispensadas(usuario.Username)
	if err := s.redis.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	// Renova a janela a cada dispensa; o conjunto some sozinho depois.
	return s.redis.Expire(ctx, key, s.ttl).Err()
}

// visiveisPara aplica o escopo de papel sem nenhum filtro de tela, somando
// os dois modos de um usuário UNIDADE (coleta e entrega).
func visiveisPara(ps []pendencia.Pendencia, u acesso.Usuario) []pendencia.Pendencia {
	escopo := escopoDe(u, false)
	if escopo.TodasUnidades {
		return ps
	}
	destino := pendencia.Aplicar(ps, escopo, pendencia.Filtro{Modo: pendencia.ModoDestino})
	origem := pendencia.Aplicar(ps, escopo, pendencia.Filtro{Modo: pendencia.ModoOrigem})

	vistos := make(map[string]struct{}, len(destino))
	out := make([]pendencia.Pendencia, 0, len(destino)+len(origem))
	for _, p := range destino {
		vistos[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range origem {
		if _, ok := vistos[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}
