package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/config"
	httpmiddleware "github.com/decexpressosaoluiz-blip/sle-pendencias/internal/http/middleware"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/planilha"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"
)

// Handler reúne as dependências das rotas do painel.
type Handler struct {
	cfg           *config.Config
	redis         *redis.Client
	planilha      *planilha.Client
	authService   *service.AuthService
	pendencias    *service.PendenciaService
	cadastro      *service.CadastroService
	notificacoes  *service.NotificacaoService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// Services agrupa os serviços construídos no main; o ciclo de vida do
// poller de pendências fica fora do roteador.
type Services struct {
	Auth         *service.AuthService
	Pendencias   *service.PendenciaService
	Cadastro     *service.CadastroService
	Notificacoes *service.NotificacaoService
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, redisClient *redis.Client, planilhaClient *planilha.Client, svcs Services) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	h := &Handler{
		cfg:           cfg,
		redis:         redisClient,
		planilha:      planilhaClient,
		authService:   svcs.Auth,
		pendencias:    svcs.Pendencias,
		cadastro:      svcs.Cadastro,
		notificacoes:  svcs.Notificacoes,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(svcs.Auth.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Put("/me/senha", h.TrocarSenha)

		private.Post("/atualizar", h.Atualizar)

		private.Route("/pendencias", func(p chi.Router) {
			p.Get("/", h.ListarPendencias)
			p.With(httpmiddleware.RequirePermissao(acesso.PermGerenciarProcessos)).
				Get("/abertas", h.ListarAbertas)
			p.With(httpmiddleware.RequirePainelGerencial, httpmiddleware.RequirePermissao(acesso.PermVerDashboard)).
				Get("/stats", h.Estatisticas)
			p.With(httpmiddleware.RequirePermissao(acesso.PermExportarXLS)).
				Get("/export", h.Exportar)
			p.Get("/{cte}", h.DetalhePendencia)
		})

		private.Get("/notas", h.ListarNotas)
		private.With(httpmiddleware.RequirePermissao(acesso.PermAdicionarNotas)).
			Post("/notas", h.AdicionarNota)
		private.With(httpmiddleware.RequirePermissao(acesso.PermGerenciarProcessos)).
			Post("/processos/{cte}", h.AlternarProcesso)

		private.Route("/usuarios", func(u chi.Router) {
			u.Use(httpmiddleware.RequirePermissao(acesso.PermGerenciarUsuarios))
			u.Get("/", h.ListarUsuarios)
			u.Post("/", h.SalvarUsuario)
			u.Delete("/{username}", h.ExcluirUsuario)
		})

		private.Route("/perfis", func(p chi.Router) {
			p.Use(httpmiddleware.RequirePermissao(acesso.PermGerenciarPerfis))
			p.Get("/", h.ListarPerfis)
			p.Post("/", h.SalvarPerfil)
			p.Delete("/{nome}", h.ExcluirPerfil)
		})

		private.Route("/notificacoes", func(n chi.Router) {
			n.Use(httpmiddleware.RequirePermissao(acesso.PermReceberNotificacao))
			n.Get("/", h.ListarNotificacoes)
			n.Post("/dispensar", h.DispensarNotificacoes)
		})
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Redis e com o script da planilha.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	redisErr := h.redis.Ping(ctx).Err()
	scriptErr := h.planilha.Ping(ctx)

	status := http.StatusOK
	if redisErr != nil || scriptErr != nil {
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, map[string]any{
		"redis":    statusTexto(redisErr),
		"planilha": statusTexto(scriptErr),
	})
}

func statusTexto(err error) string {
	if err != nil {
		return "down"
	}
	return "ok"
}
