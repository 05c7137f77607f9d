package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
)

// Audience única do painel; mantida nas claims e nas chaves de refresh.
const Audience = "painel"

var (
	// ErrUsuarioNaoEncontrado indica username ausente da aba de usuários.
	ErrUsuarioNaoEncontrado = errors.New("usuário não encontrado")
	// ErrSenhaIncorreta indica credencial inválida.
	ErrSenhaIncorreta = errors.New("senha incorreta")
	// ErrConexao indica falha ao alcançar a planilha remota.
	ErrConexao = errors.New("falha de conexão com a planilha")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

// diretorio é o subconjunto do cliente da planilha usado na autenticação.
type diretorio interface {
	FetchUsuarios(ctx context.Context) ([]acesso.Usuario, error)
	FetchPerfis(ctx context.Context) ([]acesso.Perfil, error)
	SalvarUsuario(ctx context.Context, u acesso.Usuario) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	dir        diretorio
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(dir diretorio, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{dir: dir, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	Usuario       acesso.Usuario
	RefreshExpiry time.Time
}

// Login autentica contra a aba de usuários e resolve o conjunto efetivo de
// permissões contra os perfis. As duas abas são buscadas em paralelo para
// que o login reflita perfis recém-editados.
func (s *AuthService) Login(ctx context.Context, username, senha string) (*LoginResult, error) {
	usuarios, perfis, err := s.carregarDiretorio(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("login: diretório indisponível")
		return nil, ErrConexao
	}

	usuario, ok := procurarUsuario(usuarios, username)
	if !ok {
		return nil, ErrUsuarioNaoEncontrado
	}

	confere, err := auth.Verify(senha, usuario.Senha)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrSenhaIncorreta
	}
	if !confere {
		return nil, ErrSenhaIncorreta
	}

	return s.emitirSessao(ctx, usuario, perfis)
}

// Refresh troca um refresh token válido por nova sessão, reavaliando papel e
// permissões no diretório (rotação: o token antigo é invalidado).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	redisKey := auth.RefreshRedisKey(Audience, hash)

	username, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	usuarios, perfis, err := s.carregarDiretorio(ctx)
	if err != nil {
		return nil, ErrConexao
	}
	usuario, ok := procurarUsuario(usuarios, username)
	if !ok {
		// Usuário removido da planilha: sessão morre junto.
		_ = s.redis.Del(ctx, redisKey).Err()
		return nil, ErrRefreshInvalid
	}

	result, err := s.emitirSessao(ctx, usuario, perfis)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}
	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(Audience, hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// TrocarSenha grava a nova senha (como hash Argon2id) de volta na linha do
// usuário, preservando papel, vínculos e permissões gravadas.
func (s *AuthService) TrocarSenha(ctx context.Context, username, novaSenha string) error {
	usuarios, err := s.dir.FetchUsuarios(ctx)
	if err != nil {
		return ErrConexao
	}
	usuario, ok := procurarUsuario(usuarios, username)
	if !ok {
		return ErrUsuarioNaoEncontrado
	}

	hash, err := auth.Hash(novaSenha)
	if err != nil {
		return err
	}
	usuario.Senha = hash
	return s.dir.SalvarUsuario(ctx, usuario)
}

func (s *AuthService) emitirSessao(ctx context.Context, usuario acesso.Usuario, perfis []acesso.Perfil) (*LoginResult, error) {
	usuario.Permissoes = acesso.ResolverPermissoes(usuario, perfis)
	usuario.Senha = ""

	claims := auth.Claims{
		Papel:          string(usuario.Papel),
		Permissoes:     usuario.Permissoes,
		UnidadeColeta:  usuario.UnidadeColeta,
		UnidadeEntrega: usuario.UnidadeEntrega,
	}
	token, _, err := s.jwt.GenerateAccessToken(usuario.Username, Audience, claims)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	key := auth.RefreshRedisKey(Audience, refreshHash)
	if err := s.redis.Set(ctx, key, usuario.Username, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Usuario:       usuario,
		RefreshExpiry: expires,
	}, nil
}

func (s *AuthService) carregarDiretorio(ctx context.Context) ([]acesso.Usuario, []acesso.Perfil, error) {
	var (
		usuarios []acesso.Usuario
		perfis   []acesso.Perfil
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		usuarios, err = s.dir.FetchUsuarios(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		perfis, err = s.dir.FetchPerfis(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return usuarios, perfis, nil
}

func procurarUsuario(usuarios []acesso.Usuario, username string) (acesso.Usuario, bool) {
	alvo := strings.ToLower(strings.TrimSpace(username))
	for _, u := range usuarios {
		if strings.ToLower(strings.TrimSpace(u.Username)) == alvo {
			return u, true
		}
	}
	return acesso.Usuario{}, false
}
