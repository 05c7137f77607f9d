package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
)

type diretorioFake struct {
	usuarios []acesso.Usuario
	perfis   []acesso.Perfil
	err      error
	salvos   []acesso.Usuario
}

func (d *diretorioFake) FetchUsuarios(context.Context) ([]acesso.Usuario, error) {
	return d.usuarios, d.err
}

func (d *diretorioFake) FetchPerfis(context.Context) ([]acesso.Perfil, error) {
	return d.perfis, d.err
}

func (d *diretorioFake) SalvarUsuario(_ context.Context, u acesso.Usuario) error {
	d.salvos = append(d.salvos, u)
	return nil
}

type redisFake struct {
	dados map[string]string
}

func novoRedisFake() *redisFake {
	return &redisFake{dados: map[string]string{}}
}

func (f *redisFake) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.dados[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *redisFake) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.dados[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *redisFake) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.dados[k]; ok {
			delete(f.dados, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func novoAuthService(t *testing.T, dir *diretorioFake) (*AuthService, *redisFake) {
	t.Helper()
	rd := novoRedisFake()
	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)
	return NewAuthService(dir, rd, jwtMgr, time.Hour), rd
}

func hashDe(t *testing.T, senha string) string {
	t.Helper()
	h, err := auth.Hash(senha)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func TestLoginResolvePermissoesDoPerfil(t *testing.T) {
	dir := &diretorioFake{
		usuarios: []acesso.Usuario{{
			Username:       "filial.sp",
			Papel:          acesso.PapelUnidade,
			UnidadeEntrega: "SAO PAULO",
			Senha:          hashDe(t, "s3nh4"),
			Permissoes:     []string{acesso.PermBuscarCTE},
		}},
		perfis: []acesso.Perfil{{
			Nome:       "UNIDADE",
			Permissoes: []string{acesso.PermAdicionarNotas, acesso.PermBuscarCTE},
		}},
	}
	svc, rd := novoAuthService(t, dir)

	res, err := svc.Login(context.Background(), "FILIAL.SP", "s3nh4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatal("sessão sem tokens")
	}
	if res.Usuario.Senha != "" {
		t.Fatal("senha vazou na resposta")
	}
	if len(res.Usuario.Permissoes) != 2 {
		t.Fatalf("permissões = %v, esperava as do perfil UNIDADE", res.Usuario.Permissoes)
	}
	if len(rd.dados) != 1 {
		t.Fatalf("refresh tokens no redis = %d, esperava 1", len(rd.dados))
	}

	claims, err := svc.JWT().ParseAndValidate(res.AccessToken)
	if err != nil {
		t.Fatalf("token emitido não valida: %v", err)
	}
	if claims.Papel != string(acesso.PapelUnidade) || claims.UnidadeEntrega != "SAO PAULO" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginSenhaLegadaEmTextoClaro(t *testing.T) {
	dir := &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "antigo",
		Papel:    acesso.PapelLeitor,
		Senha:    "  legada  ",
	}}}
	svc, _ := novoAuthService(t, dir)

	if _, err := svc.Login(context.Background(), "antigo", "legada"); err != nil {
		t.Fatalf("senha legada deveria autenticar: %v", err)
	}
	if _, err := svc.Login(context.Background(), "antigo", "errada"); !errors.Is(err, ErrSenhaIncorreta) {
		t.Fatalf("err = %v, esperava ErrSenhaIncorreta", err)
	}
}

func TestLoginErros(t *testing.T) {
	svc, _ := novoAuthService(t, &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "alguem",
		Senha:    hashDe(t, "certa"),
	}}})

	if _, err := svc.Login(context.Background(), "ninguem", "x"); !errors.Is(err, ErrUsuarioNaoEncontrado) {
		t.Fatalf("err = %v, esperava ErrUsuarioNaoEncontrado", err)
	}
	if _, err := svc.Login(context.Background(), "alguem", "errada"); !errors.Is(err, ErrSenhaIncorreta) {
		t.Fatalf("err = %v, esperava ErrSenhaIncorreta", err)
	}

	svcOff, _ := novoAuthService(t, &diretorioFake{err: errors.New("planilha fora do ar")})
	if _, err := svcOff.Login(context.Background(), "alguem", "x"); !errors.Is(err, ErrConexao) {
		t.Fatalf("err = %v, esperava ErrConexao", err)
	}
}

func TestRefreshRotacionaToken(t *testing.T) {
	dir := &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "admin",
		Papel:    acesso.PapelAdmin,
		Senha:    hashDe(t, "s3nh4"),
	}}}
	svc, rd := novoAuthService(t, dir)

	sessao, err := svc.Login(context.Background(), "admin", "s3nh4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	renovada, err := svc.Refresh(context.Background(), sessao.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if renovada.RefreshToken == sessao.RefreshToken {
		t.Fatal("refresh token não foi rotacionado")
	}
	if len(rd.dados) != 1 {
		t.Fatalf("refresh tokens no redis = %d, esperava só o novo", len(rd.dados))
	}

	// O token antigo não vale mais.
	if _, err := svc.Refresh(context.Background(), sessao.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("err = %v, esperava ErrRefreshInvalid", err)
	}
}

func TestRefreshUsuarioRemovidoMataSessao(t *testing.T) {
	dir := &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "temporario",
		Papel:    acesso.PapelLeitor,
		Senha:    hashDe(t, "s3nh4"),
	}}}
	svc, rd := novoAuthService(t, dir)

	sessao, err := svc.Login(context.Background(), "temporario", "s3nh4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	dir.usuarios = nil
	if _, err := svc.Refresh(context.Background(), sessao.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("err = %v, esperava ErrRefreshInvalid", err)
	}
	if len(rd.dados) != 0 {
		t.Fatal("sessão do usuário removido continua no redis")
	}
}

func TestLogoutRevogaRefresh(t *testing.T) {
	dir := &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "admin",
		Papel:    acesso.PapelAdmin,
		Senha:    hashDe(t, "s3nh4"),
	}}}
	svc, rd := novoAuthService(t, dir)

	sessao, err := svc.Login(context.Background(), "admin", "s3nh4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), sessao.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(rd.dados) != 0 {
		t.Fatal("refresh token sobreviveu ao logout")
	}
}

func TestTrocarSenhaGravaHash(t *testing.T) {
	dir := &diretorioFake{usuarios: []acesso.Usuario{{
		Username: "filial.rj",
		Papel:    acesso.PapelUnidade,
		Senha:    "antiga-em-texto-claro",
	}}}
	svc, _ := novoAuthService(t, dir)

	if err := svc.TrocarSenha(context.Background(), "filial.rj", "nova123"); err != nil {
		t.Fatalf("trocar senha: %v", err)
	}
	if len(dir.salvos) != 1 {
		t.Fatalf("usuários salvos = %d", len(dir.salvos))
	}
	salvo := dir.salvos[0]
	ok, err := auth.Verify("nova123", salvo.Senha)
	if err != nil || !ok {
		t.Fatalf("senha gravada não confere (ok=%v err=%v)", ok, err)
	}
	if salvo.Senha == "nova123" {
		t.Fatal("senha foi gravada em texto claro")
	}
}
