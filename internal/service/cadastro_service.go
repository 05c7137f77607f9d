package service

import (
	"context"
	"errors"
	"strings"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
)

// Erros de validação do cadastro.
var (
	ErrUsernameObrigatorio = errors.New("username obrigatório")
	ErrSenhaObrigatoria    = errors.New("senha obrigatória para usuário novo")
	ErrNomePerfilInvalido  = errors.New("nome de perfil obrigatório")
)

// cadastroRemoto cobre as operações de escrita do diretório na planilha.
type cadastroRemoto interface {
	FetchUsuarios(ctx context.Context) ([]acesso.Usuario, error)
	FetchPerfis(ctx context.Context) ([]acesso.Perfil, error)
	SalvarUsuario(ctx context.Context, u acesso.Usuario) error
	ExcluirUsuario(ctx context.Context, username string) error
	SalvarPerfil(ctx context.Context, p acesso.Perfil) error
	ExcluirPerfil(ctx context.Context, nome string) error
}

// CadastroService administra usuários e perfis. Toda escrita vai direto ao
// script remoto; a planilha continua sendo a fonte da verdade.
type CadastroService struct {
	remoto cadastroRemoto
}

func NewCadastroService(remoto cadastroRemoto) *CadastroService {
	return &CadastroService{remoto: remoto}
}

// ListarUsuarios devolve o diretório sem o campo de senha.
func (s *CadastroService) ListarUsuarios(ctx context.Context) ([]acesso.Usuario, error) {
	usuarios, err := s.remoto.FetchUsuarios(ctx)
	if err != nil {
		return nil, err
	}
	for i := range usuarios {
		usuarios[i].Senha = ""
	}
	return usuarios, nil
}

// SalvarUsuario cria ou substitui um usuário. Senha nova em texto claro é
// convertida em hash argon2id antes de sair do processo; senha vazia em
// edição preserva a credencial existente.
func (s *CadastroService) SalvarUsuario(ctx context.Context, u acesso.Usuario) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return ErrUsernameObrigatorio
	}
	if u.Papel == "" {
		u.Papel = acesso.PapelUnidade
	}

	existentes, err := s.remoto.FetchUsuarios(ctx)
	if err != nil {
		return err
	}
	var atual *acesso.Usuario
	for i := range existentes {
		if strings.EqualFold(existentes[i].Username, u.Username) {
			atual = &existentes[i]
			break
		}
	}

	switch {
	case u.Senha == "" && atual == nil:
		return ErrSenhaObrigatoria
	case u.Senha == "":
		u.Senha = atual.Senha
	case !strings.HasPrefix(u.Senha, "$argon2id$"):
		hash, err := auth.Hash(u.Senha)
		if err != nil {
			return err
		}
		u.Senha = hash
	}

	return s.remoto.SalvarUsuario(ctx, u)
}

// ExcluirUsuario remove o usuário do diretório. Sessões de refresh dele
// morrem na próxima rotação, quando o diretório não o encontra mais.
func (s *CadastroService) ExcluirUsuario(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameObrigatorio
	}
	return s.remoto.ExcluirUsuario(ctx, username)
}

// ListarPerfis devolve os pacotes de permissões cadastrados.
func (s *CadastroService) ListarPerfis(ctx context.Context) ([]acesso.Perfil, error) {
	return s.remoto.FetchPerfis(ctx)
}

// SalvarPerfil cria ou substitui um perfil, filtrando chaves desconhecidas.
func (s *CadastroService) SalvarPerfil(ctx context.Context, p acesso.Perfil) error {
	p.Nome = strings.TrimSpace(p.Nome)
	if p.Nome == "" {
		return ErrNomePerfilInvalido
	}

	conhecidas := make(map[string]struct{}, len(acesso.TodasPermissoes))
	for _, chave := range acesso.TodasPermissoes {
		conhecidas[chave] = struct{}{}
	}
	filtradas := make([]string, 0, len(p.Permissoes))
	for _, chave := range p.Permissoes {
		if _, ok := conhecidas[chave]; ok {
			filtradas = append(filtradas, chave)
		}
	}
	p.Permissoes = filtradas

	return s.remoto.SalvarPerfil(ctx, p)
}

// ExcluirPerfil remove o perfil. Usuários que o referenciavam voltam ao
// conjunto legado de permissões gravado na própria linha.
func (s *CadastroService) ExcluirPerfil(ctx context.Context, nome string) error {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return ErrNomePerfilInvalido
	}
	return s.remoto.ExcluirPerfil(ctx, nome)
}
