package acesso

import (
	"encoding/json"
	"strings"
)

// NormalizarPermissoes converte o campo de permissões vindo da planilha,
// que aparece ora como string JSON, ora como lista literal, em uma fatia
// canônica. Valores malformados degradam para conjunto vazio; nenhuma outra
// camada precisa conhecer a forma crua. Chamado uma única vez, na borda da
// busca remota.
func NormalizarPermissoes(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return limpar(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return limpar(out)
	case string:
		s := strings.TrimSpace(v)
		if !strings.HasPrefix(s, "[") {
			return nil
		}
		var parsed []string
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil
		}
		return limpar(parsed)
	default:
		return nil
	}
}

func limpar(perms []string) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TemPermissao verifica a chave contra o conjunto resolvido do usuário.
// ADMIN passa sempre, independentemente do que estiver gravado.
func (u Usuario) TemPermissao(chave string) bool {
	if u.Papel == PapelAdmin {
		return true
	}
	for _, p := range u.Permissoes {
		if p == chave {
			return true
		}
	}
	return false
}

// ResolverPermissoes aplica a regra de perfis: se existir um perfil com o
// nome do papel do usuário, vale o conjunto do perfil (dinâmico); senão vale
// o conjunto gravado na própria linha do usuário (legado). ADMIN recebe o
// catálogo inteiro.
func ResolverPermissoes(u Usuario, perfis []Perfil) []string {
	if u.Papel == PapelAdmin {
		return append([]string(nil), TodasPermissoes...)
	}
	for _, perfil := range perfis {
		if strings.EqualFold(perfil.Nome, string(u.Papel)) {
			return append([]string(nil), perfil.Permissoes...)
		}
	}
	return append([]string(nil), u.Permissoes...)
}

// Escopado indica se o papel restringe a visão à unidade vinculada.
func (p Papel) Escopado() bool {
	return p == PapelUnidade
}
