package planilha

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/acesso"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/pendencia"
)

// FetchNotas busca as anotações; cte vazio devolve todas.
func (c *Client) FetchNotas(ctx context.Context, cte string) ([]pendencia.Nota, error) {
	params := map[string]string{}
	if cte != "" {
		params["cte"] = cte
	}

	env, err := c.getScript(ctx, "getNotes", params)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("planilha: getNotes sem sucesso")
	}

	var notas []pendencia.Nota
	if err := json.Unmarshal(env.Data, &notas); err != nil {
		return nil, fmt.Errorf("planilha: getNotes: %w", err)
	}
	for i := range notas {
		notas[i].CTE = strings.TrimSpace(notas[i].CTE)
		notas[i].Serie = strings.TrimSpace(notas[i].Serie)
	}
	return notas, nil
}

// FetchProcessosAbertos devolve o conjunto de CTEs marcados como em busca.
func (c *Client) FetchProcessosAbertos(ctx context.Context) ([]string, error) {
	env, err := c.getScript(ctx, "getProcessStatus", nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("planilha: getProcessStatus sem sucesso")
	}

	var brutos []any
	if err := json.Unmarshal(env.Data, &brutos); err != nil {
		return nil, fmt.Errorf("planilha: getProcessStatus: %w", err)
	}
	ctes := make([]string, 0, len(brutos))
	for _, item := range brutos {
		ctes = append(ctes, strings.TrimSpace(fmt.Sprint(item)))
	}
	return ctes, nil
}

// FetchUsuarios lê a aba de usuários. As chaves chegam com caixa
// inconsistente e o campo de permissões ora é string JSON, ora lista; tudo é
// normalizado aqui, na borda. Linhas de cabeçalho refletidas como dado são
// filtradas.
func (c *Client) FetchUsuarios(ctx context.Context) ([]acesso.Usuario, error) {
	env, err := c.getScript(ctx, "getUsers", nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("planilha: getUsers sem sucesso")
	}

	var brutos []map[string]any
	if err := json.Unmarshal(env.Data, &brutos); err != nil {
		return nil, fmt.Errorf("planilha: getUsers: %w", err)
	}

	usuarios := make([]acesso.Usuario, 0, len(brutos))
	for _, linha := range brutos {
		m := chavesMinusculas(linha)

		username := texto(m["username"])
		switch strings.ToLower(username) {
		case "", "username", "user":
			continue
		}

		papel := acesso.Papel(strings.ToUpper(texto(m["role"])))
		if papel == "" {
			papel = acesso.PapelUnidade
		}

		usuarios = append(usuarios, acesso.Usuario{
			Username:       username,
			Senha:          texto(m["password"]),
			Papel:          papel,
			UnidadeColeta:  strings.ToUpper(strings.TrimSpace(texto(m["linkedoriginunit"]))),
			UnidadeEntrega: strings.ToUpper(strings.TrimSpace(texto(m["linkeddestunit"]))),
			Permissoes:     acesso.NormalizarPermissoes(m["permissions"]),
		})
	}
	return usuarios, nil
}

// FetchPerfis lê os pacotes de permissão nomeados.
func (c *Client) FetchPerfis(ctx context.Context) ([]acesso.Perfil, error) {
	env, err := c.getScript(ctx, "getProfiles", nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("planilha: getProfiles sem sucesso")
	}

	var brutos []map[string]any
	if err := json.Unmarshal(env.Data, &brutos); err != nil {
		return nil, fmt.Errorf("planilha: getProfiles: %w", err)
	}

	perfis := make([]acesso.Perfil, 0, len(brutos))
	for _, linha := range brutos {
		m := chavesMinusculas(linha)

		nome := texto(m["name"])
		if nome == "" {
			nome = texto(m["profilename"])
		}
		id := texto(m["id"])
		if nome == "" || strings.EqualFold(nome, "name") || id == "ID" {
			continue
		}

		perfis = append(perfis, acesso.Perfil{
			ID:         id,
			Nome:       nome,
			Descricao:  texto(m["description"]),
			Permissoes: acesso.NormalizarPermissoes(m["permissions"]),
		})
	}
	return perfis, nil
}

// AddNota registra uma anotação; imagem é uma URL já hospedada ou base64
// repassado ao script, conforme o uploader configurado.
func (c *Client) AddNota(ctx context.Context, nota pendencia.Nota, imagem string) error {
	return c.postScript(ctx, "addNote", map[string]any{
		"cte":    strings.TrimSpace(nota.CTE),
		"serie":  strings.TrimSpace(nota.Serie),
		"codigo": nota.Codigo,
		"autor":  nota.Autor,
		"texto":  nota.Texto,
		"image":  imagem,
	})
}

// ToggleProcesso liga ou desliga a marcação de processo em aberto.
func (c *Client) ToggleProcesso(ctx context.Context, cte string, aberto bool, usuario string) error {
	return c.postScript(ctx, "toggleProcess", map[string]any{
		"cte":    strings.TrimSpace(cte),
		"status": aberto,
		"user":   usuario,
	})
}

// SalvarUsuario cria ou atualiza a linha do usuário. Permissões vão como
// string JSON, formato que a aba espera.
func (c *Client) SalvarUsuario(ctx context.Context, u acesso.Usuario) error {
	perms, err := json.Marshal(u.Permissoes)
	if err != nil {
		return err
	}
	return c.postScript(ctx, "saveUser", map[string]any{
		"username":         u.Username,
		"password":         u.Senha,
		"role":             string(u.Papel),
		"linkedOriginUnit": u.UnidadeColeta,
		"linkedDestUnit":   u.UnidadeEntrega,
		"permissions":      string(perms),
	})
}

// ExcluirUsuario remove a linha do usuário.
func (c *Client) ExcluirUsuario(ctx context.Context, username string) error {
	return c.postScript(ctx, "deleteUser", map[string]any{"username": username})
}

// SalvarPerfil cria ou atualiza um perfil.
func (c *Client) SalvarPerfil(ctx context.Context, p acesso.Perfil) error {
	perms, err := json.Marshal(p.Permissoes)
	if err != nil {
		return err
	}
	return c.postScript(ctx, "saveProfile", map[string]any{
		"id":          p.ID,
		"name":        p.Nome,
		"profileName": p.Nome, // chave redundante exigida pelo script
		"description": p.Descricao,
		"permissions": string(perms),
	})
}

// ExcluirPerfil remove um perfil pelo nome.
func (c *Client) ExcluirPerfil(ctx context.Context, nome string) error {
	return c.postScript(ctx, "deleteProfile", map[string]any{"name": nome})
}

func chavesMinusculas(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func texto(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
