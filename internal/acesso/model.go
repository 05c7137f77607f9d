// Package acesso define papéis, usuários, perfis e o conjunto canônico de
// permissões do painel.
package acesso

// Papel classifica o alcance de um usuário.
type Papel string

const (
	PapelAdmin   Papel = "ADMIN"
	PapelUnidade Papel = "UNIDADE"
	PapelLeitor  Papel = "LEITOR"
	PapelCustom  Papel = "CUSTOM"
)

// Usuario é a identidade autenticada contra a planilha remota. As permissões
// aqui já estão normalizadas (ver NormalizarPermissoes) e, após o login,
// resolvidas contra os perfis.
type Usuario struct {
	Username       string   `json:"username"`
	Papel          Papel    `json:"role"`
	UnidadeColeta  string   `json:"linkedOriginUnit"`
	UnidadeEntrega string   `json:"linkedDestUnit"`
	Permissoes     []string `json:"permissions"`

	// Senha fica fora de qualquer resposta JSON.
	Senha string `json:"-"`
}

// Perfil é um pacote nomeado e reutilizável de permissões.
type Perfil struct {
	ID         string   `json:"id,omitempty"`
	Nome       string   `json:"name"`
	Descricao  string   `json:"description"`
	Permissoes []string `json:"permissions"`
}

// Chaves de permissão reconhecidas pelo painel.
const (
	PermVerTodasPendencias = "view_all_pendencias"
	PermVerUnidadeDestino  = "view_unit_dest"
	PermFiltrarPagamento   = "filter_payment"
	PermBuscarCTE          = "search_cte"
	PermAdicionarNotas     = "add_notes"
	PermUploadImagem       = "upload_image"
	PermExportarXLS        = "export_xls"
	PermVerDashboard       = "view_dashboard"
	PermGerenciarUsuarios  = "manage_users"
	PermGerenciarPerfis    = "manage_profiles"
	PermAcessarConfig      = "access_settings"
	PermVerCriticas        = "view_critical"
	PermReceberNotificacao = "receive_notifications"
	PermGerenciarProcessos = "manage_open_process"
)

// TodasPermissoes é o catálogo completo; ADMIN o recebe implicitamente.
var TodasPermissoes = []string{
	PermVerTodasPendencias,
	PermVerUnidadeDestino,
	PermFiltrarPagamento,
	PermBuscarCTE,
	PermAdicionarNotas,
	PermUploadImagem,
	PermExportarXLS,
	PermVerDashboard,
	PermGerenciarUsuarios,
	PermGerenciarPerfis,
	PermAcessarConfig,
	PermVerCriticas,
	PermReceberNotificacao,
	PermGerenciarProcessos,
}
