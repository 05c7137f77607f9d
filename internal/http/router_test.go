package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/auth"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/config"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/planilha"
	"github.com/decexpressosaoluiz-blip/sle-pendencias/internal/service"

	"github.com/rs/zerolog"
)

type redisStub struct {
	dados map[string]string
	sets  map[string]map[string]struct{}
}

func novoRedisStub() *redisStub {
	return &redisStub{
		dados: map[string]string{},
		sets:  map[string]map[string]struct{}{},
	}
}

func (s *redisStub) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	s.dados[key] = fmt.Sprint(value)
	return goredis.NewStatusResult("OK", nil)
}

func (s *redisStub) Get(_ context.Context, key string) *goredis.StringCmd {
	v, ok := s.dados[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (s *redisStub) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := s.dados[k]; ok {
			delete(s.dados, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (s *redisStub) SAdd(_ context.Context, key string, members ...interface{}) *goredis.IntCmd {
	set, ok := s.sets[key]
	if !ok {
		set = map[string]struct{}{}
		s.sets[key] = set
	}
	for _, m := range members {
		set[fmt.Sprint(m)] = struct{}{}
	}
	return goredis.NewIntResult(int64(len(members)), nil)
}

func (s *redisStub) SMembers(_ context.Context, key string) *goredis.StringSliceCmd {
	var out []string
	for m := range s.sets[key] {
		out = append(out, m)
	}
	return goredis.NewStringSliceResult(out, nil)
}

func (s *redisStub) Expire(_ context.Context, _ string, _ time.Duration) *goredis.BoolCmd {
	return goredis.NewBoolResult(true, nil)
}

// remotoFake simula o CSV publicado e o script da planilha em um único
// servidor de teste.
func remotoFake(t *testing.T, senhaHash string) *httptest.Server {
	t.Helper()

	csv := strings.Join([]string{
		"CTE,SERIE,CODIGO,EMISSAO,PRAZO,DATA LIMITE,SITUACAO,COLETA,ENTREGA,VALOR,TX,VOL,PESO,FRETE,DESTINATARIO,JUSTIFICATIVA",
		`1001,1,C1,10/01/2025,5,10/01/2030,EM ABERTO,campinas,sao paulo,"1.250,50","10,00",2,"12,5",CIF,ACME LTDA,`,
		`1002,1,C2,10/01/2025,5,10/01/2030,EM ABERTO,rio,santos,"80,00","5,00",1,"2,0",FOB,BETA SA,`,
	}, "\n")

	mux := http.NewServeMux()
	mux.HandleFunc("/csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, csv)
	})
	mux.HandleFunc("/script", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"success":true}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "ping":
			fmt.Fprint(w, `{"success":true,"status":"online"}`)
		case "getUsers":
			fmt.Fprintf(w, `{"success":true,"data":[
				{"username":"admin","password":%q,"role":"ADMIN"},
				{"username":"filial.sp","password":%q,"role":"UNIDADE","linkedDestUnit":"SAO PAULO","permissions":"[\"search_cte\"]"}
			]}`, senhaHash, senhaHash)
		case "getProfiles":
			fmt.Fprint(w, `{"success":true,"data":[]}`)
		case "getNotes":
			fmt.Fprint(w, `{"success":true,"data":[{"id":"n1","cte":"1001","autor":"admin","texto":"ok","data":"11/01/2025"}]}`)
		case "getProcessStatus":
			fmt.Fprint(w, `{"success":true,"data":["1002"]}`)
		default:
			http.Error(w, "acao desconhecida", http.StatusBadRequest)
		}
	})
	return httptest.NewServer(mux)
}

type ambiente struct {
	api    *httptest.Server
	remoto *httptest.Server
}

func novoAmbiente(t *testing.T) *ambiente {
	t.Helper()

	senhaHash, err := auth.Hash("s3nh4")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	remoto := remotoFake(t, senhaHash)

	cliente, err := planilha.New(planilha.Config{
		CSVURL:     remoto.URL + "/csv",
		ScriptURL:  remoto.URL + "/script",
		HTTPClient: remoto.Client(),
	})
	if err != nil {
		t.Fatalf("planilha: %v", err)
	}

	rd := novoRedisStub()
	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)

	authSvc := service.NewAuthService(cliente, rd, jwtMgr, time.Hour)
	pendSvc := service.NewPendenciaService(cliente, nil, time.Minute, zerolog.Nop())
	if err := pendSvc.Atualizar(context.Background()); err != nil {
		t.Fatalf("carga inicial: %v", err)
	}

	cfg := &config.Config{
		AllowOrigins:    []string{"http://localhost:5173"},
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}

	router := NewRouter(cfg, goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), cliente, Services{
		Auth:         authSvc,
		Pendencias:   pendSvc,
		Cadastro:     service.NewCadastroService(cliente),
		Notificacoes: service.NewNotificacaoService(pendSvc, rd, time.Hour),
	})

	api := httptest.NewServer(router)
	t.Cleanup(func() {
		api.Close()
		remoto.Close()
	})
	return &ambiente{api: api, remoto: remoto}
}

func (a *ambiente) login(t *testing.T, username string) (string, []*http.Cookie) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"senha":"s3nh4"}`, username)
	resp, err := http.Post(a.api.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login de %s: HTTP %d", username, resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("login: resposta inválida: %v", err)
	}
	if envelope.Data.AccessToken == "" {
		t.Fatal("login sem access_token")
	}
	return envelope.Data.AccessToken, resp.Cookies()
}

func (a *ambiente) get(t *testing.T, token, path string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, a.api.URL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func TestLoginEmiteCookieDeRefresh(t *testing.T) {
	amb := novoAmbiente(t)

	_, cookies := amb.login(t, "admin")
	for _, c := range cookies {
		if c.Name == "painel" && c.Value != "" && c.HttpOnly {
			return
		}
	}
	t.Fatal("cookie httpOnly de refresh ausente")
}

func TestLoginSenhaErrada(t *testing.T) {
	amb := novoAmbiente(t)

	resp, err := http.Post(amb.api.URL+"/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","senha":"errada"}`))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("HTTP %d, esperava 401", resp.StatusCode)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if envelope.Error.Code != "WRONG_PASSWORD" {
		t.Fatalf("code = %q", envelope.Error.Code)
	}
}

func TestPendenciasExigemToken(t *testing.T) {
	amb := novoAmbiente(t)

	resp := amb.get(t, "", "/pendencias")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("HTTP %d, esperava 401", resp.StatusCode)
	}
}

func TestListaEscopadaPorPapel(t *testing.T) {
	amb := novoAmbiente(t)

	adminToken, _ := amb.login(t, "admin")
	resp := amb.get(t, adminToken, "/pendencias")
	defer resp.Body.Close()

	var adminBody struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&adminBody); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if adminBody.Data.Total != 2 {
		t.Fatalf("admin vê %d, esperava 2", adminBody.Data.Total)
	}

	unidadeToken, _ := amb.login(t, "filial.sp")
	respU := amb.get(t, unidadeToken, "/pendencias")
	defer respU.Body.Close()

	var unidadeBody struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	if err := json.NewDecoder(respU.Body).Decode(&unidadeBody); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if unidadeBody.Data.Total != 1 {
		t.Fatalf("unidade vê %d, esperava 1", unidadeBody.Data.Total)
	}
}

func TestPermissoesBloqueiamRotas(t *testing.T) {
	amb := novoAmbiente(t)
	unidadeToken, _ := amb.login(t, "filial.sp")

	casos := []string{"/pendencias/stats", "/usuarios", "/perfis", "/pendencias/export"}
	for _, rota := range casos {
		resp := amb.get(t, unidadeToken, rota)
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s: HTTP %d, esperava 403", rota, resp.StatusCode)
		}
	}

	adminToken, _ := amb.login(t, "admin")
	for _, rota := range casos {
		resp := amb.get(t, adminToken, rota)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s (admin): HTTP %d, esperava 200", rota, resp.StatusCode)
		}
	}
}

func TestRefreshRotacionaCookie(t *testing.T) {
	amb := novoAmbiente(t)
	_, cookies := amb.login(t, "admin")

	req, _ := http.NewRequest(http.MethodPost, amb.api.URL+"/auth/refresh", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("HTTP %d, esperava 200", resp.StatusCode)
	}

	var antigo string
	for _, c := range cookies {
		if c.Name == "painel" {
			antigo = c.Value
		}
	}
	for _, c := range resp.Cookies() {
		if c.Name == "painel" && c.Value != "" && c.Value != antigo {
			return
		}
	}
	t.Fatal("cookie de refresh não foi rotacionado")
}

func TestMeDevolveUsuarioDasClaims(t *testing.T) {
	amb := novoAmbiente(t)
	token, _ := amb.login(t, "filial.sp")

	resp := amb.get(t, token, "/me")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("HTTP %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			User struct {
				Username string `json:"username"`
				Papel    string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("resposta inválida: %v", err)
	}
	if body.Data.User.Username != "filial.sp" || body.Data.User.Papel != "UNIDADE" {
		t.Fatalf("user = %+v", body.Data.User)
	}
}

func TestExportEntregaCSV(t *testing.T) {
	amb := novoAmbiente(t)
	token, _ := amb.login(t, "admin")

	resp := amb.get(t, token, "/pendencias/export")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
}
