// Package planilha fala com os dois endpoints remotos que sustentam o
// painel: o CSV publicado com as pendências e o script de apoio (estilo
// Apps Script) que guarda notas, processos, usuários e perfis atrás de um
// único URL discriminado por `action`.
package planilha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config descreve os endereços remotos.
type Config struct {
	CSVURL     string
	ScriptURL  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client encapsula as chamadas aos dois endpoints.
type Client struct {
	httpClient *http.Client
	csvURL     string
	scriptURL  string
	agora      func() time.Time
}

// New valida a configuração e devolve o cliente pronto.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.CSVURL) == "" {
		return nil, errors.New("planilha: CSV_URL obrigatório")
	}
	if strings.TrimSpace(cfg.ScriptURL) == "" {
		return nil, errors.New("planilha: SCRIPT_URL obrigatório")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: client,
		csvURL:     cfg.CSVURL,
		scriptURL:  cfg.ScriptURL,
		agora:      time.Now,
	}, nil
}

// envelope é o formato de resposta das leituras do script.
type envelope struct {
	Success bool            `json:"success"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

// cacheBust acrescenta o parâmetro t= com o relógio atual em milissegundos,
// furando o cache do publicador.
func (c *Client) cacheBust(raw string, params map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("planilha: url inválida: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.agora().UnixMilli(), 10))
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) getScript(ctx context.Context, action string, params map[string]string) (*envelope, error) {
	if params == nil {
		params = map[string]string{}
	}
	params["action"] = action

	endpoint, err := c.cacheBust(c.scriptURL, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planilha: %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("planilha: %s: HTTP %d", action, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("planilha: %s: resposta inválida: %w", action, err)
	}
	return &env, nil
}

// postScript envia uma mutação. O script original tratava qualquer resposta
// como sucesso; aqui o status HTTP é verificado para não mascarar gravações
// perdidas.
func (c *Client) postScript(ctx context.Context, action string, payload map[string]any) error {
	body := map[string]any{"action": action}
	for k, v := range payload {
		body[k] = v
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scriptURL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("planilha: %s: %w", action, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("planilha: %s: HTTP %d", action, resp.StatusCode)
	}
	return nil
}

// Ping confirma que o script responde.
func (c *Client) Ping(ctx context.Context) error {
	env, err := c.getScript(ctx, "ping", nil)
	if err != nil {
		return err
	}
	if env.Status != "online" && !env.Success {
		return errors.New("planilha: script fora do ar")
	}
	return nil
}
