package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// S3Config parametriza o destino dos anexos em um endpoint S3/R2.
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	KeyPrefix    string
	PublicDomain string
	HTTPClient   *http.Client
}

// S3Uploader envia anexos via PUT assinado com SigV4.
type S3Uploader struct {
	cfg    S3Config
	client *http.Client
	agora  func() time.Time
}

// NewS3Uploader valida a configuração e devolve o uploader.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &S3Uploader{cfg: cfg, client: client, agora: time.Now}, nil
}

// Upload grava o blob sob o prefixo configurado e devolve a URL pública
// (domínio público quando definido, senão a URL do bucket).
func (u *S3Uploader) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if strings.TrimSpace(input.Key) == "" {
		return UploadResult{}, errors.New("storage: chave do objeto obrigatória")
	}
	if len(input.Body) == 0 {
		return UploadResult{}, errors.New("storage: corpo vazio")
	}

	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := strings.TrimLeft(input.Key, "/")
	if prefix := strings.Trim(u.cfg.KeyPrefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}

	endpoint := strings.TrimRight(u.cfg.Endpoint, "/")
	escapedKey := (&url.URL{Path: key}).EscapedPath()
	targetURL := fmt.Sprintf("%s/%s/%s", endpoint, u.cfg.Bucket, escapedKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, targetURL, bytes.NewReader(input.Body))
	if err != nil {
		return UploadResult{}, err
	}

	payloadHash := sha256.Sum256(input.Body)
	payloadHex := hex.EncodeToString(payloadHash[:])

	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(input.Body))
	if strings.TrimSpace(input.CacheControl) != "" {
		req.Header.Set("Cache-Control", input.CacheControl)
	}
	req.Header.Set("x-amz-content-sha256", payloadHex)
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(input.Body)))

	assinarSigV4(req, u.cfg, payloadHex, u.agora().UTC())

	resp, err := u.client.Do(req)
	if err != nil {
		return UploadResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return UploadResult{}, fmt.Errorf("storage: upload falhou (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	publicURL := targetURL
	if strings.TrimSpace(u.cfg.PublicDomain) != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(u.cfg.PublicDomain, "/"), escapedKey)
	}

	return UploadResult{
		URL:  publicURL,
		ETag: strings.Trim(resp.Header.Get("ETag"), "\""),
	}, nil
}

func (cfg S3Config) validate() error {
	switch {
	case strings.TrimSpace(cfg.Endpoint) == "":
		return errors.New("storage: endpoint do S3 ausente")
	case strings.TrimSpace(cfg.Region) == "":
		return errors.New("storage: região do S3 ausente")
	case strings.TrimSpace(cfg.Bucket) == "":
		return errors.New("storage: bucket do S3 ausente")
	case strings.TrimSpace(cfg.AccessKey) == "":
		return errors.New("storage: access key ausente")
	case strings.TrimSpace(cfg.SecretKey) == "":
		return errors.New("storage: secret key ausente")
	case !strings.HasPrefix(cfg.Endpoint, "http://") && !strings.HasPrefix(cfg.Endpoint, "https://"):
		return errors.New("storage: endpoint deve incluir protocolo http/https")
	}
	return nil
}
