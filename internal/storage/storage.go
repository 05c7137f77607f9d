// Package storage hospeda os anexos de imagem das anotações em um bucket
// compatível com S3. Sem bucket configurado, o painel segue funcionando e
// repassa a imagem em base64 ao script remoto.
package storage

import (
	"context"
	"errors"
)

// ErrSemUploader sinaliza que nenhum backend de armazenamento foi
// configurado. Chamadores tratam como degradação, não como falha.
var ErrSemUploader = errors.New("storage: uploader não configurado")

// UploadInput descreve um blob a persistir.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult aponta para o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader armazena blobs e devolve a URL pública.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (UploadResult, error)
}

// NoopUploader é o padrão quando STORAGE_PROVIDER=noop.
type NoopUploader struct{}

func (NoopUploader) Upload(context.Context, UploadInput) (UploadResult, error) {
	return UploadResult{}, ErrSemUploader
}
