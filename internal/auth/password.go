package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id (inclui os parâmetros dentro do próprio hash).
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o valor gravado na aba de usuários. Linhas já
// migradas guardam um hash Argon2id; as demais ainda guardam a senha em
// claro (limitação herdada da planilha), comparadas em tempo constante.
func Verify(password, stored string) (bool, error) {
	if strings.HasPrefix(stored, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(password, stored)
	}
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}
