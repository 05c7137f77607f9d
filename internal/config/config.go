package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	CSVURL          string
	ScriptURL       string
	RedisURL        string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	JWTSecret       string
	AllowOrigins    []string
	RefreshInterval time.Duration
	RemoteTimeout   time.Duration
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	Storage         StorageConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig escolhe o destino das imagens anexadas às notas.
type StorageConfig struct {
	Provider    string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
	S3KeyPrefix string
}

// PlanilhaConfig é o subconjunto de configuração das ferramentas que só
// conversam com a planilha e não precisam de Redis nem de segredo de JWT.
type PlanilhaConfig struct {
	CSVURL        string
	ScriptURL     string
	RemoteTimeout time.Duration
}

// LoadPlanilha carrega apenas as variáveis de acesso à planilha.
func LoadPlanilha() (*PlanilhaConfig, error) {
	_ = godotenv.Load()
	return loadPlanilha()
}

func loadPlanilha() (*PlanilhaConfig, error) {
	p := &PlanilhaConfig{}

	p.CSVURL = getEnv("CSV_URL", "")
	if p.CSVURL == "" {
		return nil, errors.New("CSV_URL obrigatório")
	}

	p.ScriptURL = getEnv("SCRIPT_URL", "")
	if p.ScriptURL == "" {
		return nil, errors.New("SCRIPT_URL obrigatório")
	}

	remoteTimeout, err := parseDurationEnv("REMOTE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	p.RemoteTimeout = remoteTimeout

	return p, nil
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	pl, err := loadPlanilha()
	if err != nil {
		return nil, err
	}
	cfg.CSVURL = pl.CSVURL
	cfg.ScriptURL = pl.ScriptURL
	cfg.RemoteTimeout = pl.RemoteTimeout

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	interval, err := parseDurationEnv("REFRESH_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	if interval < time.Second {
		return nil, errors.New("REFRESH_INTERVAL muito curto")
	}
	cfg.RefreshInterval = interval

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	cfg.Storage = StorageConfig{
		Provider:    getEnv("STORAGE_PROVIDER", "noop"),
		S3Endpoint:  getEnv("STORAGE_S3_ENDPOINT", ""),
		S3Region:    getEnv("STORAGE_S3_REGION", "auto"),
		S3Bucket:    getEnv("STORAGE_S3_BUCKET", ""),
		S3AccessKey: getEnv("STORAGE_S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("STORAGE_S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("STORAGE_S3_PUBLIC_URL", ""),
		S3KeyPrefix: getEnv("STORAGE_S3_KEY_PREFIX", "notas"),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
