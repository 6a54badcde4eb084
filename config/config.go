package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Config armazena todas as configurações do serviço de ajustes de estoque.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr string
	CacheTTL  time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Alertas de estoque: uma variante com estoque <= LowStockThreshold gera alerta de estoque baixo.
	LowStockThreshold int
}

// defaults espelha os valores padrão documentados no .env.example.
var defaults = map[string]interface{}{
	"PORT":                    "8080",
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"DB_TIMEOUT_SEC":          5,
	"REDIS_ADDR":              "localhost:6379",
	"CACHE_TTL_SEC":           300,
	"JWT_EXPIRY_MIN":          60,
	"RATE_LIMIT_MAX_REQUESTS": 100,
	"RATE_LIMIT_PERIOD_MIN":   1,
	"LOW_STOCK_THRESHOLD":     5,
}

// required lista as variáveis sem as quais o serviço não deve iniciar.
var required = []string{"DATABASE_URL", "JWT_SECRET_KEY"}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// O .env (se existir) já deve ter sido carregado pelo godotenv no main.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("a variável de ambiente %s deve ser definida", key)
		}
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBTimeout:   time.Duration(positiveInt(v, "DB_TIMEOUT_SEC")) * time.Second,

		RedisAddr: v.GetString("REDIS_ADDR"),
		CacheTTL:  time.Duration(positiveInt(v, "CACHE_TTL_SEC")) * time.Second,

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  time.Duration(positiveInt(v, "JWT_EXPIRY_MIN")) * time.Minute,

		RateLimitMaxRequests: positiveInt(v, "RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      time.Duration(positiveInt(v, "RATE_LIMIT_PERIOD_MIN")) * time.Minute,

		LowStockThreshold: intOrDefault(v, "LOW_STOCK_THRESHOLD", 0),
	}

	return cfg, nil
}

// positiveInt lê um inteiro positivo; valores inválidos ou <= 0 caem no padrão.
func positiveInt(v *viper.Viper, key string) int {
	return intOrDefault(v, key, 1)
}

// intOrDefault lê um inteiro >= floor. Valores não numéricos ou abaixo de floor caem no padrão.
func intOrDefault(v *viper.Viper, key string, floor int) int {
	value, err := cast.ToIntE(v.Get(key))
	if err != nil || value < floor {
		return defaults[key].(int)
	}
	return value
}
