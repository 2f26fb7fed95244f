package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	StoreDriver string // postgres / memory

	DatabaseURL      string // あれば最優先
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	DBMaxOpenConns   int

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限
	AdminKey       string        // 登録時に管理者になるための合言葉（空なら無効）
	BcryptCost     int

	RedisURL         string // 空ならログイン試行制限なし
	LoginMaxAttempts int
	LoginWindow      time.Duration

	CORSAllowOrigins []string
	ShutdownTimeout  time.Duration
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	var errs []string

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		StoreDriver: getenv("STORE_DRIVER", "postgres"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "sweetshop"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		AdminKey:  os.Getenv("ADMIN_KEY"),

		RedisURL: os.Getenv("REDIS_URL"),

		CORSAllowOrigins: splitList(getenv("CORS_ALLOW_ORIGINS", "*")),
	}

	var err error
	if cfg.PostgresPort, err = atoiOr("POSTGRES_PORT", 5432); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.DBMaxOpenConns, err = atoiOr("DB_MAX_OPEN_CONNS", 25); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.BcryptCost, err = atoiOr("BCRYPT_COST", 12); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.LoginMaxAttempts, err = atoiOr("LOGIN_MAX_ATTEMPTS", 5); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.AccessTokenTTL, err = durationOr("ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.LoginWindow, err = durationOr("LOGIN_WINDOW", 15*time.Minute); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.ShutdownTimeout, err = durationOr("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err.Error())
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		errs = append(errs, "ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.LoginMaxAttempts < 1 {
		errs = append(errs, "LOGIN_MAX_ATTEMPTS must be >= 1")
	}
	switch cfg.StoreDriver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be postgres or memory, got %q", cfg.StoreDriver))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
