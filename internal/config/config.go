// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Host          string // 待ち受けホスト
	Port          string // APIサーバーのポート番号
	GinMode       string // Ginの実行モード (debug, release, test)
	AllowedOrigin string // CORS許可オリジン
	LogLevel      string // slog のログレベル (debug, info, warn, error)

	// データベース設定
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	DBMaxConns int // コネクションプールの最大接続数

	// 認証設定
	EncodingKey        string // トークン署名用の秘密鍵（必須）
	TokenLifetimeHours int    // トークンの有効期限（時間）
	BcryptCost         int    // bcrypt のコスト

	// ログイン試行制限
	LoginMaxAttempts   int    // 0 で無効
	LoginWindowMinutes int    // 失敗回数を数える期間（分）
	LoginLockMinutes   int    // ロック時間（分）
	RedisURL           string // 空の場合はプロセス内で管理
}

// Load は環境変数から設定を読み込みます。
// .env.local / .env ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Host:          getEnv("HOST", "127.0.0.1"),
		Port:          getEnv("PORT", "6002"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DBUser:     getEnv("DB_USER", ""),
		DBPass:     getEnv("DB_PASS", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),
		DBMaxConns: getEnvAsInt("DB_MAX_CONNS", 10),

		EncodingKey:        getEnv("ENCODING_KEY", ""),
		TokenLifetimeHours: getEnvAsInt("TOKEN_LIFETIME_HOURS", 48),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", 10),

		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", 15),
		LoginLockMinutes:   getEnvAsInt("LOGIN_LOCK_MINUTES", 10),
		RedisURL:           getEnv("REDIS_URL", ""),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err == nil {
			return
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(filepath.Join(parent, name)); err == nil {
			return
		}
	}
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"ENCODING_KEY", c.EncodingKey},
		{"DB_USER", c.DBUser},
		{"DB_PASS", c.DBPass},
		{"DB_HOST", c.DBHost},
		{"DB_PORT", c.DBPort},
		{"DB_NAME", c.DBName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	if c.TokenLifetimeHours <= 0 {
		return fmt.Errorf("TOKEN_LIFETIME_HOURS must be positive")
	}
	if c.LoginMaxAttempts < 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must not be negative")
	}
	// 試行制限が有効な場合のみ期間とロック時間を検証する
	if c.LoginMaxAttempts > 0 {
		if c.LoginWindowMinutes <= 0 {
			return fmt.Errorf("LOGIN_WINDOW_MINUTES must be positive")
		}
		if c.LoginLockMinutes <= 0 {
			return fmt.Errorf("LOGIN_LOCK_MINUTES must be positive")
		}
	}

	return nil
}

// Addr は待ち受けアドレス (host:port) を返します。
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DatabaseURL は PostgreSQL の接続URLを組み立てます。
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.DBUser, c.DBPass),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// TokenLifetime はトークンの有効期限を返します。
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.TokenLifetimeHours) * time.Hour
}

// LoginWindow は失敗回数を数える期間を返します。
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

// LoginLock はロック時間を返します。
func (c *Config) LoginLock() time.Duration {
	return time.Duration(c.LoginLockMinutes) * time.Minute
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
