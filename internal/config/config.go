// Package config загружает конфигурацию бэкенда из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"resumeai"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"resumeai"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Tokens ---
	// Бесплатные токены при регистрации и бонус пригласившему.
	TokensSignupGrant   int64 `envconfig:"TOKENS_SIGNUP_GRANT" default:"10"`
	TokensReferralBonus int64 `envconfig:"TOKENS_REFERRAL_BONUS" default:"5"`

	// Стоимость платных AI-операций в токенах.
	CostResumeCheck    int64 `envconfig:"COST_RESUME_CHECK" default:"2"`
	CostRoadmap        int64 `envconfig:"COST_ROADMAP" default:"3"`
	CostFakeDetection  int64 `envconfig:"COST_FAKE_DETECTION" default:"3"`
	CostSectionImprove int64 `envconfig:"COST_SECTION_IMPROVE" default:"1"`
	CostExtraction     int64 `envconfig:"COST_EXTRACTION" default:"1"`

	// --- Gemini ---
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-pro"`

	// --- Object storage (R2/S3) ---
	R2AccountID string `envconfig:"R2_ACCOUNT_ID" required:"true"`
	R2Bucket    string `envconfig:"R2_BUCKET" required:"true"`
	R2AccessKey string `envconfig:"R2_ACCESS_KEY" required:"true"`
	R2SecretKey string `envconfig:"R2_SECRET_KEY" required:"true"`

	// --- Jobs ---
	// Как часто повторять зависшие возвраты (cron-формат).
	RefundRetrySchedule string `envconfig:"REFUND_RETRY_SCHEDULE" default:"*/5 * * * *"`
	// Когда начислять токены по подпискам.
	SubscriptionGrantSchedule string `envconfig:"SUBSCRIPTION_GRANT_SCHEDULE" default:"0 3 * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if c.TokensSignupGrant < 0 || c.TokensReferralBonus < 0 {
		return fmt.Errorf("TOKENS_SIGNUP_GRANT и TOKENS_REFERRAL_BONUS не могут быть отрицательными")
	}
	if c.CostResumeCheck <= 0 || c.CostRoadmap <= 0 || c.CostFakeDetection <= 0 ||
		c.CostSectionImprove <= 0 || c.CostExtraction <= 0 {
		return fmt.Errorf("стоимость каждой платной операции должна быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
