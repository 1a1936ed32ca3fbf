// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, клиенты внешних сервисов,
// репозитории, сервисы и планировщик фоновых задач.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"resumeai.app/backend/internal/config"
	"resumeai.app/backend/internal/db/postgres"
	"resumeai.app/backend/internal/features/analysis"
	"resumeai.app/backend/internal/features/business"
	"resumeai.app/backend/internal/features/resumes"
	"resumeai.app/backend/internal/features/subscriptions"
	"resumeai.app/backend/internal/features/tokens"
	"resumeai.app/backend/internal/features/users"
	"resumeai.app/backend/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Users         *users.Service
	Tokens        *tokens.Ledger
	Resumes       *resumes.Service
	Analysis      *analysis.Service
	Business      *business.Service
	Subscriptions *subscriptions.Service
	Scheduler     *jobs.Scheduler
	DB            *pgxpool.Pool
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Внешние сервисы ===
	gemini, err := analysis.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента Gemini: %w", err)
	}

	storage, err := resumes.NewR2Storage(ctx, cfg.R2AccountID, cfg.R2Bucket, cfg.R2AccessKey, cfg.R2SecretKey)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента R2: %w", err)
	}

	// === 3. Токен-леджер ===
	ledger := tokens.NewLedger(tokens.NewRepository(pool), cfg.TokensSignupGrant)
	meter := tokens.NewMeter(ledger)

	// === 4. Репозитории ===
	userRepo := users.NewRepository(pool)
	resumeRepo := resumes.NewRepository(pool)
	analysisRepo := analysis.NewRepository(pool)
	businessRepo := business.NewRepository(pool)
	subscriptionRepo := subscriptions.NewRepository(pool)

	// === 5. Сервисы ===
	userService := users.NewService(userRepo, ledger, cfg.TokensReferralBonus)
	resumeService := resumes.NewService(resumeRepo, storage, meter, cfg.CostExtraction)
	analysisService := analysis.NewService(analysisRepo, gemini, meter, resumeService, analysis.Costs{
		ResumeCheck:    cfg.CostResumeCheck,
		Roadmap:        cfg.CostRoadmap,
		FakeDetection:  cfg.CostFakeDetection,
		SectionImprove: cfg.CostSectionImprove,
	})
	businessService := business.NewService(businessRepo)
	subscriptionService := subscriptions.NewService(subscriptionRepo, ledger)

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(ledger, subscriptionService)

	log.Info("Приложение инициализировано")
	return &App{
		Users:         userService,
		Tokens:        ledger,
		Resumes:       resumeService,
		Analysis:      analysisService,
		Business:      businessService,
		Subscriptions: subscriptionService,
		Scheduler:     scheduler,
		DB:            pool,
	}, nil
}

// runMigrations выполняет все SQL-миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return postgres.Apply(ctx, pool, []postgres.Migration{
		{Version: 1, SQL: migration001Users},
		{Version: 2, SQL: migration002Tokens},
		{Version: 3, SQL: migration003Resumes},
		{Version: 4, SQL: migration004Analysis},
		{Version: 5, SQL: migration005Business},
		{Version: 6, SQL: migration006Subscriptions},
	})
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    name VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    referral_code VARCHAR(16) UNIQUE NOT NULL,
    is_active BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code);
`

var migration002Tokens = `
CREATE TABLE IF NOT EXISTS token_balances (
    user_id UUID PRIMARY KEY REFERENCES users(id),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS token_transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    kind VARCHAR(32) NOT NULL,
    amount BIGINT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_token_transactions_user_id ON token_transactions(user_id, id DESC);
CREATE TABLE IF NOT EXISTS refund_queue (
    id BIGSERIAL PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    amount BIGINT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    metadata JSONB NOT NULL DEFAULT '{}',
    attempts INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
`

var migration003Resumes = `
CREATE TABLE IF NOT EXISTS resumes (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    file_name VARCHAR(255) NOT NULL,
    file_key VARCHAR(512) NOT NULL,
    mime_type VARCHAR(128) NOT NULL,
    raw_text TEXT NOT NULL DEFAULT '',
    ats_score INT,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_resumes_user_id ON resumes(user_id);
`

var migration004Analysis = `
CREATE TABLE IF NOT EXISTS resume_checks (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    resume_id UUID NOT NULL REFERENCES resumes(id),
    payload JSONB NOT NULL,
    tokens_used BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_resume_checks_user_id ON resume_checks(user_id);
CREATE TABLE IF NOT EXISTS roadmaps (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    payload JSONB NOT NULL,
    tokens_used BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_roadmaps_user_id ON roadmaps(user_id);
CREATE TABLE IF NOT EXISTS fake_detections (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    resume_id UUID NOT NULL REFERENCES resumes(id),
    payload JSONB NOT NULL,
    tokens_used BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
`

var migration005Business = `
CREATE TABLE IF NOT EXISTS business_connections (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    company_name VARCHAR(255) NOT NULL,
    contact_person VARCHAR(255) NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    phone VARCHAR(64) NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_business_connections_user_id ON business_connections(user_id);
`

var migration006Subscriptions = `
CREATE TABLE IF NOT EXISTS subscriptions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    plan VARCHAR(32) NOT NULL,
    tokens_per_month BIGINT NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    next_grant_at TIMESTAMPTZ NOT NULL,
    started_at TIMESTAMPTZ DEFAULT NOW(),
    cancelled_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_active_user
    ON subscriptions(user_id) WHERE active;
CREATE INDEX IF NOT EXISTS idx_subscriptions_next_grant
    ON subscriptions(next_grant_at) WHERE active;
`
