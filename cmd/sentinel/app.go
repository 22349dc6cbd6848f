package main

import (
	"fmt"

	"github.com/assist-by/sentinel/internal/config"
	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange/okx"
	"github.com/assist-by/sentinel/internal/execution"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/logger"
	"github.com/assist-by/sentinel/internal/margin"
	"github.com/assist-by/sentinel/internal/monitoring"
	"github.com/assist-by/sentinel/internal/notification"
	"github.com/assist-by/sentinel/internal/notification/discord"
	"github.com/assist-by/sentinel/internal/position"
	"github.com/assist-by/sentinel/internal/risk"
)

// app은 설정에서 조립된 구성 요소 묶음입니다
type app struct {
	cfg         *config.Config
	client      *okx.Client
	notifier    notification.Notifier
	metrics     *monitoring.Metrics
	catalog     *instrument.Catalog
	calculator  *margin.Calculator
	validator   *risk.Validator
	reconciler  *position.Reconciler
	coordinator *execution.Coordinator
}

// newApp은 설정을 로드하고 구성 요소를 조립합니다
// instrumentsFile이 지정되면 거래소 대신 YAML 파일에서 심볼 규격을 읽습니다
func newApp(instrumentsFile string) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.App.LogLevel)

	a := &app{cfg: cfg}

	// OKX 클라이언트 생성
	a.client = okx.NewClient(
		cfg.Venue.APIKey,
		cfg.Venue.SecretKey,
		cfg.Venue.Passphrase,
		okx.WithBaseURL(cfg.Venue.BaseURL),
		okx.WithTimeout(cfg.Venue.RequestTimeout),
		okx.WithDemoTrading(cfg.Venue.DemoTrading),
		okx.WithRateLimit(cfg.Venue.RequestsPerSec, max(1, int(cfg.Venue.RequestsPerSec))),
		okx.WithQuoteCurrency(cfg.Trading.QuoteCurrency),
	)

	// 알림 설정 (웹훅이 없으면 전송하지 않음)
	a.notifier = notification.Nop{}
	if cfg.Discord.TradeWebhook != "" || cfg.Discord.ErrorWebhook != "" || cfg.Discord.InfoWebhook != "" {
		a.notifier = discord.NewClient(cfg.Discord.TradeWebhook, cfg.Discord.ErrorWebhook, cfg.Discord.InfoWebhook)
	}

	a.metrics = monitoring.NewMetrics(nil)

	// 심볼 규격 카탈로그
	if instrumentsFile == "" {
		instrumentsFile = cfg.Catalog.InstrumentsFile
	}
	var source instrument.Source = a.client
	if instrumentsFile != "" {
		source = instrument.FileSource{Path: instrumentsFile}
	}
	a.catalog = instrument.NewCatalog(source)

	a.calculator = margin.NewCalculator(a.catalog, cfg.FeeSchedule())
	a.validator = risk.NewValidator(cfg.RiskLimits(), a.catalog)
	a.reconciler = position.NewReconciler(a.client, cfg.RetryConfig())

	a.coordinator, err = execution.NewCoordinator(execution.Deps{
		Venue:      a.client,
		Catalog:    a.catalog,
		Calculator: a.calculator,
		Validator:  a.validator,
		Reconciler: a.reconciler,
		Notifier:   a.notifier,
		Metrics:    a.metrics,
	}, execution.Settings{
		MarginMode:           domain.MarginMode(cfg.Trading.MarginMode),
		Retry:                cfg.RetryConfig(),
		MaxConcurrentSymbols: cfg.Trading.MaxConcurrency,
		CancelStaleOnClose:   cfg.Trading.CancelOnClose,
	})
	if err != nil {
		return nil, fmt.Errorf("실행기 생성 실패: %w", err)
	}

	return a, nil
}
