package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/margin"
	"github.com/assist-by/sentinel/internal/retry"
	"github.com/assist-by/sentinel/internal/risk"
)

type Config struct {
	// OKX API 설정
	Venue struct {
		APIKey         string        `envconfig:"OKX_API_KEY"`
		SecretKey      string        `envconfig:"OKX_SECRET_KEY"`
		Passphrase     string        `envconfig:"OKX_PASSPHRASE"`
		BaseURL        string        `envconfig:"OKX_BASE_URL" default:"https://www.okx.com"`
		DemoTrading    bool          `envconfig:"OKX_DEMO_TRADING" default:"true"`
		RequestTimeout time.Duration `envconfig:"OKX_REQUEST_TIMEOUT" default:"10s"`
		RequestsPerSec float64       `envconfig:"OKX_REQUESTS_PER_SEC" default:"10"`
	}

	// 거래 설정
	// 수수료율과 안전 버퍼는 기본값 없이 반드시 지정해야 합니다
	Trading struct {
		MarginMode      string  `envconfig:"MARGIN_MODE" default:"cross"`
		QuoteCurrency   string  `envconfig:"QUOTE_CURRENCY" default:"USDT"`
		TakerFeeRate    float64 `envconfig:"TAKER_FEE_RATE" required:"true"`
		SafetyBufferPct float64 `envconfig:"SAFETY_BUFFER_PCT" required:"true"`
		CancelOnClose   bool    `envconfig:"CANCEL_CONDITIONALS_ON_CLOSE" default:"true"`
		MaxConcurrency  int     `envconfig:"MAX_CONCURRENT_SYMBOLS" default:"4"`
	}

	// 리스크 한도 (비율은 % 단위)
	Risk struct {
		MinAvailableMargin   float64 `envconfig:"RISK_MIN_AVAILABLE_MARGIN" default:"10"`
		MaxTotalExposurePct  float64 `envconfig:"RISK_MAX_TOTAL_EXPOSURE_PCT" default:"60"`
		MaxSymbolExposurePct float64 `envconfig:"RISK_MAX_SYMBOL_EXPOSURE_PCT" default:"25"`
		MaxOpenPositions     int     `envconfig:"RISK_MAX_OPEN_POSITIONS" default:"5"`
		MaxLeverage          int     `envconfig:"RISK_MAX_LEVERAGE" default:"10"`
		MaxOrderFractionPct  float64 `envconfig:"RISK_MAX_ORDER_FRACTION_PCT" default:"50"`
	}

	// 읽기 전용 조회 재시도 설정
	Retry struct {
		MaxRetries int           `envconfig:"RETRY_MAX_RETRIES" default:"3"`
		BaseDelay  time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`
		MaxDelay   time.Duration `envconfig:"RETRY_MAX_DELAY" default:"5s"`
		Factor     float64       `envconfig:"RETRY_FACTOR" default:"2"`
	}

	// 심볼 규격 카탈로그 설정
	Catalog struct {
		RefreshInterval time.Duration `envconfig:"CATALOG_REFRESH_INTERVAL" default:"1h"`
		InstrumentsFile string        `envconfig:"CATALOG_INSTRUMENTS_FILE"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 전송하지 않음)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
		MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if !domain.MarginMode(cfg.Trading.MarginMode).Valid() {
		return fmt.Errorf("MARGIN_MODE는 cross 또는 isolated이어야 합니다 (%s)", cfg.Trading.MarginMode)
	}

	if cfg.Trading.TakerFeeRate < 0 || cfg.Trading.TakerFeeRate >= 0.01 {
		return fmt.Errorf("TAKER_FEE_RATE는 0 이상 0.01 미만이어야 합니다 (%v)", cfg.Trading.TakerFeeRate)
	}

	if cfg.Trading.SafetyBufferPct < 0 || cfg.Trading.SafetyBufferPct >= 1 {
		return fmt.Errorf("SAFETY_BUFFER_PCT는 0 이상 1 미만이어야 합니다 (%v)", cfg.Trading.SafetyBufferPct)
	}

	if err := cfg.RiskLimits().Validate(); err != nil {
		return err
	}

	if cfg.Retry.MaxRetries < 0 || cfg.Retry.Factor < 1 {
		return fmt.Errorf("재시도 설정이 잘못되었습니다 (횟수: %d, 계수: %v)", cfg.Retry.MaxRetries, cfg.Retry.Factor)
	}

	if cfg.Catalog.RefreshInterval < time.Minute {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL은 1분 이상이어야 합니다")
	}

	if cfg.Venue.RequestTimeout <= 0 {
		return fmt.Errorf("OKX_REQUEST_TIMEOUT은 0보다 커야 합니다")
	}

	return nil
}

// ValidateCredentials는 주문에 필요한 API 인증 정보가 있는지 확인합니다
func (c *Config) ValidateCredentials() error {
	if c.Venue.APIKey == "" || c.Venue.SecretKey == "" || c.Venue.Passphrase == "" {
		return errors.New("OKX_API_KEY, OKX_SECRET_KEY, OKX_PASSPHRASE가 필요합니다")
	}
	return nil
}

// RiskLimits는 리스크 한도 설정을 반환합니다
func (c *Config) RiskLimits() risk.Limits {
	return risk.Limits{
		MinAvailableMargin:   c.Risk.MinAvailableMargin,
		MaxTotalExposurePct:  c.Risk.MaxTotalExposurePct,
		MaxSymbolExposurePct: c.Risk.MaxSymbolExposurePct,
		MaxOpenPositions:     c.Risk.MaxOpenPositions,
		MaxLeverage:          c.Risk.MaxLeverage,
		MaxOrderFractionPct:  c.Risk.MaxOrderFractionPct,
	}
}

// FeeSchedule은 수수료 설정을 반환합니다
func (c *Config) FeeSchedule() margin.FeeSchedule {
	return margin.FeeSchedule{
		TakerFeeRate:    c.Trading.TakerFeeRate,
		SafetyBufferPct: c.Trading.SafetyBufferPct,
	}
}

// RetryConfig는 재시도 설정을 반환합니다
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
		Factor:     c.Retry.Factor,
	}
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// SENTINEL_ENV_FILE이 지정되면 해당 파일이 반드시 있어야 하고, 아니면 .env는 선택입니다
func LoadConfig() (*Config, error) {
	// .env 파일 로드
	if path := os.Getenv("SENTINEL_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("%s 파일 로드 실패: %w", path, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
