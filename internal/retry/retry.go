// Package retry는 읽기 전용 조회에 사용하는 제한된 재시도를 제공합니다
// 주문 제출에는 사용하지 않습니다 (중복 체결 위험)
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/assist-by/sentinel/internal/logger"
)

// Config는 재시도 설정을 정의합니다
type Config struct {
	MaxRetries int           // 최대 재시도 횟수
	BaseDelay  time.Duration // 기본 대기 시간
	MaxDelay   time.Duration // 최대 대기 시간
	Factor     float64       // 대기 시간 증가 계수
}

// DefaultConfig는 기본 재시도 설정을 반환합니다
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Factor:     2.0,
	}
}

// Do는 fn을 실행하고 retryable이 true를 반환하는 에러에 한해 재시도합니다
func Do(ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// 재시도 가능한 오류인지 확인
		if retryable != nil && !retryable(err) {
			return err
		}

		if attempt == cfg.MaxRetries {
			break
		}

		logger.Warnf("%s 실패 (attempt %d/%d): %v", operation, attempt+1, cfg.MaxRetries, err)

		// 다음 재시도 전 대기
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Factor)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("%s 실패 (최대 재시도 횟수 초과): %w", operation, lastErr)
}

// Value는 값을 반환하는 함수에 Do를 적용합니다
func Value[T any](ctx context.Context, cfg Config, operation string, retryable func(error) bool, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := Do(ctx, cfg, operation, retryable, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
