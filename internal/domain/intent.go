package domain

import (
	"fmt"
	"time"
)

// 의도 레버리지 허용 범위
const (
	MinIntentLeverage = 1
	MaxIntentLeverage = 10
)

// TradeIntent는 상위 전략 계층이 생성한 매매 의도입니다
// 생성 이후에는 변경하지 않습니다
type TradeIntent struct {
	ID                     string    `json:"id"`
	Symbol                 string    `json:"symbol"`
	Action                 Action    `json:"-"`
	NotionalUSD            float64   `json:"notional_usd,omitempty"`
	CapitalFractionPercent float64   `json:"capital_fraction_pct,omitempty"`
	Leverage               int       `json:"leverage"`
	TakeProfitPrice        float64   `json:"take_profit_price,omitempty"`
	StopLossPrice          float64   `json:"stop_loss_price,omitempty"`
	LimitPrice             float64   `json:"limit_price,omitempty"`
	Confidence             float64   `json:"confidence"`
	CreatedAt              time.Time `json:"created_at"`
}

// SizeRequest는 원하는 노출 규모를 표현합니다
// NotionalUSD와 CapitalFraction 중 하나만 설정해야 합니다
type SizeRequest struct {
	NotionalUSD     float64 // 목표 명목 가치 (마진이 아님)
	CapitalFraction float64 // 가용 자본 대비 비율 (0~1)
}

// Size는 의도의 크기 요청을 반환합니다
func (t TradeIntent) Size() SizeRequest {
	return SizeRequest{
		NotionalUSD:     t.NotionalUSD,
		CapitalFraction: t.CapitalFractionPercent / 100,
	}
}

// HasProtection은 TP/SL 가격이 요청되었는지 확인합니다
func (t TradeIntent) HasProtection() bool {
	return t.TakeProfitPrice > 0 || t.StopLossPrice > 0
}

// Validate는 의도의 필드 조합을 검증합니다
func (t TradeIntent) Validate() error {
	if t.Action == Hold {
		return nil
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: 심볼이 비어 있습니다", ErrInvalidIntent)
	}
	if !t.Action.IsOpen() {
		return nil
	}
	if t.Leverage < MinIntentLeverage || t.Leverage > MaxIntentLeverage {
		return fmt.Errorf("%w: 레버리지는 %d 이상 %d 이하이어야 합니다 (%d)",
			ErrInvalidIntent, MinIntentLeverage, MaxIntentLeverage, t.Leverage)
	}
	hasNotional := t.NotionalUSD > 0
	hasFraction := t.CapitalFractionPercent > 0
	if hasNotional == hasFraction {
		return fmt.Errorf("%w: notional_usd와 capital_fraction_pct 중 하나만 지정해야 합니다", ErrInvalidIntent)
	}
	if t.CapitalFractionPercent > 100 {
		return fmt.Errorf("%w: capital_fraction_pct는 100 이하이어야 합니다 (%.2f)", ErrInvalidIntent, t.CapitalFractionPercent)
	}
	if t.NotionalUSD < 0 || t.CapitalFractionPercent < 0 || t.TakeProfitPrice < 0 || t.StopLossPrice < 0 || t.LimitPrice < 0 {
		return fmt.Errorf("%w: 음수 값은 허용되지 않습니다", ErrInvalidIntent)
	}
	if t.TakeProfitPrice > 0 && t.StopLossPrice > 0 {
		long := t.Action.Direction() == Long
		if (long && t.TakeProfitPrice <= t.StopLossPrice) || (!long && t.TakeProfitPrice >= t.StopLossPrice) {
			return fmt.Errorf("%w: %s 방향에 맞지 않는 익절가 %.8f / 손절가 %.8f",
				ErrInvalidIntent, t.Action.Direction(), t.TakeProfitPrice, t.StopLossPrice)
		}
	}
	return nil
}

// CheckProtection은 익절가와 손절가가 진입가 기준으로 방향에 맞는지 확인합니다
// 롱은 익절가 > 진입가 > 손절가, 숏은 그 반대여야 합니다
func (t TradeIntent) CheckProtection(entry float64) error {
	long := t.Action.Direction() == Long
	if tp := t.TakeProfitPrice; tp > 0 && ((long && tp <= entry) || (!long && tp >= entry)) {
		return fmt.Errorf("%w: %s 익절가 %.8f가 진입가 %.8f 기준으로 손실 방향입니다",
			ErrInvalidIntent, t.Action.Direction(), tp, entry)
	}
	if sl := t.StopLossPrice; sl > 0 && ((long && sl >= entry) || (!long && sl <= entry)) {
		return fmt.Errorf("%w: %s 손절가 %.8f가 진입가 %.8f 기준으로 이익 방향입니다",
			ErrInvalidIntent, t.Action.Direction(), sl, entry)
	}
	return nil
}
