package risk

import "fmt"

// Limits는 계정 단위 리스크 한도입니다
// 비율 값은 모두 퍼센트(0~100) 단위입니다
type Limits struct {
	MinAvailableMargin   float64 // 가용 마진 하한 (USDT)
	MaxTotalExposurePct  float64 // 총 자산 대비 전체 사용 마진 상한 (%)
	MaxSymbolExposurePct float64 // 총 자산 대비 심볼별 사용 마진 상한 (%)
	MaxOpenPositions     int     // 동시 보유 포지션 수 상한
	MaxLeverage          int     // 레버리지 상한
	MaxOrderFractionPct  float64 // 가용 마진 대비 단일 주문 마진 상한 (%)
}

// Validate는 한도 설정이 올바른지 확인합니다
func (l Limits) Validate() error {
	switch {
	case l.MinAvailableMargin < 0:
		return fmt.Errorf("가용 마진 하한은 음수일 수 없습니다")
	case l.MaxTotalExposurePct <= 0 || l.MaxTotalExposurePct > 100:
		return fmt.Errorf("전체 노출 한도는 0 초과 100 이하이어야 합니다 (%.2f)", l.MaxTotalExposurePct)
	case l.MaxSymbolExposurePct <= 0 || l.MaxSymbolExposurePct > 100:
		return fmt.Errorf("심볼 노출 한도는 0 초과 100 이하이어야 합니다 (%.2f)", l.MaxSymbolExposurePct)
	case l.MaxOpenPositions < 1:
		return fmt.Errorf("최대 포지션 수는 1 이상이어야 합니다 (%d)", l.MaxOpenPositions)
	case l.MaxLeverage < 1 || l.MaxLeverage > 10:
		return fmt.Errorf("레버리지 상한은 1 이상 10 이하이어야 합니다 (%d)", l.MaxLeverage)
	case l.MaxOrderFractionPct <= 0 || l.MaxOrderFractionPct > 100:
		return fmt.Errorf("단일 주문 비율 한도는 0 초과 100 이하이어야 합니다 (%.2f)", l.MaxOrderFractionPct)
	}
	return nil
}
