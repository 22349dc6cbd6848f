package domain

import "fmt"

// InstrumentSpec는 심볼별 거래 규격을 나타냅니다
// 한 번의 갱신 주기 동안은 변경되지 않습니다
type InstrumentSpec struct {
	Symbol         string  `json:"symbol" yaml:"symbol"`                   // 심볼 (예: DOGE-USDT-SWAP)
	UnitMultiplier float64 `json:"unitMultiplier" yaml:"unit_multiplier"` // 1랏이 나타내는 기초자산 수량
	MinLots        float64 `json:"minLots" yaml:"min_lots"`               // 최소 주문 랏
	LotStep        float64 `json:"lotStep" yaml:"lot_step"`               // 랏 단위
	TickSize       float64 `json:"tickSize" yaml:"tick_size"`             // 가격 최소 단위
	PricePrecision int     `json:"pricePrecision" yaml:"price_precision"` // 가격 소수점 자릿수
}

// Validate는 규격 값이 사용 가능한지 확인합니다
func (s InstrumentSpec) Validate() error {
	switch {
	case s.Symbol == "":
		return fmt.Errorf("심볼이 비어 있습니다")
	case s.UnitMultiplier <= 0:
		return fmt.Errorf("%s: unitMultiplier는 0보다 커야 합니다 (%v)", s.Symbol, s.UnitMultiplier)
	case s.LotStep <= 0:
		return fmt.Errorf("%s: lotStep은 0보다 커야 합니다 (%v)", s.Symbol, s.LotStep)
	case s.MinLots < 0:
		return fmt.Errorf("%s: minLots는 음수일 수 없습니다 (%v)", s.Symbol, s.MinLots)
	case s.TickSize < 0 || s.PricePrecision < 0:
		return fmt.Errorf("%s: 가격 정밀도 설정이 잘못되었습니다", s.Symbol)
	}
	return nil
}
