package instrument

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/assist-by/sentinel/internal/domain"
)

// 랏/명목 가치 변환은 이 파일에만 존재합니다
// 다른 패키지는 반드시 아래 함수를 통해 변환해야 합니다

func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// floorToStep은 value를 step의 배수로 내림합니다
func floorToStep(value, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return value
	}
	return value.Div(step).Floor().Mul(step)
}

// LotsToNotional은 랏 수량을 명목 가치로 변환합니다
// notional = lots × unitMultiplier × price
func LotsToNotional(spec domain.InstrumentSpec, lots, price float64) float64 {
	return toFloat(LotsToNotionalDecimal(spec, lots, price))
}

// LotsToNotionalDecimal은 LotsToNotional의 decimal 버전입니다
func LotsToNotionalDecimal(spec domain.InstrumentSpec, lots, price float64) decimal.Decimal {
	return dec(lots).Mul(dec(spec.UnitMultiplier)).Mul(dec(price))
}

// NotionalToLots는 명목 가치를 랏 단위로 내림한 수량으로 변환합니다
// lots = floor_to_lot_step(notional / (price × unitMultiplier))
func NotionalToLots(spec domain.InstrumentSpec, notional, price float64) float64 {
	if price <= 0 || spec.UnitMultiplier <= 0 || notional <= 0 {
		return 0
	}
	perLot := dec(price).Mul(dec(spec.UnitMultiplier))
	raw := dec(notional).DivRound(perLot, 16)
	return toFloat(floorToStep(raw, dec(spec.LotStep)))
}

// QuantizeLots는 임의의 랏 수량을 랏 단위로 내림합니다
func QuantizeLots(spec domain.InstrumentSpec, lots float64) float64 {
	if lots <= 0 {
		return 0
	}
	return toFloat(floorToStep(dec(lots), dec(spec.LotStep)))
}

// LotStepNotional은 주어진 가격에서 랏 단위 하나의 명목 가치를 반환합니다
func LotStepNotional(spec domain.InstrumentSpec, price float64) float64 {
	return LotsToNotional(spec, spec.LotStep, price)
}

// RoundPrice는 가격을 틱 단위와 정밀도에 맞게 내림합니다
func RoundPrice(spec domain.InstrumentSpec, price float64) float64 {
	if price <= 0 {
		return 0
	}
	p := floorToStep(dec(price), dec(spec.TickSize))
	if spec.PricePrecision > 0 {
		p = p.Truncate(int32(spec.PricePrecision))
	}
	return toFloat(p)
}

// PrecisionOf는 "0.0001" 같은 단위 문자열의 소수점 자릿수를 반환합니다
func PrecisionOf(step string) int {
	d, err := decimal.NewFromString(step)
	if err != nil {
		return 0
	}
	exp := d.Exponent()
	if exp >= 0 {
		return 0
	}
	return int(-exp)
}
