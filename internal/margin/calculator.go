package margin

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
)

// maxFitIterations는 Fit 이분 탐색의 최대 반복 횟수입니다
const maxFitIterations = 20

// FeeSchedule은 수수료와 안전 버퍼 설정입니다
// 기본값 없이 설정에서 명시적으로 주입받습니다
type FeeSchedule struct {
	TakerFeeRate    float64 // 테이커 수수료율 (예: 0.0005 = 0.05%)
	SafetyBufferPct float64 // 안전 버퍼 비율 (예: 0.1 = 10%)
}

// Calculator는 목표 노출을 거래소 규격에 맞는 주문 규모로 변환합니다
type Calculator struct {
	lookup instrument.Lookup
	fees   FeeSchedule
}

// NewCalculator는 새로운 마진 계산기를 생성합니다
func NewCalculator(lookup instrument.Lookup, fees FeeSchedule) *Calculator {
	return &Calculator{
		lookup: lookup,
		fees:   fees,
	}
}

// Fees는 적용 중인 수수료 설정을 반환합니다
func (c *Calculator) Fees() FeeSchedule {
	return c.fees
}

// ResolveNotional은 크기 요청을 목표 명목 가치로 변환합니다
// 자본 비율로 주어지면 availableCapital × fraction × leverage,
// 명목 가치로 주어지면 그대로 목표 명목 가치로 사용합니다 (마진이 아님)
func ResolveNotional(size domain.SizeRequest, leverage int, availableCapital float64) (float64, error) {
	hasNotional := size.NotionalUSD > 0
	hasFraction := size.CapitalFraction > 0
	switch {
	case hasNotional && hasFraction:
		return 0, fmt.Errorf("%w: 명목 가치와 자본 비율을 동시에 지정할 수 없습니다", domain.ErrInvalidIntent)
	case hasNotional:
		return size.NotionalUSD, nil
	case hasFraction:
		if size.CapitalFraction > 1 {
			return 0, fmt.Errorf("%w: 자본 비율은 1 이하이어야 합니다 (%.4f)", domain.ErrInvalidIntent, size.CapitalFraction)
		}
		if availableCapital <= 0 {
			return 0, fmt.Errorf("%w: 가용 자본 %.2f", domain.ErrInsufficientCapital, availableCapital)
		}
		notional := decimal.NewFromFloat(availableCapital).
			Mul(decimal.NewFromFloat(size.CapitalFraction)).
			Mul(decimal.NewFromInt(int64(leverage)))
		f, _ := notional.Float64()
		return f, nil
	default:
		return 0, fmt.Errorf("%w: 주문 규모가 지정되지 않았습니다", domain.ErrInvalidIntent)
	}
}

// ComputeOrder는 원하는 노출을 랏 수량, 필요 마진, 수수료로 변환합니다
func (c *Calculator) ComputeOrder(symbol string, price float64, size domain.SizeRequest, leverage int, availableCapital float64) (domain.MarginRequirement, error) {
	if err := checkInputs(price, leverage); err != nil {
		return domain.MarginRequirement{}, err
	}
	notional, err := ResolveNotional(size, leverage, availableCapital)
	if err != nil {
		return domain.MarginRequirement{}, err
	}
	spec, err := c.lookup.Get(symbol)
	if err != nil {
		return domain.MarginRequirement{}, err
	}
	return c.compute(spec, price, notional, leverage)
}

// compute는 사이징 알고리즘의 본체입니다
func (c *Calculator) compute(spec domain.InstrumentSpec, price, notional float64, leverage int) (domain.MarginRequirement, error) {
	// 1. 랏 단위로 내림
	lots := instrument.NotionalToLots(spec, notional, price)
	if lots <= 0 || lots < spec.MinLots {
		return domain.MarginRequirement{}, c.belowMinimum(spec, price, notional, lots)
	}

	// 2. 내림된 랏으로 명목 가치 재계산
	actual := instrument.LotsToNotionalDecimal(spec, lots, price)

	// 3. 마진, 수수료, 권장 예치금
	lev := decimal.NewFromInt(int64(leverage))
	required := actual.Div(lev)
	fees := actual.Mul(decimal.NewFromFloat(c.fees.TakerFeeRate).Mul(decimal.NewFromInt(2)))
	reserve := required.Add(fees).Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(c.fees.SafetyBufferPct)))

	return domain.MarginRequirement{
		Symbol:             spec.Symbol,
		Price:              price,
		Leverage:           leverage,
		RequestedNotional:  notional,
		Lots:               lots,
		NotionalValue:      floatOf(actual),
		RequiredMargin:     floatOf(required),
		EstimatedFees:      floatOf(fees),
		RecommendedReserve: floatOf(reserve),
	}, nil
}

// MinimumOrder는 최소 랏 주문의 요구 마진을 계산합니다
func (c *Calculator) MinimumOrder(symbol string, price float64, leverage int) (domain.MarginRequirement, error) {
	if err := checkInputs(price, leverage); err != nil {
		return domain.MarginRequirement{}, err
	}
	spec, err := c.lookup.Get(symbol)
	if err != nil {
		return domain.MarginRequirement{}, err
	}
	minLots := spec.MinLots
	if minLots <= 0 {
		minLots = spec.LotStep
	}
	return c.compute(spec, price, instrument.LotsToNotional(spec, minLots, price), leverage)
}

func (c *Calculator) belowMinimum(spec domain.InstrumentSpec, price, notional, lots float64) error {
	minLots := spec.MinLots
	if minLots <= 0 {
		minLots = spec.LotStep
	}
	minNotional := instrument.LotsToNotional(spec, minLots, price)
	return fmt.Errorf("%w: %s 요청 명목 가치 %.4f → %.8f랏 (최소 %.8f랏, 최소 명목 가치 %.4f)",
		domain.ErrBelowMinimumLotSize, spec.Symbol, notional, lots, minLots, minNotional)
}

func checkInputs(price float64, leverage int) error {
	if price <= 0 {
		return fmt.Errorf("%w: 가격은 0보다 커야 합니다 (%v)", domain.ErrInvalidIntent, price)
	}
	if leverage < 1 {
		return fmt.Errorf("%w: 레버리지는 1 이상이어야 합니다 (%d)", domain.ErrInvalidIntent, leverage)
	}
	return nil
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
