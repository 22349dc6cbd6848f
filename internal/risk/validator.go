package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
)

// Proposal은 검증 대상 신규 주문입니다
type Proposal struct {
	Symbol      string
	Action      domain.Action
	Leverage    int
	Requirement domain.MarginRequirement
	Mode        domain.PositionMode
}

// Validator는 제안 주문을 계정 단위 한도에 대해 검증합니다
// 네트워크 호출 없이 입력만으로 결과를 계산합니다
type Validator struct {
	limits Limits
	lookup instrument.Lookup
}

// NewValidator는 새로운 리스크 검증기를 생성합니다
func NewValidator(limits Limits, lookup instrument.Lookup) *Validator {
	return &Validator{
		limits: limits,
		lookup: lookup,
	}
}

// Limits는 적용 중인 한도를 반환합니다
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate는 모든 규칙을 순서대로 평가합니다
// 첫 위반에서 멈추지 않고 모든 위반을 함께 보고합니다
func (v *Validator) Validate(account domain.AccountState, positions []domain.LivePosition, p Proposal) domain.ValidationResult {
	var violations []*domain.RuleViolation
	add := func(rule domain.ReasonCode, value, limit float64, format string, args ...any) {
		violations = append(violations, &domain.RuleViolation{
			Rule:   rule,
			Reason: fmt.Sprintf(format, args...),
			Value:  value,
			Limit:  limit,
		})
	}

	exposure := v.Exposure(account, positions, p)
	proposedMargin := p.Requirement.RequiredMargin

	// 1. 가용 마진 하한
	if account.AvailableMargin < v.limits.MinAvailableMargin {
		add(domain.ReasonMinAvailableMargin, account.AvailableMargin, v.limits.MinAvailableMargin,
			"가용 마진 %.4f가 하한 %.4f보다 작습니다", account.AvailableMargin, v.limits.MinAvailableMargin)
	}

	// 2. 전체 노출 (마진 기준)
	// 마진을 계산할 수 없는 포지션이 있으면 한도 안이라고 판단할 수 없습니다
	if len(exposure.Uncomputable) > 0 {
		add(domain.ReasonTotalExposure, exposure.TotalMarginPct, v.limits.MaxTotalExposurePct,
			"마진을 계산할 수 없는 포지션이 있습니다 (규격 또는 가격 없음): %s", strings.Join(exposure.Uncomputable, ", "))
	} else if exposure.TotalMarginPct > v.limits.MaxTotalExposurePct {
		add(domain.ReasonTotalExposure, exposure.TotalMarginPct, v.limits.MaxTotalExposurePct,
			"전체 마진 노출 %.2f%%가 한도 %.2f%%를 초과합니다", exposure.TotalMarginPct, v.limits.MaxTotalExposurePct)
	}

	// 3. 심볼별 노출 (마진 기준)
	if exposure.SymbolMarginPct > v.limits.MaxSymbolExposurePct {
		add(domain.ReasonSymbolExposure, exposure.SymbolMarginPct, v.limits.MaxSymbolExposurePct,
			"%s 마진 노출 %.2f%%가 한도 %.2f%%를 초과합니다", p.Symbol, exposure.SymbolMarginPct, v.limits.MaxSymbolExposurePct)
	}

	// 4. 동시 포지션 수
	if exposure.OpenPositions > v.limits.MaxOpenPositions {
		add(domain.ReasonMaxOpenPositions, float64(exposure.OpenPositions), float64(v.limits.MaxOpenPositions),
			"포지션 수 %d가 한도 %d를 초과합니다", exposure.OpenPositions, v.limits.MaxOpenPositions)
	}

	// 5. 레버리지
	if p.Leverage > v.limits.MaxLeverage {
		add(domain.ReasonMaxLeverage, float64(p.Leverage), float64(v.limits.MaxLeverage),
			"레버리지 %dx가 한도 %dx를 초과합니다", p.Leverage, v.limits.MaxLeverage)
	}

	// 6. 단일 주문 비율
	orderPct := ratioPct(proposedMargin, account.AvailableMargin)
	if orderPct > v.limits.MaxOrderFractionPct {
		add(domain.ReasonOrderFraction, orderPct, v.limits.MaxOrderFractionPct,
			"주문 마진이 가용 마진의 %.2f%%로 한도 %.2f%%를 초과합니다", orderPct, v.limits.MaxOrderFractionPct)
	}

	// 7. 같은 방향 중복 진입 방지
	if p.Action.IsOpen() {
		want := p.Action.Direction()
		for _, pos := range positions {
			if pos.Symbol == p.Symbol && pos.Direction(p.Mode) == want {
				add(domain.ReasonDuplicatePosition, pos.Lots(), 0,
					"%s %s 포지션이 이미 존재합니다 (%.8f랏)", p.Symbol, want, pos.Lots())
				break
			}
		}
	}

	return domain.ValidationResult{
		Passed:     len(violations) == 0,
		Violations: violations,
		Exposure:   exposure,
	}
}

// Exposure는 제안 주문을 포함한 노출도를 계산합니다
// 노출도는 명목 가치가 아닌 마진 단위로 계산합니다
// 명목 기준 값은 비교용으로만 함께 제공합니다
func (v *Validator) Exposure(account domain.AccountState, positions []domain.LivePosition, p Proposal) domain.Exposure {
	var (
		totalMargin   = p.Requirement.RequiredMargin
		totalNotional = p.Requirement.NotionalValue
		symbolMargin  = p.Requirement.RequiredMargin
		open          = 0
		symbolOpen    = false
		sameDirection = false
		uncomputable  []string
		target        = p.Action.Direction()
	)

	for _, pos := range positions {
		if !pos.IsOpen() {
			continue
		}
		open++
		margin, notional, ok := v.positionMargin(pos)
		if !ok {
			uncomputable = append(uncomputable, pos.Symbol)
		}
		totalMargin += margin
		totalNotional += notional
		if pos.Symbol == p.Symbol {
			symbolMargin += margin
			symbolOpen = true
			if pos.Direction(p.Mode) == target {
				sameDirection = true
			}
		}
	}

	// 넷 모드에서는 같은 심볼의 반대 방향 주문이 기존 포지션과 상계됩니다
	if p.Action.IsOpen() {
		isNew := !sameDirection
		if p.Mode != domain.DualMode {
			isNew = !symbolOpen
		}
		if isNew {
			open++
		}
	}

	return domain.Exposure{
		TotalMarginPct:   ratioPct(totalMargin, account.TotalEquity),
		TotalNotionalPct: ratioPct(totalNotional, account.TotalEquity),
		SymbolMarginPct:  ratioPct(symbolMargin, account.TotalEquity),
		OpenPositions:    open,
		Uncomputable:     uncomputable,
	}
}

// positionMargin은 포지션의 사용 마진과 명목 가치를 계산합니다
// 거래소가 보고한 마진이 있으면 우선 사용합니다
// 보고된 마진도 없고 규격이나 가격을 알 수 없으면 ok=false를 반환합니다
func (v *Validator) positionMargin(pos domain.LivePosition) (margin, notional float64, ok bool) {
	price := pos.EntryPrice
	if price <= 0 {
		price = pos.MarkPrice
	}
	spec, err := v.lookup.Get(pos.Symbol)
	known := err == nil && price > 0
	if known {
		notional = instrument.LotsToNotional(spec, pos.Lots(), price)
	}

	switch {
	case pos.Margin > 0:
		margin = pos.Margin
		if !known && pos.Leverage > 0 {
			notional = pos.Margin * pos.Leverage
		}
		return margin, notional, true
	case !known:
		return 0, 0, false
	case pos.Leverage > 0:
		return notional / pos.Leverage, notional, true
	default:
		return notional, notional, true
	}
}

func ratioPct(value, base float64) float64 {
	if base <= 0 {
		if value > 0 {
			return math.MaxFloat64
		}
		return 0
	}
	return value / base * 100
}
