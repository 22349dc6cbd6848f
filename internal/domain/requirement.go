package domain

// MarginRequirement는 주문 규모 계산 결과입니다
// 파생 값이며 저장하지 않습니다
type MarginRequirement struct {
	Symbol             string  `json:"symbol"`
	Price              float64 `json:"price"`
	Leverage           int     `json:"leverage"`
	RequestedNotional  float64 `json:"requestedNotional"`  // 요청된 명목 가치
	Lots               float64 `json:"lots"`               // 랏 단위로 내림된 수량
	NotionalValue      float64 `json:"notionalValue"`      // lots × unitMultiplier × price
	RequiredMargin     float64 `json:"requiredMargin"`     // notionalValue / leverage
	EstimatedFees      float64 `json:"estimatedFees"`      // 진입 + 청산 테이커 수수료
	RecommendedReserve float64 `json:"recommendedReserve"` // (마진 + 수수료) × (1 + 안전 버퍼)
	Adjusted           bool    `json:"adjusted"`           // 가용 자본에 맞춰 축소되었는지 여부
}

// ReasonCode는 리스크 규칙 위반 사유 코드입니다
type ReasonCode string

const (
	ReasonMinAvailableMargin ReasonCode = "MIN_AVAILABLE_MARGIN"
	ReasonTotalExposure      ReasonCode = "TOTAL_EXPOSURE"
	ReasonSymbolExposure     ReasonCode = "SYMBOL_EXPOSURE"
	ReasonMaxOpenPositions   ReasonCode = "MAX_OPEN_POSITIONS"
	ReasonMaxLeverage        ReasonCode = "MAX_LEVERAGE"
	ReasonOrderFraction      ReasonCode = "ORDER_FRACTION"
	ReasonDuplicatePosition  ReasonCode = "DUPLICATE_POSITION"
)

// Exposure는 검증 시 계산된 노출도입니다 (비율, %)
type Exposure struct {
	TotalMarginPct   float64 `json:"totalMarginPct"`   // (기존 마진 + 제안 마진) / 총 자산
	TotalNotionalPct float64 `json:"totalNotionalPct"` // 같은 값을 명목 가치 기준으로 계산한 참고값
	SymbolMarginPct  float64 `json:"symbolMarginPct"`  // 심볼 마진 / 총 자산
	OpenPositions    int     `json:"openPositions"`    // 제안 주문 포함 포지션 수

	// 마진을 계산하지 못한 포지션의 심볼 (있으면 검증 실패)
	Uncomputable []string `json:"uncomputable,omitempty"`
}

// ValidationResult는 리스크 검증 결과입니다
type ValidationResult struct {
	Passed     bool             `json:"passed"`
	Violations []*RuleViolation `json:"violations,omitempty"`
	Exposure   Exposure         `json:"exposure"`
}

// Err는 위반 규칙들을 하나의 에러로 합쳐 반환합니다
func (r ValidationResult) Err() error {
	if r.Passed || len(r.Violations) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Violations))
	for _, v := range r.Violations {
		errs = append(errs, v)
	}
	return joinErrors(errs)
}
