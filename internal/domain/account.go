package domain

import "math"

// AccountState는 결정 시점의 계정 자본 상태를 표현합니다
// 의도마다 새로 조회하며 의도 간에 캐시하지 않습니다
type AccountState struct {
	TotalEquity     float64 // 총 자산 (USDT)
	AvailableMargin float64 // 사용 가능한 마진 (USDT)
}

// LivePosition은 거래소에서 조회한 실시간 포지션입니다
type LivePosition struct {
	Symbol       string       // 심볼
	Quantity     float64      // 포지션 수량 (랏, 넷 모드에서는 부호 포함)
	PositionSide PositionSide // 거래소가 보고한 포지션 사이드 (net/long/short 또는 빈 값)
	MarginMode   MarginMode   // 포지션의 마진 모드
	EntryPrice   float64      // 평균 진입가
	Leverage     float64      // 레버리지
	Margin       float64      // 거래소가 보고한 사용 마진 (없으면 0)
	MarkPrice    float64      // 마크 가격
}

// Lots는 포지션 수량의 절대값을 반환합니다
func (p LivePosition) Lots() float64 {
	return math.Abs(p.Quantity)
}

// IsOpen은 수량이 남아 있는 포지션인지 확인합니다
func (p LivePosition) IsOpen() bool {
	return p.Quantity != 0
}

// Direction은 포지션 방향을 판별합니다
// 기본은 수량의 부호로 판단하고, 듀얼 포지션 모드에서만 명시적 사이드 필드를 사용합니다
// 넷 모드 계정은 사이드 필드에 net 또는 빈 값을 돌려주므로 신뢰하지 않습니다
func (p LivePosition) Direction(mode PositionMode) Direction {
	if p.Quantity == 0 {
		return NoDirection
	}
	if mode == DualMode {
		switch p.PositionSide {
		case PositionSideLong:
			return Long
		case PositionSideShort:
			return Short
		}
	}
	if p.Quantity > 0 {
		return Long
	}
	return Short
}
