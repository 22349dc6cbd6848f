package domain

import "strings"

// Action은 상위 전략 계층이 내려보내는 매매 의도 유형을 정의합니다
type Action int

const (
	Hold Action = iota
	OpenLong
	OpenShort
	CloseLong
	CloseShort
)

// String은 Action의 문자열 표현을 반환합니다
func (a Action) String() string {
	switch a {
	case Hold:
		return "hold"
	case OpenLong:
		return "open_long"
	case OpenShort:
		return "open_short"
	case CloseLong:
		return "close_long"
	case CloseShort:
		return "close_short"
	default:
		return "unknown"
	}
}

// ParseAction은 문자열을 Action으로 변환합니다
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hold":
		return Hold, true
	case "open_long":
		return OpenLong, true
	case "open_short":
		return OpenShort, true
	case "close_long":
		return CloseLong, true
	case "close_short":
		return CloseShort, true
	default:
		return Hold, false
	}
}

// IsOpen은 신규 진입 의도인지 확인합니다
func (a Action) IsOpen() bool {
	return a == OpenLong || a == OpenShort
}

// IsClose는 청산 의도인지 확인합니다
func (a Action) IsClose() bool {
	return a == CloseLong || a == CloseShort
}

// Direction은 의도가 대상으로 하는 포지션 방향을 반환합니다
func (a Action) Direction() Direction {
	switch a {
	case OpenLong, CloseLong:
		return Long
	case OpenShort, CloseShort:
		return Short
	default:
		return NoDirection
	}
}

// Direction은 포지션 방향을 정의합니다
type Direction string

const (
	NoDirection Direction = ""
	Long        Direction = "long"
	Short       Direction = "short"
)

// Opposite는 반대 방향을 반환합니다
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return NoDirection
	}
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// PositionSide는 거래소 주문의 포지션 사이드 파라미터를 정의합니다
// 듀얼 포지션 모드에서만 long/short 값을 사용합니다
type PositionSide string

const (
	PositionSideNone  PositionSide = ""
	PositionSideNet   PositionSide = "net"
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// MarginMode는 마진 모드를 정의합니다
type MarginMode string

const (
	Cross    MarginMode = "cross"
	Isolated MarginMode = "isolated"
)

// Valid는 지원되는 마진 모드인지 확인합니다
func (m MarginMode) Valid() bool {
	return m == Cross || m == Isolated
}

// PositionMode는 계정의 포지션 모드를 정의합니다
type PositionMode string

const (
	// NetMode는 심볼당 하나의 순포지션만 허용합니다
	NetMode PositionMode = "net"
	// DualMode는 같은 심볼에서 롱/숏 포지션을 동시에 허용합니다
	DualMode PositionMode = "dual"
)

// PositionSideFor는 포지션 모드에 맞는 주문 포지션 사이드를 반환합니다
func (m PositionMode) PositionSideFor(d Direction) PositionSide {
	if m != DualMode {
		return PositionSideNone
	}
	switch d {
	case Long:
		return PositionSideLong
	case Short:
		return PositionSideShort
	default:
		return PositionSideNone
	}
}
