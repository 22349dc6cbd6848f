package domain

import "time"

// OrderRequest는 거래소 주문 요청 계약입니다
type OrderRequest struct {
	Symbol        string       // 심볼 (instrumentId)
	Side          OrderSide    // buy/sell
	Type          OrderType    // market/limit
	Lots          float64      // 주문 수량 (랏)
	Price         float64      // 지정가 (limit 주문 시)
	MarginMode    MarginMode   // cross/isolated
	PositionSide  PositionSide // 듀얼 포지션 모드에서만 설정
	ReduceOnly    bool         // 포지션 축소 전용 여부
	ClientOrderID string       // 클라이언트 측 주문 ID
}

// LeverageRequest는 레버리지 설정 요청입니다
type LeverageRequest struct {
	Symbol       string
	Leverage     int
	MarginMode   MarginMode
	PositionSide PositionSide
}

// ProtectiveKind는 보호 주문 종류입니다
type ProtectiveKind string

const (
	TakeProfit ProtectiveKind = "take_profit"
	StopLoss   ProtectiveKind = "stop_loss"
)

// ConditionalOrderRequest는 TP/SL 조건부 주문 요청입니다
// 마진 모드와 포지션 사이드는 주 주문과 동일해야 합니다
type ConditionalOrderRequest struct {
	Symbol        string
	Kind          ProtectiveKind
	Side          OrderSide
	Lots          float64
	TriggerPrice  float64
	MarginMode    MarginMode
	PositionSide  PositionSide
	ReduceOnly    bool
	ClientOrderID string
}

// OrderResponse는 주문 응답을 표현합니다
type OrderResponse struct {
	OrderID       string    // 거래소 주문 ID
	ClientOrderID string    // 클라이언트 측 주문 ID
	Symbol        string    // 심볼
	State         string    // 주문 상태
	FilledLots    float64   // 체결 수량 (랏)
	AvgFillPrice  float64   // 평균 체결가
	CreatedAt     time.Time // 생성 시간
}
