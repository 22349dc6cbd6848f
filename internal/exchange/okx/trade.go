package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/assist-by/sentinel/internal/domain"
)

// PlaceOrder는 주문을 전송합니다
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	body := map[string]any{
		"instId":  order.Symbol,
		"tdMode":  string(order.MarginMode),
		"side":    string(order.Side),
		"ordType": string(order.Type),
		"sz":      formatFloat(order.Lots),
	}
	if order.Type == domain.Limit {
		body["px"] = formatFloat(order.Price)
	}
	if isDirectional(order.PositionSide) {
		body["posSide"] = string(order.PositionSide)
	} else if order.ReduceOnly {
		body["reduceOnly"] = true
	}
	if order.ClientOrderID != "" {
		body["clOrdId"] = order.ClientOrderID
	}

	data, err := c.doRequest(ctx, "place_order", http.MethodPost, "/api/v5/trade/order", nil, body, true)
	if err != nil {
		return nil, fmt.Errorf("주문 실패: %w", err)
	}

	item := data.Get("0")
	if err := itemError("place_order", item); err != nil {
		return nil, fmt.Errorf("주문 실패: %w", err)
	}

	return &domain.OrderResponse{
		OrderID:       item.Get("ordId").String(),
		ClientOrderID: item.Get("clOrdId").String(),
		Symbol:        order.Symbol,
		State:         "live",
		CreatedAt:     time.Now(),
	}, nil
}

// Order는 주문의 체결 상태를 조회합니다
func (c *Client) Order(ctx context.Context, symbol, orderID string) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Add("instId", symbol)
	params.Add("ordId", orderID)

	data, err := c.doRequest(ctx, "order", http.MethodGet, "/api/v5/trade/order", params, nil, true)
	if err != nil {
		return nil, fmt.Errorf("주문 조회 실패: %w", err)
	}

	item := data.Get("0")
	if !item.Exists() {
		return nil, fmt.Errorf("주문을 찾을 수 없습니다: %s", orderID)
	}
	return parseOrder(item), nil
}

func parseOrder(item gjson.Result) *domain.OrderResponse {
	resp := &domain.OrderResponse{
		OrderID:       item.Get("ordId").String(),
		ClientOrderID: item.Get("clOrdId").String(),
		Symbol:        item.Get("instId").String(),
		State:         item.Get("state").String(),
		FilledLots:    item.Get("accFillSz").Float(),
		AvgFillPrice:  item.Get("avgPx").Float(),
	}
	if ms, err := strconv.ParseInt(item.Get("cTime").String(), 10, 64); err == nil {
		resp.CreatedAt = time.UnixMilli(ms)
	}
	return resp
}

// PlaceConditionalOrder는 TP/SL 조건부 주문을 전송합니다
// 트리거 시 시장가로 체결됩니다
func (c *Client) PlaceConditionalOrder(ctx context.Context, order domain.ConditionalOrderRequest) (*domain.OrderResponse, error) {
	body := map[string]any{
		"instId":  order.Symbol,
		"tdMode":  string(order.MarginMode),
		"side":    string(order.Side),
		"ordType": "conditional",
		"sz":      formatFloat(order.Lots),
	}

	switch order.Kind {
	case domain.TakeProfit:
		body["tpTriggerPx"] = formatFloat(order.TriggerPrice)
		body["tpOrdPx"] = "-1"
	case domain.StopLoss:
		body["slTriggerPx"] = formatFloat(order.TriggerPrice)
		body["slOrdPx"] = "-1"
	default:
		return nil, fmt.Errorf("지원하지 않는 조건부 주문 종류: %s", order.Kind)
	}

	if isDirectional(order.PositionSide) {
		body["posSide"] = string(order.PositionSide)
	} else if order.ReduceOnly {
		body["reduceOnly"] = true
	}
	if order.ClientOrderID != "" {
		body["algoClOrdId"] = order.ClientOrderID
	}

	data, err := c.doRequest(ctx, "place_conditional_order", http.MethodPost, "/api/v5/trade/order-algo", nil, body, true)
	if err != nil {
		return nil, fmt.Errorf("%s 주문 실패: %w", order.Kind, err)
	}

	item := data.Get("0")
	if err := itemError("place_conditional_order", item); err != nil {
		return nil, fmt.Errorf("%s 주문 실패: %w", order.Kind, err)
	}

	return &domain.OrderResponse{
		OrderID:       item.Get("algoId").String(),
		ClientOrderID: item.Get("algoClOrdId").String(),
		Symbol:        order.Symbol,
		State:         "live",
		CreatedAt:     time.Now(),
	}, nil
}

// CancelConditionalOrders는 심볼의 대기 중인 조건부 주문을 모두 취소하고 취소한 개수를 반환합니다
func (c *Client) CancelConditionalOrders(ctx context.Context, symbol string) (int, error) {
	params := url.Values{}
	params.Add("ordType", "conditional")
	params.Add("instId", symbol)

	data, err := c.doRequest(ctx, "pending_algo_orders", http.MethodGet, "/api/v5/trade/orders-algo-pending", params, nil, true)
	if err != nil {
		return 0, fmt.Errorf("조건부 주문 조회 실패: %w", err)
	}

	var targets []map[string]string
	for _, item := range data.Array() {
		targets = append(targets, map[string]string{
			"algoId": item.Get("algoId").String(),
			"instId": symbol,
		})
	}
	if len(targets) == 0 {
		return 0, nil
	}

	if _, err := c.doRequest(ctx, "cancel_algo_orders", http.MethodPost, "/api/v5/trade/cancel-algos", nil, targets, true); err != nil {
		return 0, fmt.Errorf("조건부 주문 취소 실패: %w", err)
	}
	return len(targets), nil
}
