package execution

import (
	"context"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/position"
)

// executeClose는 청산 의도를 처리합니다
// 청산은 마진/리스크 검증을 거치지 않습니다
func (c *Coordinator) executeClose(ctx context.Context, r *run) (*domain.ExecutionResult, error) {
	intent := r.intent
	symbol := intent.Symbol

	mode, err := c.positionMode(ctx)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "position_mode", err))
	}

	// 1. 실시간 포지션과 대사
	plan, err := c.reconciler.Resolve(ctx, position.CloseRequest{
		Symbol: symbol,
		Action: intent.Action,
		Mode:   mode,
	})
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "reconcile", err))
	}
	c.advance(r, domain.StageValidated)

	// 2. 수량과 마진 모드는 조회한 포지션 값을 그대로 사용
	order := plan.Order
	order.ClientOrderID = newClientOrderID()
	if intent.LimitPrice > 0 {
		spec, err := c.catalog.Get(symbol)
		if err != nil {
			return c.fail(r, domain.NewExecutionError(symbol, "get_instrument", err))
		}
		if price := instrument.RoundPrice(spec, intent.LimitPrice); price > 0 {
			order.Type = domain.Limit
			order.Price = price
		}
	}
	c.advance(r, domain.StageSized)

	// 3. 청산 주문 제출 (재시도 없음)
	resp, err := c.venue.PlaceOrder(ctx, order)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "place_close_order", err))
	}
	r.result.PrimaryOrderID = resp.OrderID
	c.advance(r, domain.StageSubmitted)
	r.log.Info("청산 주문 제출", "order_id", resp.OrderID, "lots", order.Lots, "margin_mode", string(order.MarginMode))

	c.recordFill(ctx, r, resp)

	// 4. 남은 조건부 주문 정리 (실패해도 청산은 성공)
	// 듀얼 모드에서는 반대 방향 포지션의 보호 주문까지 지워지므로 넷 모드에서만 수행
	if c.settings.CancelStaleOnClose && mode == domain.NetMode {
		n, err := c.venue.CancelConditionalOrders(ctx, symbol)
		if err != nil {
			r.warn("남은 조건부 주문 취소 실패: %v", err)
		} else if n > 0 {
			r.log.Info("남은 조건부 주문 취소", "count", n)
		}
	}

	return c.finish(r, domain.StatusSuccess, nil)
}
