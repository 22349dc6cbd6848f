package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/position"
)

type protectiveParams struct {
	direction    domain.Direction
	lots         float64
	marginMode   domain.MarginMode
	positionSide domain.PositionSide
	reduceOnly   bool
}

// attachProtection은 TP와 SL을 각각 별도의 조건부 주문으로 등록합니다
// 한쪽이 실패해도 다른 쪽은 시도하며, 실패한 주문은 재시도하지 않습니다
func (c *Coordinator) attachProtection(ctx context.Context, r *run, spec domain.InstrumentSpec, p protectiveParams) error {
	legs := []struct {
		kind    domain.ProtectiveKind
		trigger float64
	}{
		{domain.TakeProfit, r.intent.TakeProfitPrice},
		{domain.StopLoss, r.intent.StopLossPrice},
	}

	var errs []error
	for _, leg := range legs {
		if leg.trigger <= 0 {
			continue
		}

		trigger := instrument.RoundPrice(spec, leg.trigger)
		record := domain.ProtectiveOrder{Kind: leg.kind, TriggerPrice: trigger}

		resp, err := c.venue.PlaceConditionalOrder(ctx, domain.ConditionalOrderRequest{
			Symbol:        spec.Symbol,
			Kind:          leg.kind,
			Side:          position.ExitSide(p.direction),
			Lots:          p.lots,
			TriggerPrice:  trigger,
			MarginMode:    p.marginMode,
			PositionSide:  p.positionSide,
			ReduceOnly:    p.reduceOnly,
			ClientOrderID: newClientOrderID(),
		})
		if err != nil {
			record.Error = err.Error()
			r.result.ProtectiveOrders = append(r.result.ProtectiveOrders, record)
			errs = append(errs, fmt.Errorf("%w (%s @ %.8f): %w", domain.ErrProtectiveOrderFailed, leg.kind, trigger, err))
			continue
		}

		record.OrderID = resp.OrderID
		r.result.ProtectiveOrders = append(r.result.ProtectiveOrders, record)
		r.result.ProtectiveOrderIDs = append(r.result.ProtectiveOrderIDs, resp.OrderID)
		r.log.Info("보호 주문 등록", "kind", string(leg.kind), "order_id", resp.OrderID, "trigger", trigger)
	}

	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		r.result.AddError(err)
	}
	return domain.NewExecutionError(spec.Symbol, "place_protective_orders", errors.Join(errs...))
}
