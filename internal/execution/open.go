package execution

import (
	"context"
	"fmt"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/position"
	"github.com/assist-by/sentinel/internal/retry"
	"github.com/assist-by/sentinel/internal/risk"
)

// executeOpen은 신규 진입 의도를 처리합니다
func (c *Coordinator) executeOpen(ctx context.Context, r *run) (*domain.ExecutionResult, error) {
	intent := r.intent
	symbol := intent.Symbol
	direction := intent.Action.Direction()

	spec, err := c.catalog.Get(symbol)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "get_instrument", err))
	}

	mode, err := c.positionMode(ctx)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "position_mode", err))
	}

	// 1. 가격 결정 (지정가 우선)
	price, err := c.entryPrice(ctx, spec, intent)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "get_price", err))
	}
	if err := intent.CheckProtection(price); err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "check_protection", err))
	}

	// 2. 계정 및 포지션 스냅샷 (의도마다 새로 조회)
	account, err := retry.Value(ctx, c.settings.Retry, "잔고 조회", exchange.IsTransient, c.venue.Account)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "get_account", err))
	}
	positions, err := c.reconciler.ActivePositions(ctx)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "get_positions", err))
	}

	// 3. 주문 규모 계산, 가용 마진을 넘으면 축소
	req, err := c.calculator.ComputeOrder(symbol, price, intent.Size(), intent.Leverage, account.AvailableMargin)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "compute_order", err))
	}
	if req.RecommendedReserve > account.AvailableMargin {
		fitted, err := c.calculator.Fit(symbol, price, req.RequestedNotional, intent.Leverage, account.AvailableMargin)
		if err != nil {
			r.result.Requirement = &req
			return c.fail(r, domain.NewExecutionError(symbol, "fit_order", err))
		}
		r.warn("가용 마진 %.4f에 맞춰 명목 가치를 %.4f에서 %.4f로 축소했습니다",
			account.AvailableMargin, req.NotionalValue, fitted.NotionalValue)
		req = fitted
	}
	r.result.Requirement = &req

	// 4. 리스크 검증 (모든 위반을 함께 보고)
	validation := c.validator.Validate(account, positions, risk.Proposal{
		Symbol:      symbol,
		Action:      intent.Action,
		Leverage:    intent.Leverage,
		Requirement: req,
		Mode:        mode,
	})
	r.result.Validation = &validation
	if !validation.Passed {
		for _, v := range validation.Violations {
			r.result.AddError(v)
		}
		return c.finish(r, domain.StatusFailed, domain.NewExecutionError(symbol, "validate_risk", validation.Err()))
	}
	c.advance(r, domain.StageValidated)

	// 5. 주문 확정
	positionSide := mode.PositionSideFor(direction)
	order := domain.OrderRequest{
		Symbol:        symbol,
		Side:          position.EntrySide(direction),
		Type:          domain.Market,
		Lots:          req.Lots,
		MarginMode:    c.settings.MarginMode,
		PositionSide:  positionSide,
		ClientOrderID: newClientOrderID(),
	}
	if intent.LimitPrice > 0 {
		order.Type = domain.Limit
		order.Price = price
	}
	c.advance(r, domain.StageSized)

	// 6. 레버리지 설정 후 주 주문 제출 (재시도 없음)
	if err := c.venue.SetLeverage(ctx, domain.LeverageRequest{
		Symbol:       symbol,
		Leverage:     intent.Leverage,
		MarginMode:   order.MarginMode,
		PositionSide: positionSide,
	}); err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "set_leverage", err))
	}

	resp, err := c.venue.PlaceOrder(ctx, order)
	if err != nil {
		return c.fail(r, domain.NewExecutionError(symbol, "place_order", err))
	}
	r.result.PrimaryOrderID = resp.OrderID
	c.advance(r, domain.StageSubmitted)
	r.log.Info("진입 주문 제출", "order_id", resp.OrderID, "lots", order.Lots, "price", price, "leverage", intent.Leverage)

	c.recordFill(ctx, r, resp)

	// 7. 보호 주문
	if !intent.HasProtection() {
		return c.finish(r, domain.StatusSuccess, nil)
	}

	lots := order.Lots
	if r.result.FilledQuantity > 0 {
		lots = r.result.FilledQuantity
	}
	protectErr := c.attachProtection(ctx, r, spec, protectiveParams{
		direction:    direction,
		lots:         lots,
		marginMode:   order.MarginMode,
		positionSide: positionSide,
		reduceOnly:   mode != domain.DualMode,
	})
	c.advance(r, domain.StageProtectiveOrdersAttempted)

	if protectErr != nil {
		return c.finish(r, domain.StatusPartial, protectErr)
	}
	return c.finish(r, domain.StatusSuccess, nil)
}

// entryPrice는 지정가가 있으면 틱 단위로 내린 지정가를, 없으면 최근 체결가를 반환합니다
func (c *Coordinator) entryPrice(ctx context.Context, spec domain.InstrumentSpec, intent domain.TradeIntent) (float64, error) {
	if intent.LimitPrice > 0 {
		price := instrument.RoundPrice(spec, intent.LimitPrice)
		if price <= 0 {
			return 0, fmt.Errorf("%w: 지정가 %.8f가 틱 단위보다 작습니다", domain.ErrInvalidIntent, intent.LimitPrice)
		}
		return price, nil
	}
	return retry.Value(ctx, c.settings.Retry, "시세 조회", exchange.IsTransient, func(ctx context.Context) (float64, error) {
		return c.venue.Ticker(ctx, intent.Symbol)
	})
}

// recordFill은 체결 수량과 평균가를 조회해 결과에 기록합니다
// 조회 실패는 경고로만 남깁니다
func (c *Coordinator) recordFill(ctx context.Context, r *run, resp *domain.OrderResponse) {
	if resp.FilledLots > 0 {
		r.result.FilledQuantity = resp.FilledLots
		r.result.AvgFillPrice = resp.AvgFillPrice
		return
	}

	fill, err := retry.Value(ctx, c.settings.Retry, "체결 조회", exchange.IsTransient, func(ctx context.Context) (*domain.OrderResponse, error) {
		return c.venue.Order(ctx, r.intent.Symbol, resp.OrderID)
	})
	if err != nil {
		r.warn("체결 정보 조회 실패 (주문 ID: %s): %v", resp.OrderID, err)
		return
	}
	r.result.FilledQuantity = fill.FilledLots
	r.result.AvgFillPrice = fill.AvgFillPrice
}
