package position

import (
	"context"
	"fmt"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange"
	"github.com/assist-by/sentinel/internal/logger"
	"github.com/assist-by/sentinel/internal/retry"
)

// Source는 실시간 포지션 스냅샷을 제공합니다
type Source interface {
	Positions(ctx context.Context) ([]domain.LivePosition, error)
}

// CloseRequest는 청산 의도의 대사 요청입니다
type CloseRequest struct {
	Symbol string
	Action domain.Action // CloseLong 또는 CloseShort
	Mode   domain.PositionMode
}

// ClosePlan은 대사 결과로 만들어진 청산 주문입니다
type ClosePlan struct {
	Position domain.LivePosition // 청산 대상 실시간 포지션
	Order    domain.OrderRequest // 거래소에 제출할 청산 주문
}

// Reconciler는 청산 의도를 거래소의 실제 포지션과 맞춥니다
type Reconciler struct {
	source Source
	retry  retry.Config
}

// NewReconciler는 새로운 Reconciler를 생성합니다
func NewReconciler(source Source, cfg retry.Config) *Reconciler {
	return &Reconciler{source: source, retry: cfg}
}

// ActivePositions는 재시도를 거쳐 현재 열린 포지션을 조회합니다
func (r *Reconciler) ActivePositions(ctx context.Context) ([]domain.LivePosition, error) {
	positions, err := retry.Value(ctx, r.retry, "포지션 조회", exchange.IsTransient, r.source.Positions)
	if err != nil {
		return nil, err
	}

	open := positions[:0:0]
	for _, pos := range positions {
		if pos.IsOpen() {
			open = append(open, pos)
		}
	}
	return open, nil
}

// Resolve는 청산 대상 포지션을 찾아 청산 주문을 만듭니다
// 수량과 마진 모드는 조회한 포지션 값을 그대로 사용합니다
func (r *Reconciler) Resolve(ctx context.Context, req CloseRequest) (ClosePlan, error) {
	if !req.Action.IsClose() {
		return ClosePlan{}, NewPositionError(req.Symbol, "resolve", fmt.Errorf("%w: 청산 의도가 아닙니다 (%s)", domain.ErrInvalidIntent, req.Action))
	}

	// 1. 매번 새 스냅샷 조회
	positions, err := r.ActivePositions(ctx)
	if err != nil {
		return ClosePlan{}, NewPositionError(req.Symbol, "get_positions", err)
	}

	// 2. 해당 방향 포지션 찾기
	direction := req.Action.Direction()
	pos, ok := FindOpen(positions, req.Symbol, direction, req.Mode)
	if !ok {
		logger.Debugf("%s %s 포지션 없음 (조회된 포지션 %d개)", req.Symbol, direction, len(positions))
		return ClosePlan{}, NewPositionError(req.Symbol, "find_position", domain.ErrPositionNotFound)
	}

	// 3. 청산 주문 생성
	order := domain.OrderRequest{
		Symbol:       req.Symbol,
		Side:         ExitSide(direction),
		Type:         domain.Market,
		Lots:         pos.Lots(),
		MarginMode:   pos.MarginMode,
		PositionSide: req.Mode.PositionSideFor(direction),
		ReduceOnly:   req.Mode != domain.DualMode,
	}

	return ClosePlan{Position: pos, Order: order}, nil
}
