package execution

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/assist-by/sentinel/internal/domain"
)

type mockVenue struct {
	mock.Mock
}

func (m *mockVenue) Instruments(ctx context.Context) ([]domain.InstrumentSpec, error) {
	args := m.Called(ctx)
	specs, _ := args.Get(0).([]domain.InstrumentSpec)
	return specs, args.Error(1)
}

func (m *mockVenue) Ticker(ctx context.Context, symbol string) (float64, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockVenue) Account(ctx context.Context) (domain.AccountState, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.AccountState), args.Error(1)
}

func (m *mockVenue) Positions(ctx context.Context) ([]domain.LivePosition, error) {
	args := m.Called(ctx)
	positions, _ := args.Get(0).([]domain.LivePosition)
	return positions, args.Error(1)
}

func (m *mockVenue) PositionMode(ctx context.Context) (domain.PositionMode, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.PositionMode), args.Error(1)
}

func (m *mockVenue) Order(ctx context.Context, symbol, orderID string) (*domain.OrderResponse, error) {
	args := m.Called(ctx, symbol, orderID)
	resp, _ := args.Get(0).(*domain.OrderResponse)
	return resp, args.Error(1)
}

func (m *mockVenue) SetLeverage(ctx context.Context, req domain.LeverageRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockVenue) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	args := m.Called(ctx, order)
	resp, _ := args.Get(0).(*domain.OrderResponse)
	return resp, args.Error(1)
}

func (m *mockVenue) PlaceConditionalOrder(ctx context.Context, order domain.ConditionalOrderRequest) (*domain.OrderResponse, error) {
	args := m.Called(ctx, order)
	resp, _ := args.Get(0).(*domain.OrderResponse)
	return resp, args.Error(1)
}

func (m *mockVenue) CancelConditionalOrders(ctx context.Context, symbol string) (int, error) {
	args := m.Called(ctx, symbol)
	return args.Int(0), args.Error(1)
}

func (m *mockVenue) SyncTime(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fillingVenue는 첫 진입 주문이 성공하면 그 포지션을 조회 결과에 보여 주는 거래소입니다
type fillingVenue struct {
	*mockVenue
	filled atomic.Bool
	fill   domain.LivePosition
}

func (v *fillingVenue) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	resp, err := v.mockVenue.PlaceOrder(ctx, order)
	if err == nil {
		v.filled.Store(true)
	}
	return resp, err
}

func (v *fillingVenue) Positions(context.Context) ([]domain.LivePosition, error) {
	if !v.filled.Load() {
		return nil, nil
	}
	return []domain.LivePosition{v.fill}, nil
}

// recordingNotifier는 전송된 실행 결과를 모아 둡니다
type recordingNotifier struct {
	mu      sync.Mutex
	results []*domain.ExecutionResult
}

func (n *recordingNotifier) SendError(error) error { return nil }

func (n *recordingNotifier) SendInfo(string) error { return nil }

func (n *recordingNotifier) SendExecution(result *domain.ExecutionResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}
