// internal/exchange/exchange.go
package exchange

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/assist-by/sentinel/internal/domain"
)

// Venue는 거래소와의 상호작용을 위한 인터페이스입니다
// 엔진의 유일한 네트워크 경계입니다
type Venue interface {
	// 시장 데이터 조회
	Instruments(ctx context.Context) ([]domain.InstrumentSpec, error)
	Ticker(ctx context.Context, symbol string) (float64, error)

	// 계정 데이터 조회
	Account(ctx context.Context) (domain.AccountState, error)
	Positions(ctx context.Context) ([]domain.LivePosition, error)
	PositionMode(ctx context.Context) (domain.PositionMode, error)
	Order(ctx context.Context, symbol, orderID string) (*domain.OrderResponse, error)

	// 거래 기능
	SetLeverage(ctx context.Context, req domain.LeverageRequest) error
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	PlaceConditionalOrder(ctx context.Context, order domain.ConditionalOrderRequest) (*domain.OrderResponse, error)
	CancelConditionalOrders(ctx context.Context, symbol string) (int, error)

	// 시간 동기화
	SyncTime(ctx context.Context) error
}

// TransientError는 일시적인 전송 계층 실패를 표시합니다
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient는 읽기 전용 조회를 재시도해도 되는 에러인지 확인합니다
// 거래소의 명시적 거부는 재시도 대상이 아닙니다
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var venueErr *domain.VenueError
	if errors.As(err, &venueErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
