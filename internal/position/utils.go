package position

import (
	"github.com/assist-by/sentinel/internal/domain"
)

// EntrySide는 포지션 진입을 위한 주문 사이드를 반환합니다
func EntrySide(d domain.Direction) domain.OrderSide {
	if d == domain.Long {
		return domain.Buy
	}
	return domain.Sell
}

// ExitSide는 포지션 청산을 위한 주문 사이드를 반환합니다
func ExitSide(d domain.Direction) domain.OrderSide {
	if d == domain.Long {
		return domain.Sell
	}
	return domain.Buy
}

// FindOpen은 심볼과 방향이 일치하는 열린 포지션을 찾습니다
func FindOpen(positions []domain.LivePosition, symbol string, d domain.Direction, mode domain.PositionMode) (domain.LivePosition, bool) {
	for _, pos := range positions {
		if pos.Symbol == symbol && pos.IsOpen() && pos.Direction(mode) == d {
			return pos, true
		}
	}
	return domain.LivePosition{}, false
}
