package margin

import (
	"errors"
	"fmt"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
)

// Fit은 가용 자본 안에서 가능한 가장 큰 주문을 찾습니다
// 요청 그대로 가능하면 그대로 반환하고, 아니면 명목 가치에 대해 이분 탐색합니다
// 반환되는 RecommendedReserve는 항상 availableCapital 이하입니다
func (c *Calculator) Fit(symbol string, price, requestedNotional float64, leverage int, availableCapital float64) (domain.MarginRequirement, error) {
	if err := checkInputs(price, leverage); err != nil {
		return domain.MarginRequirement{}, err
	}
	if requestedNotional <= 0 {
		return domain.MarginRequirement{}, fmt.Errorf("%w: 요청 명목 가치는 0보다 커야 합니다", domain.ErrInvalidIntent)
	}
	spec, err := c.lookup.Get(symbol)
	if err != nil {
		return domain.MarginRequirement{}, err
	}

	direct, err := c.compute(spec, price, requestedNotional, leverage)
	if err != nil {
		return domain.MarginRequirement{}, err
	}
	if direct.RecommendedReserve <= availableCapital {
		return direct, nil
	}

	// 랏 단위 하나보다 좁은 구간은 내림 후 같은 결과가 되므로 탐색을 멈춥니다
	tolerance := instrument.LotStepNotional(spec, price)

	var (
		best  domain.MarginRequirement
		found bool
		lo    = 0.0
		hi    = requestedNotional
	)
	for i := 0; i < maxFitIterations && hi-lo > tolerance; i++ {
		mid := lo + (hi-lo)/2
		req, err := c.compute(spec, price, mid, leverage)
		switch {
		case errors.Is(err, domain.ErrBelowMinimumLotSize):
			lo = mid
		case err != nil:
			return domain.MarginRequirement{}, err
		case req.RecommendedReserve <= availableCapital:
			best, found = req, true
			lo = mid
		default:
			hi = mid
		}
	}

	// 탐색 하한이 실현 가능한 경우 한 번 더 확인합니다
	if !found && lo > 0 {
		if req, err := c.compute(spec, price, lo, leverage); err == nil && req.RecommendedReserve <= availableCapital {
			best, found = req, true
		}
	}

	if !found {
		minimum, minErr := c.compute(spec, price, instrument.LotsToNotional(spec, spec.MinLots, price), leverage)
		if minErr == nil {
			return domain.MarginRequirement{}, fmt.Errorf("%w: 최소 주문(%.8f랏)에도 %.4f가 필요하지만 가용 자본은 %.4f입니다",
				domain.ErrInsufficientCapital, spec.MinLots, minimum.RecommendedReserve, availableCapital)
		}
		return domain.MarginRequirement{}, fmt.Errorf("%w: 가용 자본 %.4f로 가능한 주문이 없습니다",
			domain.ErrInsufficientCapital, availableCapital)
	}

	best.RequestedNotional = requestedNotional
	best.Adjusted = true
	return best, nil
}
