package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/logger"
)

// Instruments는 거래 가능한 무기한 계약의 규격을 조회합니다
// 견적 통화로 정산되는 선형 계약만 반환합니다
// 인버스 계약의 ctVal은 기초자산 수량이 아닌 USD 금액이므로 랏 변환에 쓸 수 없습니다
func (c *Client) Instruments(ctx context.Context) ([]domain.InstrumentSpec, error) {
	params := url.Values{}
	params.Add("instType", c.instType)

	data, err := c.doRequest(ctx, "instruments", http.MethodGet, "/api/v5/public/instruments", params, nil, false)
	if err != nil {
		return nil, fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}

	var specs []domain.InstrumentSpec
	for _, item := range data.Array() {
		if item.Get("state").String() != "live" {
			continue
		}
		if !c.isLinear(item) {
			logger.Debugf("선형 계약이 아닌 심볼 제외: %s (ctType=%s, settleCcy=%s)",
				item.Get("instId").String(), item.Get("ctType").String(), item.Get("settleCcy").String())
			continue
		}
		specs = append(specs, parseInstrument(item))
	}
	return specs, nil
}

func (c *Client) isLinear(item gjson.Result) bool {
	return item.Get("ctType").String() == "linear" && item.Get("settleCcy").String() == c.quoteCcy
}

func parseInstrument(item gjson.Result) domain.InstrumentSpec {
	// 1랏 = ctVal * ctMult 단위의 기초자산
	ctVal, _ := decimal.NewFromString(item.Get("ctVal").String())
	ctMult, err := decimal.NewFromString(item.Get("ctMult").String())
	if err != nil || ctMult.IsZero() {
		ctMult = decimal.NewFromInt(1)
	}
	multiplier, _ := ctVal.Mul(ctMult).Float64()

	tick := item.Get("tickSz").String()
	return domain.InstrumentSpec{
		Symbol:         item.Get("instId").String(),
		UnitMultiplier: multiplier,
		MinLots:        item.Get("minSz").Float(),
		LotStep:        item.Get("lotSz").Float(),
		TickSize:       item.Get("tickSz").Float(),
		PricePrecision: instrument.PrecisionOf(tick),
	}
}

// Ticker는 심볼의 최근 체결가를 조회합니다
func (c *Client) Ticker(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("instId", symbol)

	data, err := c.doRequest(ctx, "ticker", http.MethodGet, "/api/v5/market/ticker", params, nil, false)
	if err != nil {
		return 0, fmt.Errorf("시세 조회 실패: %w", err)
	}

	last := data.Get("0.last").Float()
	if last <= 0 {
		return 0, fmt.Errorf("%s 시세가 없습니다", symbol)
	}
	return last, nil
}
