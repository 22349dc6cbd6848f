package okx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/assist-by/sentinel/internal/domain"
)

// Account는 결제 통화 기준의 계정 자본 상태를 조회합니다
func (c *Client) Account(ctx context.Context) (domain.AccountState, error) {
	params := url.Values{}
	params.Add("ccy", c.quoteCcy)

	data, err := c.doRequest(ctx, "balance", http.MethodGet, "/api/v5/account/balance", params, nil, true)
	if err != nil {
		return domain.AccountState{}, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	account := data.Get("0")
	if !account.Exists() {
		return domain.AccountState{}, fmt.Errorf("잔고 응답이 비어 있습니다")
	}

	state := domain.AccountState{TotalEquity: account.Get("totalEq").Float()}
	for _, d := range account.Get("details").Array() {
		if d.Get("ccy").String() != c.quoteCcy {
			continue
		}
		// availEq가 비어 있는 계정 모드에서는 availBal을 사용
		if s := d.Get("availEq").String(); s != "" {
			state.AvailableMargin = d.Get("availEq").Float()
		} else {
			state.AvailableMargin = d.Get("availBal").Float()
		}
		if state.TotalEquity == 0 {
			state.TotalEquity = d.Get("eq").Float()
		}
	}
	return state, nil
}

// Positions는 열려 있는 모든 포지션을 조회합니다
func (c *Client) Positions(ctx context.Context) ([]domain.LivePosition, error) {
	params := url.Values{}
	params.Add("instType", c.instType)

	data, err := c.doRequest(ctx, "positions", http.MethodGet, "/api/v5/account/positions", params, nil, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var positions []domain.LivePosition
	for _, p := range data.Array() {
		qty := p.Get("pos").Float()
		if qty == 0 {
			continue
		}

		mode := domain.MarginMode(p.Get("mgnMode").String())
		margin := p.Get("imr").Float()
		if mode == domain.Isolated {
			margin = p.Get("margin").Float()
		}
		// 견적 통화가 아닌 마진(인버스 계약)은 합산할 수 없으므로 보고하지 않습니다
		if ccy := p.Get("ccy").String(); ccy != "" && ccy != c.quoteCcy {
			margin = 0
		}

		positions = append(positions, domain.LivePosition{
			Symbol:       p.Get("instId").String(),
			Quantity:     qty,
			PositionSide: domain.PositionSide(p.Get("posSide").String()),
			MarginMode:   mode,
			EntryPrice:   p.Get("avgPx").Float(),
			Leverage:     p.Get("lever").Float(),
			Margin:       margin,
			MarkPrice:    p.Get("markPx").Float(),
		})
	}
	return positions, nil
}

// PositionMode는 계정의 포지션 모드를 조회합니다
func (c *Client) PositionMode(ctx context.Context) (domain.PositionMode, error) {
	data, err := c.doRequest(ctx, "account_config", http.MethodGet, "/api/v5/account/config", nil, nil, true)
	if err != nil {
		return "", fmt.Errorf("계정 설정 조회 실패: %w", err)
	}

	switch mode := data.Get("0.posMode").String(); mode {
	case "long_short_mode":
		return domain.DualMode, nil
	case "net_mode":
		return domain.NetMode, nil
	default:
		return "", fmt.Errorf("알 수 없는 포지션 모드: %q", mode)
	}
}

// SetLeverage는 심볼의 레버리지를 설정합니다
func (c *Client) SetLeverage(ctx context.Context, req domain.LeverageRequest) error {
	body := map[string]string{
		"instId":  req.Symbol,
		"lever":   strconv.Itoa(req.Leverage),
		"mgnMode": string(req.MarginMode),
	}
	// posSide는 격리 마진 + 듀얼 모드에서만 허용됩니다
	if req.MarginMode == domain.Isolated && isDirectional(req.PositionSide) {
		body["posSide"] = string(req.PositionSide)
	}

	if _, err := c.doRequest(ctx, "set_leverage", http.MethodPost, "/api/v5/account/set-leverage", nil, body, true); err != nil {
		return fmt.Errorf("레버리지 설정 실패: %w", err)
	}
	return nil
}

func isDirectional(side domain.PositionSide) bool {
	return side == domain.PositionSideLong || side == domain.PositionSideShort
}
