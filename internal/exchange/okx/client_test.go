package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
	Header http.Header
	Raw    string
}

// fakeOKX는 경로별로 고정 응답을 돌려주는 테스트 서버입니다
type fakeOKX struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]string
	status   map[string]int
}

func newFakeOKX(t *testing.T) (*fakeOKX, *Client) {
	t.Helper()
	f := &fakeOKX{routes: map[string]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	c := NewClient("key", "secret", "pass", WithBaseURL(srv.URL), WithRateLimit(0, 0))
	return f, c
}

func (f *fakeOKX) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Raw:    string(raw),
	}
	if len(raw) > 0 && raw[0] == '{' {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	body, ok := f.routes[r.Method+" "+r.URL.Path]
	status := f.status[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeOKX) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestClient_Signing(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/account/config"] = `{"code":"0","msg":"","data":[{"posMode":"net_mode"}]}`

	_, err := c.PositionMode(context.Background())
	require.NoError(t, err)

	req := f.last()
	ts := req.Header.Get("OK-ACCESS-TIMESTAMP")
	require.NotEmpty(t, ts)
	assert.Equal(t, "key", req.Header.Get("OK-ACCESS-KEY"))
	assert.Equal(t, "pass", req.Header.Get("OK-ACCESS-PASSPHRASE"))

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(ts + "GET" + "/api/v5/account/config"))
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), req.Header.Get("OK-ACCESS-SIGN"))
	assert.Empty(t, req.Header.Get("x-simulated-trading"))
}

func TestClient_DemoTradingHeader(t *testing.T) {
	f, c := newFakeOKX(t)
	WithDemoTrading(true)(c)
	f.routes["GET /api/v5/market/ticker"] = `{"code":"0","data":[{"instId":"DOGE-USDT-SWAP","last":"0.1234"}]}`

	price, err := c.Ticker(context.Background(), "DOGE-USDT-SWAP")
	require.NoError(t, err)
	assert.InDelta(t, 0.1234, price, 1e-12)
	assert.Equal(t, "1", f.last().Header.Get("x-simulated-trading"))
	assert.Equal(t, "instId=DOGE-USDT-SWAP", f.last().Query)
}

func TestClient_Instruments(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/public/instruments"] = `{"code":"0","data":[
		{"instId":"DOGE-USDT-SWAP","state":"live","ctType":"linear","settleCcy":"USDT","ctVal":"1000","ctMult":"1","minSz":"0.01","lotSz":"0.01","tickSz":"0.00001"},
		{"instId":"BTC-USDT-SWAP","state":"live","ctType":"linear","settleCcy":"USDT","ctVal":"0.01","ctMult":"1","minSz":"0.01","lotSz":"0.01","tickSz":"0.1"},
		{"instId":"OLD-USDT-SWAP","state":"suspend","ctType":"linear","settleCcy":"USDT","ctVal":"1","ctMult":"1","minSz":"1","lotSz":"1","tickSz":"0.1"},
		{"instId":"BTC-USD-SWAP","state":"live","ctType":"inverse","settleCcy":"BTC","ctVal":"100","ctMult":"1","minSz":"1","lotSz":"1","tickSz":"0.1"},
		{"instId":"BTC-USDC-SWAP","state":"live","ctType":"linear","settleCcy":"USDC","ctVal":"0.0001","ctMult":"1","minSz":"0.01","lotSz":"0.01","tickSz":"0.1"}
	]}`

	specs, err := c.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, domain.InstrumentSpec{
		Symbol:         "DOGE-USDT-SWAP",
		UnitMultiplier: 1000,
		MinLots:        0.01,
		LotStep:        0.01,
		TickSize:       0.00001,
		PricePrecision: 5,
	}, specs[0])
	assert.InDelta(t, 0.01, specs[1].UnitMultiplier, 1e-12)
	assert.Equal(t, 1, specs[1].PricePrecision)
	assert.Equal(t, "instType=SWAP", f.last().Query)
	for _, spec := range specs {
		assert.NotEqual(t, "BTC-USD-SWAP", spec.Symbol, "인버스 계약은 제외")
		assert.NotEqual(t, "BTC-USDC-SWAP", spec.Symbol, "다른 통화 정산 계약은 제외")
	}
}

func TestClient_Instruments_QuoteCurrency(t *testing.T) {
	f, c := newFakeOKX(t)
	WithQuoteCurrency("USDC")(c)
	f.routes["GET /api/v5/public/instruments"] = `{"code":"0","data":[
		{"instId":"BTC-USDT-SWAP","state":"live","ctType":"linear","settleCcy":"USDT","ctVal":"0.01","ctMult":"1","minSz":"0.01","lotSz":"0.01","tickSz":"0.1"},
		{"instId":"BTC-USDC-SWAP","state":"live","ctType":"linear","settleCcy":"USDC","ctVal":"0.0001","ctMult":"1","minSz":"0.01","lotSz":"0.01","tickSz":"0.1"}
	]}`

	specs, err := c.Instruments(context.Background())
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "BTC-USDC-SWAP", specs[0].Symbol)
}

func TestClient_Account(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEq    float64
		wantAvail float64
	}{
		{
			name:      "availEq 사용",
			body:      `{"code":"0","data":[{"totalEq":"1000.5","details":[{"ccy":"USDT","availEq":"800.25","availBal":"700","eq":"1000"}]}]}`,
			wantEq:    1000.5,
			wantAvail: 800.25,
		},
		{
			name:      "availEq가 비어 있으면 availBal 사용",
			body:      `{"code":"0","data":[{"totalEq":"500","details":[{"ccy":"USDT","availEq":"","availBal":"450"}]}]}`,
			wantEq:    500,
			wantAvail: 450,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeOKX(t)
			f.routes["GET /api/v5/account/balance"] = tt.body

			state, err := c.Account(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, tt.wantEq, state.TotalEquity, 1e-9)
			assert.InDelta(t, tt.wantAvail, state.AvailableMargin, 1e-9)
		})
	}
}

func TestClient_Positions(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/account/positions"] = `{"code":"0","data":[
		{"instId":"DOGE-USDT-SWAP","pos":"-0.04","posSide":"net","mgnMode":"cross","avgPx":"0.2","lever":"5","imr":"1.6","margin":"","markPx":"0.21"},
		{"instId":"ETH-USDT-SWAP","pos":"0.04","posSide":"short","mgnMode":"isolated","avgPx":"3000","lever":"3","imr":"","margin":"40","markPx":"2990"},
		{"instId":"BTC-USDT-SWAP","pos":"0","posSide":"net","mgnMode":"cross"},
		{"instId":"BTC-USD-SWAP","pos":"3","posSide":"net","mgnMode":"cross","ccy":"BTC","avgPx":"67000","lever":"10","imr":"0.0004"}
	]}`

	positions, err := c.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 3)

	assert.InDelta(t, -0.04, positions[0].Quantity, 1e-12)
	assert.Equal(t, domain.PositionSideNet, positions[0].PositionSide)
	assert.Equal(t, domain.Cross, positions[0].MarginMode)
	assert.InDelta(t, 1.6, positions[0].Margin, 1e-12)

	assert.Equal(t, domain.PositionSideShort, positions[1].PositionSide)
	assert.Equal(t, domain.Isolated, positions[1].MarginMode)
	assert.InDelta(t, 40, positions[1].Margin, 1e-12)
	assert.Equal(t, domain.Short, positions[1].Direction(domain.DualMode))

	assert.Equal(t, "BTC-USD-SWAP", positions[2].Symbol)
	assert.Zero(t, positions[2].Margin, "BTC 단위 마진은 USDT 마진과 합산하지 않음")
}

func TestClient_PositionMode(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/account/config"] = `{"code":"0","data":[{"posMode":"long_short_mode"}]}`

	mode, err := c.PositionMode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DualMode, mode)
}

func TestClient_PlaceOrder(t *testing.T) {
	tests := []struct {
		name       string
		order      domain.OrderRequest
		wantFields map[string]any
		absent     []string
	}{
		{
			name: "넷 모드 청산은 reduceOnly, posSide 없음",
			order: domain.OrderRequest{
				Symbol: "DOGE-USDT-SWAP", Side: domain.Buy, Type: domain.Market, Lots: 0.04,
				MarginMode: domain.Cross, ReduceOnly: true, ClientOrderID: "abc123",
			},
			wantFields: map[string]any{"tdMode": "cross", "side": "buy", "ordType": "market", "sz": "0.04", "reduceOnly": true, "clOrdId": "abc123"},
			absent:     []string{"posSide", "px"},
		},
		{
			name: "듀얼 모드 지정가 진입은 posSide 포함",
			order: domain.OrderRequest{
				Symbol: "ETH-USDT-SWAP", Side: domain.Sell, Type: domain.Limit, Lots: 1.5, Price: 3000.5,
				MarginMode: domain.Isolated, PositionSide: domain.PositionSideShort,
			},
			wantFields: map[string]any{"tdMode": "isolated", "side": "sell", "ordType": "limit", "sz": "1.5", "px": "3000.5", "posSide": "short"},
			absent:     []string{"reduceOnly", "clOrdId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeOKX(t)
			f.routes["POST /api/v5/trade/order"] = `{"code":"0","data":[{"ordId":"111","clOrdId":"abc123","sCode":"0","sMsg":""}]}`

			resp, err := c.PlaceOrder(context.Background(), tt.order)
			require.NoError(t, err)
			assert.Equal(t, "111", resp.OrderID)

			body := f.last().Body
			for k, v := range tt.wantFields {
				assert.Equal(t, v, body[k], k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, body, k)
			}
		})
	}
}

func TestClient_PlaceOrderRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "파라미터 불일치",
			body: `{"code":"1","msg":"All operations failed","data":[{"ordId":"","sCode":"51000","sMsg":"Parameter posSide error"}]}`,
			want: domain.ErrParameterMismatch,
		},
		{
			name: "마진 부족",
			body: `{"code":"1","msg":"All operations failed","data":[{"ordId":"","sCode":"51008","sMsg":"Order failed. Insufficient USDT balance"}]}`,
			want: domain.ErrInsufficientMargin,
		},
		{
			name: "랏 단위 거부",
			body: `{"code":"1","msg":"All operations failed","data":[{"ordId":"","sCode":"51121","sMsg":"Order quantity must be a multiple of the lot size"}]}`,
			want: domain.ErrLotSizeRejected,
		},
		{
			name: "알 수 없는 코드",
			body: `{"code":"1","msg":"All operations failed","data":[{"ordId":"","sCode":"59999","sMsg":"something odd"}]}`,
			want: domain.ErrVenueUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, c := newFakeOKX(t)
			f.routes["POST /api/v5/trade/order"] = tt.body

			_, err := c.PlaceOrder(context.Background(), domain.OrderRequest{
				Symbol: "DOGE-USDT-SWAP", Side: domain.Buy, Type: domain.Market, Lots: 1, MarginMode: domain.Cross,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, exchange.IsTransient(err))

			var venueErr *domain.VenueError
			require.True(t, errors.As(err, &venueErr))
			assert.Equal(t, "place_order", venueErr.Op)
		})
	}
}

func TestClient_TransientFailures(t *testing.T) {
	t.Run("5xx 응답", func(t *testing.T) {
		f, c := newFakeOKX(t)
		f.routes["GET /api/v5/account/positions"] = `oops`
		f.status["GET /api/v5/account/positions"] = http.StatusBadGateway

		_, err := c.Positions(context.Background())
		require.Error(t, err)
		assert.True(t, exchange.IsTransient(err))
	})

	t.Run("요청 한도 코드", func(t *testing.T) {
		f, c := newFakeOKX(t)
		f.routes["GET /api/v5/account/positions"] = `{"code":"50011","msg":"Too Many Requests","data":[]}`

		_, err := c.Positions(context.Background())
		require.Error(t, err)
		assert.True(t, exchange.IsTransient(err))
	})
}

func TestClient_Order(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/trade/order"] = `{"code":"0","data":[{"instId":"DOGE-USDT-SWAP","ordId":"111","clOrdId":"c1","state":"filled","accFillSz":"197","avgPx":"2.5306","cTime":"1700000000000"}]}`

	resp, err := c.Order(context.Background(), "DOGE-USDT-SWAP", "111")
	require.NoError(t, err)
	assert.Equal(t, "filled", resp.State)
	assert.InDelta(t, 197, resp.FilledLots, 1e-12)
	assert.InDelta(t, 2.5306, resp.AvgFillPrice, 1e-12)
	assert.Equal(t, int64(1700000000000), resp.CreatedAt.UnixMilli())
}

func TestClient_PlaceConditionalOrder(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["POST /api/v5/trade/order-algo"] = `{"code":"0","data":[{"algoId":"a1","algoClOrdId":"","sCode":"0","sMsg":""}]}`

	resp, err := c.PlaceConditionalOrder(context.Background(), domain.ConditionalOrderRequest{
		Symbol: "DOGE-USDT-SWAP", Kind: domain.StopLoss, Side: domain.Sell, Lots: 197,
		TriggerPrice: 2.4, MarginMode: domain.Cross, ReduceOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", resp.OrderID)

	body := f.last().Body
	assert.Equal(t, "conditional", body["ordType"])
	assert.Equal(t, "2.4", body["slTriggerPx"])
	assert.Equal(t, "-1", body["slOrdPx"])
	assert.Equal(t, true, body["reduceOnly"])
	assert.NotContains(t, body, "tpTriggerPx")
}

func TestClient_CancelConditionalOrders(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/trade/orders-algo-pending"] = `{"code":"0","data":[{"algoId":"a1"},{"algoId":"a2"}]}`
	f.routes["POST /api/v5/trade/cancel-algos"] = `{"code":"0","data":[{"algoId":"a1","sCode":"0"},{"algoId":"a2","sCode":"0"}]}`

	n, err := c.CancelConditionalOrders(context.Background(), "DOGE-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	req := f.last()
	assert.Equal(t, "/api/v5/trade/cancel-algos", req.Path)
	assert.JSONEq(t, `[{"algoId":"a1","instId":"DOGE-USDT-SWAP"},{"algoId":"a2","instId":"DOGE-USDT-SWAP"}]`, req.Raw)
}

func TestClient_SetLeverage(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["POST /api/v5/account/set-leverage"] = `{"code":"0","data":[{"lever":"5"}]}`

	err := c.SetLeverage(context.Background(), domain.LeverageRequest{
		Symbol: "DOGE-USDT-SWAP", Leverage: 5, MarginMode: domain.Cross, PositionSide: domain.PositionSideLong,
	})
	require.NoError(t, err)

	body := f.last().Body
	assert.Equal(t, "5", body["lever"])
	assert.Equal(t, "cross", body["mgnMode"])
	assert.NotContains(t, body, "posSide")
}

func TestClient_SyncTime(t *testing.T) {
	f, c := newFakeOKX(t)
	f.routes["GET /api/v5/public/time"] = `{"code":"0","data":[{"ts":"1700000000000"}]}`

	require.NoError(t, c.SyncTime(context.Background()))
	assert.InDelta(t, 1700000000000, c.now().UnixMilli(), 5000)
}
