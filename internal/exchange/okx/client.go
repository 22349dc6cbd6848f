// internal/exchange/okx/client.go
package okx

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/assist-by/sentinel/internal/exchange"
)

const (
	defaultBaseURL = "https://www.okx.com"
	timestampFmt   = "2006-01-02T15:04:05.000Z"
)

// Client는 OKX v5 REST API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	passphrase       string
	baseURL          string
	demoTrading      bool
	instType         string
	quoteCcy         string
	httpClient       *http.Client
	limiter          *rate.Limiter
	serverTimeOffset time.Duration // 서버 시간과의 차이를 저장
	mu               sync.RWMutex
}

var _ exchange.Venue = (*Client)(nil)

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithDemoTrading은 모의 거래 헤더 사용 여부를 설정합니다
func WithDemoTrading(demo bool) ClientOption {
	return func(c *Client) {
		c.demoTrading = demo
	}
}

// WithRateLimit은 초당 요청 수를 제한합니다
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithQuoteCurrency는 잔고 조회에 사용할 결제 통화를 설정합니다
func WithQuoteCurrency(ccy string) ClientOption {
	return func(c *Client) {
		if ccy != "" {
			c.quoteCcy = ccy
		}
	}
}

// NewClient는 새로운 OKX API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey, passphrase string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		passphrase: passphrase,
		baseURL:    defaultBaseURL,
		instType:   "SWAP",
		quoteCcy:   "USDT",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// doRequest는 HTTP 요청을 실행하고 응답의 data 배열을 반환합니다
func (c *Client) doRequest(ctx context.Context, op, method, path string, query url.Values, body any, needSign bool) (gjson.Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, err
		}
	}

	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("요청 본문 마샬링 실패: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("요청 생성 실패: %w", err)
	}

	// 헤더 설정
	req.Header.Set("Content-Type", "application/json")
	if c.demoTrading {
		req.Header.Set("x-simulated-trading", "1")
	}
	if needSign {
		ts := c.now().UTC().Format(timestampFmt)
		req.Header.Set("OK-ACCESS-KEY", c.apiKey)
		req.Header.Set("OK-ACCESS-SIGN", c.sign(ts+method+requestPath+string(payload)))
		req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
		req.Header.Set("OK-ACCESS-PASSPHRASE", c.passphrase)
	}

	// 요청 실행
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, &exchange.TransientError{Err: fmt.Errorf("API 요청 실패 [%s]: %w", op, err)}
	}
	defer resp.Body.Close()

	// 응답 읽기
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &exchange.TransientError{Err: fmt.Errorf("응답 읽기 실패 [%s]: %w", op, err)}
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return gjson.Result{}, &exchange.TransientError{Err: fmt.Errorf("HTTP 에러(%d) [%s]: %s", resp.StatusCode, op, string(raw))}
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, fmt.Errorf("HTTP 에러(%d) [%s]: 잘못된 응답 %s", resp.StatusCode, op, string(raw))
	}

	parsed := gjson.ParseBytes(raw)
	if err := envelopeError(op, parsed); err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("HTTP 에러(%d) [%s]: %s", resp.StatusCode, op, string(raw))
	}

	return parsed.Get("data"), nil
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(prehash string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// now는 서버 시간 오프셋이 반영된 현재 시간을 반환합니다
func (c *Client) now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().Add(c.serverTimeOffset)
}

// SyncTime은 OKX 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	data, err := c.doRequest(ctx, "sync_time", http.MethodGet, "/api/v5/public/time", nil, nil, false)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	ms, err := strconv.ParseInt(data.Get("0.ts").String(), 10, 64)
	if err != nil {
		return fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = time.Until(time.UnixMilli(ms))
	c.mu.Unlock()
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
