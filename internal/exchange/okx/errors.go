package okx

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange"
)

// OKX 응답 코드 분류
var (
	transientCodes = map[string]bool{
		"50001": true, // 서비스 일시 중단
		"50004": true, // 엔드포인트 타임아웃
		"50011": true, // 요청 한도 초과
		"50013": true, // 시스템 혼잡
	}

	parameterMismatchCodes = map[string]bool{
		"51000": true,
		"51010": true,
		"50014": true,
		"51169": true,
	}

	insufficientMarginCodes = map[string]bool{
		"51008": true,
		"51127": true,
	}

	lotSizeCodes = map[string]bool{
		"51121": true,
		"51020": true,
	}
)

// envelopeError는 응답 봉투(code/msg)와 항목별 sCode를 검사합니다
func envelopeError(op string, res gjson.Result) error {
	code := res.Get("code").String()
	if code == "" || code == "0" {
		return nil
	}

	msg := res.Get("msg").String()
	// 주문 계열 응답은 항목별 sCode에 실제 사유가 담깁니다
	for _, item := range res.Get("data").Array() {
		if sc := item.Get("sCode").String(); sc != "" && sc != "0" {
			code = sc
			msg = item.Get("sMsg").String()
			break
		}
	}

	return classify(op, code, msg)
}

// itemError는 성공 봉투 안에서 실패한 단일 항목을 검사합니다
func itemError(op string, item gjson.Result) error {
	sc := item.Get("sCode").String()
	if sc == "" || sc == "0" {
		return nil
	}
	return classify(op, sc, item.Get("sMsg").String())
}

func classify(op, code, msg string) error {
	if transientCodes[code] {
		return &exchange.TransientError{Err: &domain.VenueError{Op: op, Code: code, Message: msg, Kind: domain.ErrVenueUnknown}}
	}
	return &domain.VenueError{Op: op, Code: code, Message: msg, Kind: kindFor(code, msg)}
}

func kindFor(code, msg string) error {
	switch {
	case parameterMismatchCodes[code]:
		return domain.ErrParameterMismatch
	case insufficientMarginCodes[code]:
		return domain.ErrInsufficientMargin
	case lotSizeCodes[code]:
		return domain.ErrLotSizeRejected
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "insufficient"):
		return domain.ErrInsufficientMargin
	case strings.Contains(lower, "lot size"):
		return domain.ErrLotSizeRejected
	case strings.Contains(lower, "posside"), strings.Contains(lower, "position mode"),
		strings.Contains(lower, "tdmode"), strings.Contains(lower, "margin mode"):
		return domain.ErrParameterMismatch
	default:
		return domain.ErrVenueUnknown
	}
}
