package domain

import (
	"errors"
	"fmt"
)

// 검증 단계 에러 (네트워크 호출 없음)
var (
	ErrInvalidIntent       = errors.New("잘못된 매매 의도입니다")
	ErrInsufficientCapital = errors.New("가용 자본이 부족합니다")
	ErrBelowMinimumLotSize = errors.New("주문 수량이 최소 랏보다 작습니다")
	ErrRiskLimitExceeded   = errors.New("리스크 한도를 초과했습니다")
	ErrDuplicatePosition   = errors.New("같은 방향의 포지션이 이미 존재합니다")
	ErrUnknownInstrument   = errors.New("알 수 없는 심볼입니다")
)

// 포지션 대사 에러
var (
	// ErrPositionNotFound는 청산 대상 포지션이 없을 때 반환됩니다
	// 손절/익절로 이미 청산되었거나 애초에 진입하지 않은 경우 모두 해당합니다
	ErrPositionNotFound = errors.New("청산할 포지션이 존재하지 않습니다 (TP/SL로 이미 청산되었거나 진입한 적이 없음)")
)

// 거래소 거부 분류
var (
	ErrParameterMismatch  = errors.New("거래소 파라미터 불일치 (마진 모드/포지션 모드)")
	ErrInsufficientMargin = errors.New("거래소 마진 부족")
	ErrLotSizeRejected    = errors.New("거래소가 주문 수량을 거부했습니다")
	ErrVenueUnknown       = errors.New("거래소 오류")
)

// ErrProtectiveOrderFailed는 주 주문 성공 후 보호 주문이 실패했을 때 사용합니다
var ErrProtectiveOrderFailed = errors.New("보호 주문(TP/SL) 설정에 실패했습니다")

// ErrorCategory는 에러 분류 체계의 상위 범주입니다
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryVenue          ErrorCategory = "venue"
	CategoryPartial        ErrorCategory = "partial"
	CategoryInternal       ErrorCategory = "internal"
)

var kindNames = []struct {
	err      error
	name     string
	category ErrorCategory
}{
	{ErrProtectiveOrderFailed, "ProtectiveOrderFailed", CategoryPartial},
	{ErrPositionNotFound, "PositionNotFound", CategoryReconciliation},
	{ErrDuplicatePosition, "DuplicatePosition", CategoryValidation},
	{ErrRiskLimitExceeded, "RiskLimitExceeded", CategoryValidation},
	{ErrBelowMinimumLotSize, "BelowMinimumLotSize", CategoryValidation},
	{ErrInsufficientCapital, "InsufficientCapital", CategoryValidation},
	{ErrUnknownInstrument, "UnknownInstrument", CategoryValidation},
	{ErrInvalidIntent, "InvalidIntent", CategoryValidation},
	{ErrParameterMismatch, "ParameterMismatch", CategoryVenue},
	{ErrInsufficientMargin, "InsufficientMargin", CategoryVenue},
	{ErrLotSizeRejected, "LotSizeRejected", CategoryVenue},
	{ErrVenueUnknown, "Unknown", CategoryVenue},
}

// Classify는 에러의 상위 범주를 반환합니다
func Classify(err error) ErrorCategory {
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.category
		}
	}
	return CategoryInternal
}

// KindOf는 에러의 세부 종류 이름을 반환합니다
func KindOf(err error) string {
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// RuleViolation은 위반된 리스크 규칙 하나를 표현합니다
type RuleViolation struct {
	Rule   ReasonCode `json:"rule"`
	Reason string     `json:"reason"`
	Value  float64    `json:"value"` // 계산된 값
	Limit  float64    `json:"limit"` // 설정된 한도
}

// Error는 error 인터페이스를 구현합니다
func (v *RuleViolation) Error() string {
	return fmt.Sprintf("리스크 규칙 위반 [%s]: %s (값: %.4f, 한도: %.4f)", v.Rule, v.Reason, v.Value, v.Limit)
}

// Is는 errors.Is 비교를 지원합니다
func (v *RuleViolation) Is(target error) bool {
	if v.Rule == ReasonDuplicatePosition {
		return target == ErrDuplicatePosition
	}
	return target == ErrRiskLimitExceeded
}

// VenueError는 거래소 거부 응답을 구조화해 전달합니다
type VenueError struct {
	Op      string // 호출 작업 (예: place_order)
	Code    string // 거래소 에러 코드
	Message string // 거래소 에러 메시지
	Kind    error  // 분류된 종류 (ErrParameterMismatch 등)
}

// Error는 error 인터페이스를 구현합니다
func (e *VenueError) Error() string {
	kind := e.Kind
	if kind == nil {
		kind = ErrVenueUnknown
	}
	return fmt.Sprintf("%v [작업: %s, 코드: %s]: %s", kind, e.Op, e.Code, e.Message)
}

// Unwrap은 분류된 종류를 반환합니다 (errors.Is/As 지원을 위함)
func (e *VenueError) Unwrap() error {
	if e.Kind == nil {
		return ErrVenueUnknown
	}
	return e.Kind
}

// ExecutionError는 실행 중 발생한 에러에 심볼과 작업 정보를 붙입니다
type ExecutionError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *ExecutionError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("실행 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("실행 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError는 새로운 ExecutionError를 생성합니다
func NewExecutionError(symbol, op string, err error) *ExecutionError {
	return &ExecutionError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
