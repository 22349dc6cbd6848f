package domain

import "time"

// Stage는 의도 처리 상태 머신의 단계입니다
type Stage string

const (
	StageReceived                  Stage = "received"
	StageValidated                 Stage = "validated"
	StageSized                     Stage = "sized"
	StageSubmitted                 Stage = "submitted"
	StageProtectiveOrdersAttempted Stage = "protective_orders_attempted"
	StageDone                      Stage = "done"
)

// Status는 종료 상태입니다
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // Hold 의도
)

// ResultError는 상위 계층으로 전달되는 에러 정보입니다
type ResultError struct {
	Category ErrorCategory `json:"category"`
	Kind     string        `json:"kind"`
	Message  string        `json:"message"`
}

// ProtectiveOrder는 보호 주문 결과입니다
type ProtectiveOrder struct {
	Kind         ProtectiveKind `json:"kind"`
	OrderID      string         `json:"orderId,omitempty"`
	TriggerPrice float64        `json:"triggerPrice"`
	Error        string         `json:"error,omitempty"`
}

// ExecutionResult는 의도 처리 결과입니다
// 보호 주문 결과는 주 주문과 별도로 추적합니다
type ExecutionResult struct {
	IntentID           string             `json:"intentId"`
	Symbol             string             `json:"symbol"`
	Action             string             `json:"action"`
	Status             Status             `json:"status"`
	Stages             []Stage            `json:"stages"`
	PrimaryOrderID     string             `json:"primaryOrderId,omitempty"`
	FilledQuantity     float64            `json:"filledQuantity,omitempty"`
	AvgFillPrice       float64            `json:"avgFillPrice,omitempty"`
	ProtectiveOrderIDs []string           `json:"protectiveOrderIds"`
	ProtectiveOrders   []ProtectiveOrder  `json:"protectiveOrders,omitempty"`
	Requirement        *MarginRequirement `json:"requirement,omitempty"`
	Validation         *ValidationResult  `json:"validation,omitempty"`
	Errors             []ResultError      `json:"errors"`
	Warnings           []string           `json:"warnings,omitempty"`
	StartedAt          time.Time          `json:"startedAt"`
	FinishedAt         time.Time          `json:"finishedAt"`
}

// Stage는 마지막으로 도달한 단계를 반환합니다
func (r *ExecutionResult) Stage() Stage {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1]
}

// Advance는 다음 단계를 기록합니다
func (r *ExecutionResult) Advance(stage Stage) {
	r.Stages = append(r.Stages, stage)
}

// AddError는 에러를 분류해 결과에 추가합니다
func (r *ExecutionResult) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, ResultError{
		Category: Classify(err),
		Kind:     KindOf(err),
		Message:  err.Error(),
	})
}

// Reached는 해당 단계를 거쳤는지 확인합니다
func (r *ExecutionResult) Reached(stage Stage) bool {
	for _, s := range r.Stages {
		if s == stage {
			return true
		}
	}
	return false
}
