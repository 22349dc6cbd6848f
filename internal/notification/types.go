package notification

import "github.com/assist-by/sentinel/internal/domain"

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 운영자 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendExecution은 의도 처리 결과를 전송합니다
	SendExecution(result *domain.ExecutionResult) error
}

// GetColorForStatus는 실행 상태에 따른 색상을 반환합니다
func GetColorForStatus(status domain.Status) int {
	switch status {
	case domain.StatusSuccess:
		return ColorSuccess
	case domain.StatusFailed:
		return ColorError
	case domain.StatusPartial:
		return ColorWarning
	default:
		return ColorInfo
	}
}

// Nop은 아무것도 전송하지 않는 Notifier입니다
type Nop struct{}

func (Nop) SendError(error) error { return nil }

func (Nop) SendInfo(string) error { return nil }

func (Nop) SendExecution(*domain.ExecutionResult) error { return nil }
