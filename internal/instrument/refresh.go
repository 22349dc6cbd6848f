package instrument

import (
	"context"
	"fmt"

	"github.com/assist-by/sentinel/internal/logger"
	"github.com/assist-by/sentinel/internal/notification"
)

// RefreshObserver는 갱신 결과를 기록합니다
type RefreshObserver interface {
	ObserveCatalogRefresh(err error, instruments int)
}

// RefreshTask는 스케줄러가 주기적으로 실행하는 카탈로그 갱신 작업입니다
type RefreshTask struct {
	catalog  *Catalog
	notifier notification.Notifier
	observer RefreshObserver
}

// NewRefreshTask는 새로운 갱신 작업을 생성합니다
// notifier와 observer는 nil일 수 있습니다
func NewRefreshTask(catalog *Catalog, notifier notification.Notifier, observer RefreshObserver) *RefreshTask {
	return &RefreshTask{
		catalog:  catalog,
		notifier: notifier,
		observer: observer,
	}
}

// Execute는 카탈로그를 갱신합니다
// 실패해도 기존 스냅샷은 그대로 유지됩니다
func (t *RefreshTask) Execute(ctx context.Context) error {
	err := t.catalog.Refresh(ctx)
	if t.observer != nil {
		t.observer.ObserveCatalogRefresh(err, t.catalog.Len())
	}
	if err != nil {
		logger.Errorf("심볼 규격 갱신 실패: %v", err)
		if t.notifier != nil {
			if notifyErr := t.notifier.SendError(fmt.Errorf("심볼 규격 갱신 실패: %w", err)); notifyErr != nil {
				logger.Warnf("에러 알림 전송 실패: %v", notifyErr)
			}
		}
		return err
	}
	return nil
}
