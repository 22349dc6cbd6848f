package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/assist-by/sentinel/internal/logger"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 Task 인터페이스를 구현합니다
func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

// Scheduler는 주기 경계에 맞춰 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, interval time.Duration, task Task) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		stopCh:   make(chan struct{}),
	}
}

// Start는 ctx가 취소되거나 Stop이 호출될 때까지 작업을 반복 실행합니다
// 작업이 실패해도 다음 주기는 계속 실행합니다
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			if err := s.task.Execute(ctx); err != nil {
				logger.Warnf("[%s] 작업 실행 실패: %v", s.name, err)
			}
			timer.Reset(s.untilNext())
		}
	}
}

// untilNext는 다음 주기 경계까지 남은 시간을 계산합니다
func (s *Scheduler) untilNext() time.Duration {
	now := time.Now()
	nextRun := now.Truncate(s.interval).Add(s.interval)
	wait := nextRun.Sub(now)

	logger.Debugf("[%s] 다음 실행까지 %v 대기 (다음 실행: %s)",
		s.name, wait.Round(time.Millisecond), nextRun.Format("15:04:05"))
	return wait
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}
