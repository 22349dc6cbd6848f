// Package execution은 매매 의도 하나를 검증부터 보고까지 처리하는 상태 머신을 제공합니다
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/exchange"
	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/logger"
	"github.com/assist-by/sentinel/internal/margin"
	"github.com/assist-by/sentinel/internal/notification"
	"github.com/assist-by/sentinel/internal/position"
	"github.com/assist-by/sentinel/internal/retry"
	"github.com/assist-by/sentinel/internal/risk"
)

// Recorder는 실행 지표를 기록합니다
type Recorder interface {
	ObserveResult(result *domain.ExecutionResult)
	ObserveStage(stage domain.Stage, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveResult(*domain.ExecutionResult) {}

func (nopRecorder) ObserveStage(domain.Stage, time.Duration) {}

// Deps는 Coordinator가 사용하는 구성 요소입니다
// Notifier와 Metrics는 nil일 수 있습니다
type Deps struct {
	Venue      exchange.Venue
	Catalog    instrument.Lookup
	Calculator *margin.Calculator
	Validator  *risk.Validator
	Reconciler *position.Reconciler
	Notifier   notification.Notifier
	Metrics    Recorder
}

// Settings는 실행 정책을 정의합니다
type Settings struct {
	MarginMode           domain.MarginMode // 신규 진입에 사용할 마진 모드
	Retry                retry.Config      // 읽기 전용 조회 재시도 설정
	MaxConcurrentSymbols int               // ExecuteBatch 동시 처리 심볼 수 (0이면 제한 없음)
	CancelStaleOnClose   bool              // 청산 후 남은 조건부 주문 취소 여부
}

// Coordinator는 의도별 실행 파이프라인을 조율합니다
type Coordinator struct {
	venue      exchange.Venue
	catalog    instrument.Lookup
	calculator *margin.Calculator
	validator  *risk.Validator
	reconciler *position.Reconciler
	notifier   notification.Notifier
	metrics    Recorder
	settings   Settings

	locks *symbolLocks
	mode  modeCache
}

// NewCoordinator는 새로운 Coordinator를 생성합니다
func NewCoordinator(deps Deps, settings Settings) (*Coordinator, error) {
	switch {
	case deps.Venue == nil:
		return nil, errors.New("venue가 필요합니다")
	case deps.Catalog == nil:
		return nil, errors.New("catalog가 필요합니다")
	case deps.Calculator == nil:
		return nil, errors.New("calculator가 필요합니다")
	case deps.Validator == nil:
		return nil, errors.New("validator가 필요합니다")
	case deps.Reconciler == nil:
		return nil, errors.New("reconciler가 필요합니다")
	}
	if settings.MarginMode == "" {
		settings.MarginMode = domain.Cross
	}
	if !settings.MarginMode.Valid() {
		return nil, fmt.Errorf("지원하지 않는 마진 모드: %s", settings.MarginMode)
	}

	c := &Coordinator{
		venue:      deps.Venue,
		catalog:    deps.Catalog,
		calculator: deps.Calculator,
		validator:  deps.Validator,
		reconciler: deps.Reconciler,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		settings:   settings,
		locks:      newSymbolLocks(),
	}
	if c.notifier == nil {
		c.notifier = notification.Nop{}
	}
	if c.metrics == nil {
		c.metrics = nopRecorder{}
	}
	return c, nil
}

// Execute는 의도 하나를 끝까지 처리합니다
// 결과는 항상 반환되며, 에러는 failed/partial 상태의 원인입니다
func (c *Coordinator) Execute(ctx context.Context, intent domain.TradeIntent) (*domain.ExecutionResult, error) {
	run := c.newRun(intent)

	if intent.Action == domain.Hold {
		return c.finish(run, domain.StatusSkipped, nil)
	}
	if err := intent.Validate(); err != nil {
		return c.fail(run, domain.NewExecutionError(intent.Symbol, "validate_intent", err))
	}

	// 같은 심볼의 의도는 파이프라인 전체를 직렬로 처리
	unlock := c.locks.lock(intent.Symbol)
	defer unlock()

	if intent.Action.IsOpen() {
		return c.executeOpen(ctx, run)
	}
	return c.executeClose(ctx, run)
}

// ExecuteBatch는 의도들을 심볼별로 묶어 심볼 간에는 동시에, 심볼 안에서는 순서대로 처리합니다
// 결과는 입력 순서를 유지합니다
func (c *Coordinator) ExecuteBatch(ctx context.Context, intents []domain.TradeIntent) ([]*domain.ExecutionResult, error) {
	results := make([]*domain.ExecutionResult, len(intents))

	groups := make(map[string][]int)
	var order []string
	for i, in := range intents {
		if _, ok := groups[in.Symbol]; !ok {
			order = append(order, in.Symbol)
		}
		groups[in.Symbol] = append(groups[in.Symbol], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	if c.settings.MaxConcurrentSymbols > 0 {
		g.SetLimit(c.settings.MaxConcurrentSymbols)
	}
	for _, symbol := range order {
		indexes := groups[symbol]
		g.Go(func() error {
			for _, i := range indexes {
				// 개별 의도 실패는 배치를 중단하지 않습니다
				results[i], _ = c.Execute(gctx, intents[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// run은 의도 하나의 처리 상태입니다
type run struct {
	intent  domain.TradeIntent
	result  *domain.ExecutionResult
	started time.Time
	log     *slog.Logger
}

func (c *Coordinator) newRun(intent domain.TradeIntent) *run {
	now := time.Now()
	r := &run{
		intent:  intent,
		started: now,
		log:     logger.With("intent_id", intent.ID, "symbol", intent.Symbol, "action", intent.Action.String()),
		result: &domain.ExecutionResult{
			IntentID:           intent.ID,
			Symbol:             intent.Symbol,
			Action:             intent.Action.String(),
			ProtectiveOrderIDs: []string{},
			Errors:             []domain.ResultError{},
			StartedAt:          now,
		},
	}
	c.advance(r, domain.StageReceived)
	return r
}

func (c *Coordinator) advance(r *run, stage domain.Stage) {
	r.result.Advance(stage)
	c.metrics.ObserveStage(stage, time.Since(r.started))
	r.log.Debug("단계 전환", "stage", string(stage))
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.result.Warnings = append(r.result.Warnings, msg)
	r.log.Warn(msg)
}

// fail은 에러를 기록하고 failed 상태로 종료합니다
func (c *Coordinator) fail(r *run, err error) (*domain.ExecutionResult, error) {
	r.result.AddError(err)
	var venueErr *domain.VenueError
	if errors.As(err, &venueErr) {
		r.log.Warn("거래소 거부", "op", venueErr.Op, "code", venueErr.Code, "error", err)
	}
	return c.finish(r, domain.StatusFailed, err)
}

func (c *Coordinator) finish(r *run, status domain.Status, err error) (*domain.ExecutionResult, error) {
	r.result.Status = status
	c.advance(r, domain.StageDone)
	r.result.FinishedAt = time.Now()
	c.metrics.ObserveResult(r.result)

	switch status {
	case domain.StatusFailed, domain.StatusPartial:
		if status == domain.StatusPartial {
			r.log.Error("부분 실패", "error", err)
		}
		if notifyErr := c.notifier.SendExecution(r.result); notifyErr != nil {
			r.log.Warn("실행 결과 알림 전송 실패", "error", notifyErr)
		}
	}
	return r.result, err
}

// positionMode는 세션당 한 번 계정 포지션 모드를 조회합니다
// 조회에 성공한 경우에만 캐시합니다
func (c *Coordinator) positionMode(ctx context.Context) (domain.PositionMode, error) {
	c.mode.mu.Lock()
	defer c.mode.mu.Unlock()

	if c.mode.resolved {
		return c.mode.value, nil
	}
	mode, err := retry.Value(ctx, c.settings.Retry, "포지션 모드 조회", exchange.IsTransient, c.venue.PositionMode)
	if err != nil {
		return "", err
	}
	c.mode.value, c.mode.resolved = mode, true
	logger.Infof("계정 포지션 모드: %s", mode)
	return mode, nil
}

// PositionMode는 캐시된 포지션 모드를 반환합니다 (미조회 시 조회)
func (c *Coordinator) PositionMode(ctx context.Context) (domain.PositionMode, error) {
	return c.positionMode(ctx)
}

type modeCache struct {
	mu       sync.Mutex
	value    domain.PositionMode
	resolved bool
}

// symbolLocks는 심볼별 뮤텍스를 관리합니다
// 대기자가 없어진 항목은 맵에서 제거합니다
type symbolLocks struct {
	mu    sync.Mutex
	locks map[string]*symbolLock
}

type symbolLock struct {
	sync.Mutex
	refs int // 보유 중이거나 대기 중인 호출 수 (s.mu로 보호)
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{locks: make(map[string]*symbolLock)}
}

func (s *symbolLocks) lock(symbol string) func() {
	s.mu.Lock()
	l, ok := s.locks[symbol]
	if !ok {
		l = &symbolLock{}
		s.locks[symbol] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, symbol)
		}
		s.mu.Unlock()
	}
}

func (s *symbolLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// newClientOrderID는 거래소 클라이언트 주문 ID를 생성합니다 (영숫자 32자)
func newClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
