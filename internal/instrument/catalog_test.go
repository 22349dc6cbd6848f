package instrument

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Silent()
	m.Run()
}

type funcSource func(ctx context.Context) ([]domain.InstrumentSpec, error)

func (f funcSource) Instruments(ctx context.Context) ([]domain.InstrumentSpec, error) { return f(ctx) }

func TestCatalog_Get(t *testing.T) {
	c, err := NewStaticCatalog(dogeSpec, ethSpec)
	require.NoError(t, err)

	spec, err := c.Get("ETH-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, ethSpec, spec)

	_, err = c.Get("BTC-USDT-SWAP")
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument)

	assert.Equal(t, []string{"DOGE-USDT-SWAP", "ETH-USDT-SWAP"}, c.Symbols())
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.RefreshedAt().IsZero())
}

func TestCatalog_SkipsInvalidSpecs(t *testing.T) {
	broken := domain.InstrumentSpec{Symbol: "BAD-USDT-SWAP", UnitMultiplier: 0, LotStep: 1}

	c, err := NewStaticCatalog(dogeSpec, broken)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	_, err = c.Get("BAD-USDT-SWAP")
	assert.ErrorIs(t, err, domain.ErrUnknownInstrument)
}

func TestCatalog_FailedRefreshKeepsSnapshot(t *testing.T) {
	fail := false
	c := NewCatalog(funcSource(func(context.Context) ([]domain.InstrumentSpec, error) {
		if fail {
			return nil, errors.New("연결 실패")
		}
		return []domain.InstrumentSpec{dogeSpec}, nil
	}))
	require.NoError(t, c.Refresh(context.Background()))
	before := c.RefreshedAt()

	fail = true
	assert.Error(t, c.Refresh(context.Background()))

	spec, err := c.Get("DOGE-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, dogeSpec, spec)
	assert.Equal(t, before, c.RefreshedAt())
}

func TestCatalog_EmptyRefreshKeepsSnapshot(t *testing.T) {
	var specs atomic.Value
	specs.Store([]domain.InstrumentSpec{dogeSpec})
	c := NewCatalog(funcSource(func(context.Context) ([]domain.InstrumentSpec, error) {
		return specs.Load().([]domain.InstrumentSpec), nil
	}))
	require.NoError(t, c.Refresh(context.Background()))

	specs.Store([]domain.InstrumentSpec{{Symbol: "BAD"}})
	assert.Error(t, c.Refresh(context.Background()))
	assert.Equal(t, 1, c.Len())
}

// 갱신 중에도 읽기는 항상 이전 또는 새 스냅샷 전체만 봐야 합니다
func TestCatalog_ConcurrentRefreshIsAtomic(t *testing.T) {
	first := []domain.InstrumentSpec{dogeSpec, ethSpec}
	second := []domain.InstrumentSpec{
		{Symbol: "BTC-USDT-SWAP", UnitMultiplier: 0.01, MinLots: 0.01, LotStep: 0.01, TickSize: 0.1, PricePrecision: 1},
		{Symbol: "SOL-USDT-SWAP", UnitMultiplier: 1, MinLots: 0.01, LotStep: 0.01, TickSize: 0.001, PricePrecision: 3},
	}

	var n atomic.Int64
	c := NewCatalog(funcSource(func(context.Context) ([]domain.InstrumentSpec, error) {
		if n.Add(1)%2 == 0 {
			return second, nil
		}
		return first, nil
	}))
	require.NoError(t, c.Refresh(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			_ = c.Refresh(ctx)
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				symbols := c.Symbols()
				ok := assert.ObjectsAreEqual([]string{"DOGE-USDT-SWAP", "ETH-USDT-SWAP"}, symbols) ||
					assert.ObjectsAreEqual([]string{"BTC-USDT-SWAP", "SOL-USDT-SWAP"}, symbols)
				if !ok {
					t.Errorf("섞인 스냅샷을 관찰했습니다: %v", symbols)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCatalog_RefreshCallsAreCoalesced(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c := NewCatalog(funcSource(func(context.Context) ([]domain.InstrumentSpec, error) {
		calls.Add(1)
		<-release
		return []domain.InstrumentSpec{dogeSpec}, nil
	}))

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Refresh(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Less(t, calls.Load(), int32(callers))
	assert.Equal(t, 1, c.Len())
}
