package instrument

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/assist-by/sentinel/internal/domain"
	"github.com/assist-by/sentinel/internal/logger"
)

// Source는 심볼 규격을 공급하는 인터페이스입니다
type Source interface {
	Instruments(ctx context.Context) ([]domain.InstrumentSpec, error)
}

// Lookup은 심볼 규격 조회 인터페이스입니다
type Lookup interface {
	Get(symbol string) (domain.InstrumentSpec, error)
}

type snapshot struct {
	specs       map[string]domain.InstrumentSpec
	refreshedAt time.Time
}

// Catalog는 심볼 규격의 불변 스냅샷을 관리합니다
// 읽기는 항상 이전 또는 새 스냅샷 전체를 보며, 일부만 갱신된 상태를 보지 않습니다
type Catalog struct {
	source Source
	snap   atomic.Pointer[snapshot]
	group  singleflight.Group
	now    func() time.Time
}

// NewCatalog는 새로운 카탈로그를 생성합니다
func NewCatalog(source Source) *Catalog {
	c := &Catalog{
		source: source,
		now:    time.Now,
	}
	c.snap.Store(&snapshot{specs: map[string]domain.InstrumentSpec{}})
	return c
}

// NewStaticCatalog는 주어진 규격으로 채워진 카탈로그를 생성합니다
func NewStaticCatalog(specs ...domain.InstrumentSpec) (*Catalog, error) {
	c := NewCatalog(StaticSource(specs))
	if err := c.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// Get은 심볼 규격을 반환합니다
func (c *Catalog) Get(symbol string) (domain.InstrumentSpec, error) {
	spec, ok := c.snap.Load().specs[symbol]
	if !ok {
		return domain.InstrumentSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownInstrument, symbol)
	}
	return spec, nil
}

// Symbols는 캐시된 심볼 목록을 정렬해 반환합니다
func (c *Catalog) Symbols() []string {
	specs := c.snap.Load().specs
	symbols := make([]string, 0, len(specs))
	for s := range specs {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Len은 캐시된 심볼 수를 반환합니다
func (c *Catalog) Len() int {
	return len(c.snap.Load().specs)
}

// RefreshedAt은 마지막 갱신 시간을 반환합니다
func (c *Catalog) RefreshedAt() time.Time {
	return c.snap.Load().refreshedAt
}

// Refresh는 소스에서 규격을 다시 읽어 스냅샷을 교체합니다
// 동시에 여러 번 호출되어도 소스 조회는 한 번만 수행됩니다
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Catalog) refresh(ctx context.Context) error {
	specs, err := c.source.Instruments(ctx)
	if err != nil {
		return fmt.Errorf("심볼 규격 조회 실패: %w", err)
	}

	next := make(map[string]domain.InstrumentSpec, len(specs))
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			logger.Warnf("잘못된 심볼 규격 무시: %v", err)
			continue
		}
		next[spec.Symbol] = spec
	}

	if len(next) == 0 {
		return fmt.Errorf("유효한 심볼 규격이 없습니다 (수신 %d개), 기존 스냅샷 유지", len(specs))
	}

	c.snap.Store(&snapshot{specs: next, refreshedAt: c.now()})
	logger.Debugf("심볼 규격 갱신 완료: %d개", len(next))
	return nil
}

// StaticSource는 고정된 규격 목록을 공급합니다
type StaticSource []domain.InstrumentSpec

// Instruments는 Source 인터페이스를 구현합니다
func (s StaticSource) Instruments(context.Context) ([]domain.InstrumentSpec, error) {
	out := make([]domain.InstrumentSpec, len(s))
	copy(out, s)
	return out, nil
}
