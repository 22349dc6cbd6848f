package instrument

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/assist-by/sentinel/internal/domain"
)

// FileConfig는 심볼 규격 YAML 파일 구조입니다
//
//	instruments:
//	  - symbol: DOGE-USDT-SWAP
//	    unit_multiplier: 1000
//	    min_lots: 0.01
//	    lot_step: 0.01
//	    tick_size: 0.00001
//	    price_precision: 5
type FileConfig struct {
	Instruments []domain.InstrumentSpec `yaml:"instruments"`
}

// FileSource는 YAML 파일에서 심볼 규격을 읽습니다
type FileSource struct {
	Path string
}

// Instruments는 Source 인터페이스를 구현합니다
func (f FileSource) Instruments(context.Context) ([]domain.InstrumentSpec, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("심볼 규격 파일 읽기 실패: %w", err)
	}
	return ParseFile(raw)
}

// ParseFile은 YAML 내용을 규격 목록으로 변환합니다
func ParseFile(raw []byte) ([]domain.InstrumentSpec, error) {
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("심볼 규격 파일 파싱 실패: %w", err)
	}
	for i := range cfg.Instruments {
		spec := &cfg.Instruments[i]
		if spec.PricePrecision == 0 && spec.TickSize > 0 {
			spec.PricePrecision = PrecisionOf(strconv.FormatFloat(spec.TickSize, 'f', -1, 64))
		}
	}
	return cfg.Instruments, nil
}
