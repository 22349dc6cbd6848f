// Package intent는 상위 전략 계층의 매매 의도를 엄격하게 해석합니다
package intent

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/assist-by/sentinel/internal/domain"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("intent.json", strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schemaCompiled, schemaErr = compiler.Compile("intent.json")
	})
	return schemaCompiled, schemaErr
}

// wireIntent는 action을 문자열로 받는 전송 형식입니다
type wireIntent struct {
	domain.TradeIntent
	Action string `json:"action"`
}

// Decode는 JSON 문서 하나를 검증하고 TradeIntent로 변환합니다
func Decode(raw []byte) (domain.TradeIntent, error) {
	schema, err := compiledSchema()
	if err != nil {
		return domain.TradeIntent{}, fmt.Errorf("의도 스키마 컴파일 실패: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.TradeIntent{}, fmt.Errorf("%w: JSON 파싱 실패: %v", domain.ErrInvalidIntent, err)
	}
	if err := schema.Validate(doc); err != nil {
		return domain.TradeIntent{}, fmt.Errorf("%w: %v", domain.ErrInvalidIntent, err)
	}

	var w wireIntent
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return domain.TradeIntent{}, fmt.Errorf("%w: %v", domain.ErrInvalidIntent, err)
	}

	action, ok := domain.ParseAction(w.Action)
	if !ok {
		return domain.TradeIntent{}, fmt.Errorf("%w: 알 수 없는 action %q", domain.ErrInvalidIntent, w.Action)
	}

	intent := w.TradeIntent
	intent.Action = action
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}

	if err := intent.Validate(); err != nil {
		return domain.TradeIntent{}, err
	}
	return intent, nil
}

// DecodeStream은 줄 단위(NDJSON) 의도를 읽습니다
// 잘못된 줄은 건너뛰고 줄 번호와 함께 에러로 모아 반환합니다
func DecodeStream(r io.Reader) ([]domain.TradeIntent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		intents []domain.TradeIntent
		errs    []error
		line    int
	)
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		intent, err := Decode(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%d번째 줄: %w", line, err))
			continue
		}
		intents = append(intents, intent)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("입력 읽기 실패: %w", err))
	}

	return intents, errors.Join(errs...)
}
