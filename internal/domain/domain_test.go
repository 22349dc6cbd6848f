package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"hold", Hold, true},
		{"OPEN_LONG", OpenLong, true},
		{" open_short ", OpenShort, true},
		{"close_long", CloseLong, true},
		{"close_short", CloseShort, true},
		{"buy", Hold, false},
	}
	for _, tt := range tests {
		got, ok := ParseAction(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		if ok {
			assert.Equal(t, got, mustParse(t, got.String()))
		}
	}
}

func mustParse(t *testing.T, s string) Action {
	t.Helper()
	a, ok := ParseAction(s)
	assert.True(t, ok, s)
	return a
}

func TestAction_Direction(t *testing.T) {
	assert.Equal(t, Long, OpenLong.Direction())
	assert.Equal(t, Long, CloseLong.Direction())
	assert.Equal(t, Short, OpenShort.Direction())
	assert.Equal(t, Short, CloseShort.Direction())
	assert.Equal(t, NoDirection, Hold.Direction())

	assert.True(t, OpenShort.IsOpen())
	assert.False(t, CloseShort.IsOpen())
	assert.True(t, CloseLong.IsClose())
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, NoDirection, NoDirection.Opposite())
}

func TestLivePosition_Direction(t *testing.T) {
	tests := []struct {
		name string
		pos  LivePosition
		mode PositionMode
		want Direction
	}{
		{"넷 모드 음수 수량", LivePosition{Quantity: -0.04}, NetMode, Short},
		{"넷 모드 양수 수량", LivePosition{Quantity: 0.04}, NetMode, Long},
		{"듀얼 모드 숏 사이드", LivePosition{Quantity: 0.04, PositionSide: PositionSideShort}, DualMode, Short},
		{"듀얼 모드 롱 사이드", LivePosition{Quantity: 0.04, PositionSide: PositionSideLong}, DualMode, Long},
		{"듀얼 모드 사이드 없음", LivePosition{Quantity: -1}, DualMode, Short},
		{"넷 모드에서 사이드 무시", LivePosition{Quantity: 2, PositionSide: PositionSideShort}, NetMode, Long},
		{"수량 0", LivePosition{}, NetMode, NoDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pos.Direction(tt.mode))
		})
	}

	assert.Equal(t, 0.04, LivePosition{Quantity: -0.04}.Lots())
}

func TestPositionSideFor(t *testing.T) {
	assert.Equal(t, PositionSideNone, NetMode.PositionSideFor(Long))
	assert.Equal(t, PositionSideLong, DualMode.PositionSideFor(Long))
	assert.Equal(t, PositionSideShort, DualMode.PositionSideFor(Short))
	assert.Equal(t, PositionSideNone, DualMode.PositionSideFor(NoDirection))
}

func TestTradeIntent_Validate(t *testing.T) {
	base := TradeIntent{Symbol: "DOGE-USDT-SWAP", Action: OpenLong, Leverage: 5, NotionalUSD: 100}

	tests := []struct {
		name    string
		mutate  func(*TradeIntent)
		wantErr bool
	}{
		{"정상", func(*TradeIntent) {}, false},
		{"hold는 항상 통과", func(i *TradeIntent) { *i = TradeIntent{Action: Hold} }, false},
		{"청산은 크기 불필요", func(i *TradeIntent) { i.Action, i.NotionalUSD, i.Leverage = CloseLong, 0, 0 }, false},
		{"심볼 없음", func(i *TradeIntent) { i.Symbol = "" }, true},
		{"레버리지 0", func(i *TradeIntent) { i.Leverage = 0 }, true},
		{"레버리지 11", func(i *TradeIntent) { i.Leverage = 11 }, true},
		{"크기 미지정", func(i *TradeIntent) { i.NotionalUSD = 0 }, true},
		{"크기 중복", func(i *TradeIntent) { i.CapitalFractionPercent = 10 }, true},
		{"비율 100 초과", func(i *TradeIntent) { i.NotionalUSD, i.CapitalFractionPercent = 0, 150 }, true},
		{"음수 손절가", func(i *TradeIntent) { i.StopLossPrice = -1 }, true},
		{"롱 익절가가 손절가 아래", func(i *TradeIntent) { i.TakeProfitPrice, i.StopLossPrice = 2.4, 2.8 }, true},
		{"숏 익절가가 손절가 아래", func(i *TradeIntent) { i.Action, i.TakeProfitPrice, i.StopLossPrice = OpenShort, 2.4, 2.8 }, false},
		{"숏 익절가가 손절가 위", func(i *TradeIntent) { i.Action, i.TakeProfitPrice, i.StopLossPrice = OpenShort, 2.8, 2.4 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIntent)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Equal(t, SizeRequest{CapitalFraction: 0.25}, TradeIntent{CapitalFractionPercent: 25}.Size())
	assert.True(t, TradeIntent{StopLossPrice: 1}.HasProtection())
}

func TestTradeIntent_CheckProtection(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		tp, sl  float64
		wantErr bool
	}{
		{"보호 가격 없음", OpenLong, 0, 0, false},
		{"롱 정상", OpenLong, 2.8, 2.4, false},
		{"롱 익절가가 진입가와 같음", OpenLong, 2.5, 0, true},
		{"롱 손절가가 진입가 위", OpenLong, 0, 2.6, true},
		{"숏 정상", OpenShort, 2.4, 2.8, false},
		{"숏 익절가가 진입가 위", OpenShort, 2.6, 0, true},
		{"숏 손절가가 진입가 아래", OpenShort, 0, 2.4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := TradeIntent{Action: tt.action, TakeProfitPrice: tt.tp, StopLossPrice: tt.sl}
			err := in.CheckProtection(2.5)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIntent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		category ErrorCategory
		kind     string
	}{
		{fmt.Errorf("wrap: %w", ErrInvalidIntent), CategoryValidation, "InvalidIntent"},
		{&RuleViolation{Rule: ReasonTotalExposure}, CategoryValidation, "RiskLimitExceeded"},
		{&RuleViolation{Rule: ReasonDuplicatePosition}, CategoryValidation, "DuplicatePosition"},
		{NewExecutionError("X", "close", ErrPositionNotFound), CategoryReconciliation, "PositionNotFound"},
		{&VenueError{Op: "place_order", Code: "51008", Kind: ErrInsufficientMargin}, CategoryVenue, "InsufficientMargin"},
		{&VenueError{Op: "place_order", Code: "59999"}, CategoryVenue, "Unknown"},
		{fmt.Errorf("%w: tp: %w", ErrProtectiveOrderFailed, &VenueError{Kind: ErrLotSizeRejected}), CategoryPartial, "ProtectiveOrderFailed"},
		{errors.New("boom"), CategoryInternal, "Internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, Classify(tt.err), tt.err.Error())
		assert.Equal(t, tt.kind, KindOf(tt.err), tt.err.Error())
	}
}

func TestExecutionResult_Stages(t *testing.T) {
	r := &ExecutionResult{}
	assert.Equal(t, Stage(""), r.Stage())

	r.Advance(StageReceived)
	r.Advance(StageValidated)
	assert.Equal(t, StageValidated, r.Stage())
	assert.True(t, r.Reached(StageReceived))
	assert.False(t, r.Reached(StageSubmitted))

	r.AddError(nil)
	r.AddError(fmt.Errorf("%w: x", ErrBelowMinimumLotSize))
	assert.Equal(t, []ResultError{{
		Category: CategoryValidation,
		Kind:     "BelowMinimumLotSize",
		Message:  ErrBelowMinimumLotSize.Error() + ": x",
	}}, r.Errors)
}

func TestInstrumentSpec_Validate(t *testing.T) {
	good := InstrumentSpec{Symbol: "X", UnitMultiplier: 1, MinLots: 1, LotStep: 1, TickSize: 0.1, PricePrecision: 1}
	assert.NoError(t, good.Validate())

	bad := good
	bad.LotStep = 0
	assert.Error(t, bad.Validate())

	bad = good
	bad.Symbol = ""
	assert.Error(t, bad.Validate())
}
