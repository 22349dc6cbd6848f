package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/assist-by/sentinel/internal/domain"
)

type sizeOptions struct {
	symbol      string
	price       float64
	notional    float64
	fraction    float64
	leverage    int
	available   float64
	instruments string
}

func newSizeCmd() *cobra.Command {
	var opts sizeOptions

	cmd := &cobra.Command{
		Use:   "size",
		Short: "주문 규모만 계산합니다 (주문 없음)",
		Example: `  sentinel size --symbol DOGE-USDT-SWAP --price 0.25 --notional 500 --leverage 5 --available 120
  sentinel size --symbol ETH-USDT-SWAP --fraction 10 --leverage 3 --instruments instruments.yaml --price 3200 --available 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.symbol = strings.ToUpper(strings.TrimSpace(opts.symbol))
			if opts.symbol == "" {
				return fmt.Errorf("--symbol은 필수입니다")
			}

			a, err := newApp(opts.instruments)
			if err != nil {
				return err
			}
			return a.size(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.symbol, "symbol", "s", "", "심볼 (예: DOGE-USDT-SWAP)")
	f.Float64Var(&opts.price, "price", 0, "기준 가격 (0이면 거래소 최근 체결가)")
	f.Float64Var(&opts.notional, "notional", 0, "목표 명목 가치 (USDT)")
	f.Float64Var(&opts.fraction, "fraction", 0, "가용 자본 대비 비율 (%)")
	f.IntVarP(&opts.leverage, "leverage", "l", 1, "레버리지")
	f.Float64Var(&opts.available, "available", 0, "가용 자본 (0이면 거래소 계정 조회)")
	f.StringVar(&opts.instruments, "instruments", "", "심볼 규격 YAML 파일 (비어 있으면 거래소 조회)")
	cmd.MarkFlagsMutuallyExclusive("notional", "fraction")
	cmd.MarkFlagsOneRequired("notional", "fraction")
	return cmd
}

func (a *app) size(cmd *cobra.Command, opts sizeOptions) error {
	ctx := cmd.Context()

	if err := a.catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("심볼 규격 로드 실패: %w", err)
	}

	price := opts.price
	if price <= 0 {
		p, err := a.client.Ticker(ctx, opts.symbol)
		if err != nil {
			return fmt.Errorf("가격 조회 실패: %w", err)
		}
		price = p
	}

	available := opts.available
	if available <= 0 {
		if err := a.cfg.ValidateCredentials(); err != nil {
			return fmt.Errorf("--available 없이 계정을 조회하려면 API 키가 필요합니다: %w", err)
		}
		account, err := a.client.Account(ctx)
		if err != nil {
			return fmt.Errorf("계정 조회 실패: %w", err)
		}
		available = account.AvailableMargin
	}

	size := domain.SizeRequest{NotionalUSD: opts.notional, CapitalFraction: opts.fraction / 100}

	out := cmd.OutOrStdout()
	requested, err := a.calculator.ComputeOrder(opts.symbol, price, size, opts.leverage, available)
	if err != nil {
		return err
	}

	rows := []sizeRow{{label: "요청", req: requested}}
	if requested.RecommendedReserve > available {
		fitted, err := a.calculator.Fit(opts.symbol, price, requested.RequestedNotional, opts.leverage, available)
		if err != nil {
			fmt.Fprintf(out, "⚠️  가용 자본에 맞출 수 없습니다: %v\n", err)
		} else {
			rows = append(rows, sizeRow{label: "조정", req: fitted})
		}
	}
	if minimum, err := a.calculator.MinimumOrder(opts.symbol, price, opts.leverage); err == nil {
		rows = append(rows, sizeRow{label: "최소", req: minimum})
	}

	renderSizeTable(out, opts.symbol, available, rows)
	return nil
}

type sizeRow struct {
	label string
	req   domain.MarginRequirement
}

func renderSizeTable(out io.Writer, symbol string, available float64, rows []sizeRow) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s 주문 규모 (가용 자본 %.4f)", symbol, available))
	t.AppendHeader(table.Row{"구분", "가격", "레버리지", "랏", "명목 가치", "필요 마진", "수수료", "권장 예치금", "가능"})

	for _, r := range rows {
		fits := "✅"
		if r.req.RecommendedReserve > available {
			fits = "❌"
		}
		t.AppendRow(table.Row{
			r.label,
			r.req.Price,
			fmt.Sprintf("%dx", r.req.Leverage),
			r.req.Lots,
			fmt.Sprintf("%.4f", r.req.NotionalValue),
			fmt.Sprintf("%.4f", r.req.RequiredMargin),
			fmt.Sprintf("%.4f", r.req.EstimatedFees),
			fmt.Sprintf("%.4f", r.req.RecommendedReserve),
			fits,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignCenter},
	})
	t.Render()
}
