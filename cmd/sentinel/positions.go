package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/assist-by/sentinel/internal/domain"
)

func newPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "실시간 포지션을 조회합니다",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("")
			if err != nil {
				return err
			}
			if err := a.cfg.ValidateCredentials(); err != nil {
				return err
			}

			ctx := cmd.Context()
			mode, err := a.coordinator.PositionMode(ctx)
			if err != nil {
				return fmt.Errorf("포지션 모드 조회 실패: %w", err)
			}
			positions, err := a.reconciler.ActivePositions(ctx)
			if err != nil {
				return fmt.Errorf("포지션 조회 실패: %w", err)
			}

			renderPositions(cmd.OutOrStdout(), mode, positions)
			return nil
		},
	}
}

func renderPositions(out io.Writer, mode domain.PositionMode, positions []domain.LivePosition) {
	if len(positions) == 0 {
		fmt.Fprintf(out, "열린 포지션이 없습니다 (포지션 모드: %s)\n", mode)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("포지션 (%s 모드)", mode))
	t.AppendHeader(table.Row{"심볼", "방향", "수량(랏)", "마진 모드", "진입가", "마크 가격", "레버리지", "마진"})

	var totalMargin float64
	for _, p := range positions {
		totalMargin += p.Margin
		t.AppendRow(table.Row{
			p.Symbol,
			p.Direction(mode),
			p.Lots(),
			p.MarginMode,
			p.EntryPrice,
			p.MarkPrice,
			fmt.Sprintf("%.0fx", p.Leverage),
			fmt.Sprintf("%.4f", p.Margin),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "합계", fmt.Sprintf("%.4f", totalMargin)})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}
