package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/assist-by/sentinel/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Order sizing, risk gating and position reconciliation engine",
	Long: `Sentinel은 상위 전략 계층의 매매 의도를 받아 주문 규모를 계산하고,
계정 단위 리스크 한도를 검증한 뒤 OKX 무기한 계약에 주문을 제출합니다.

  run        NDJSON 의도를 읽어 실행하고 결과를 한 줄씩 출력
  size       주문 규모 계산만 수행 (주문 없음)
  positions  실시간 포지션과 판별된 방향 출력`,
	SilenceUsage: true,
	// 결과는 표준 출력, 로그는 표준 에러로 분리
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetOutput(os.Stderr)
	},
}

func main() {
	rootCmd.AddCommand(newRunCmd(), newSizeCmd(), newPositionsCmd())
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
