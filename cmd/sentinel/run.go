package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/assist-by/sentinel/internal/instrument"
	"github.com/assist-by/sentinel/internal/intent"
	"github.com/assist-by/sentinel/internal/logger"
	"github.com/assist-by/sentinel/internal/scheduler"
)

func newRunCmd() *cobra.Command {
	var (
		file   string
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "NDJSON 매매 의도를 실행합니다",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("")
			if err != nil {
				return err
			}
			if err := a.cfg.ValidateCredentials(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			in, closeIn, err := openInput(file)
			if err != nil {
				return err
			}
			defer closeIn()

			return a.run(ctx, in, cmd.OutOrStdout(), stream)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "의도 파일 경로 (- 는 표준 입력)")
	cmd.Flags().BoolVar(&stream, "stream", false, "한 줄씩 읽는 즉시 실행")
	return cmd
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("의도 파일 열기 실패: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (a *app) run(ctx context.Context, in io.Reader, out io.Writer, stream bool) error {
	// 거래소 서버와 시간 동기화
	if err := a.client.SyncTime(ctx); err != nil {
		a.notifyError(fmt.Errorf("OKX 서버 시간 동기화 실패: %w", err))
		return fmt.Errorf("OKX 서버 시간 동기화 실패: %w", err)
	}

	// 초기 카탈로그 로드와 주기적 갱신
	refresh := instrument.NewRefreshTask(a.catalog, a.notifier, a.metrics)
	if err := refresh.Execute(ctx); err != nil {
		return fmt.Errorf("초기 심볼 규격 로드 실패: %w", err)
	}
	logger.Infof("심볼 규격 %d개 로드", a.catalog.Len())

	refresher := scheduler.NewScheduler("catalog-refresh", a.cfg.Catalog.RefreshInterval, refresh)
	go func() {
		if err := refresher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("카탈로그 갱신 스케줄러 종료: %v", err)
		}
	}()
	defer refresher.Stop()

	// 지표 서버
	srv := &http.Server{Addr: a.cfg.App.MetricsAddr, Handler: metricsMux(a)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("지표 서버 실행 실패: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	mode, err := a.coordinator.PositionMode(ctx)
	if err != nil {
		return fmt.Errorf("포지션 모드 조회 실패: %w", err)
	}
	a.notifyInfo(fmt.Sprintf("🚀 실행 엔진 시작 (포지션 모드: %s, 데모: %v)", mode, a.cfg.Venue.DemoTrading))
	defer a.notifyInfo("👋 실행 엔진이 종료되었습니다.")

	enc := json.NewEncoder(out)
	if stream {
		return a.runStream(ctx, in, enc)
	}

	intents, decodeErr := intent.DecodeStream(in)
	if decodeErr != nil {
		logger.Warnf("일부 의도를 건너뛰었습니다: %v", decodeErr)
	}

	results, err := a.coordinator.ExecuteBatch(ctx, intents)
	for _, r := range results {
		if r == nil {
			continue
		}
		if encErr := enc.Encode(r); encErr != nil {
			return encErr
		}
	}
	return err
}

// runStream은 입력을 한 줄씩 읽어 순서대로 실행합니다
func (a *app) runStream(ctx context.Context, in io.Reader, enc *json.Encoder) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		ti, err := intent.Decode(line)
		if err != nil {
			logger.Warnf("의도 해석 실패: %v", err)
			continue
		}

		result, _ := a.coordinator.Execute(ctx, ti)
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %d instruments\n", a.catalog.Len())
	})
	return mux
}

func (a *app) notifyInfo(msg string) {
	if err := a.notifier.SendInfo(msg); err != nil {
		logger.Warnf("알림 전송 실패: %v", err)
	}
}

func (a *app) notifyError(err error) {
	if sendErr := a.notifier.SendError(err); sendErr != nil {
		logger.Warnf("에러 알림 전송 실패: %v", sendErr)
	}
}
