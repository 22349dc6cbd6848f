// Package logger는 slog 기반 전역 로거를 제공합니다
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	levelVar   slog.LevelVar
	loggerMu   sync.RWMutex
	baseLogger *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	baseLogger = newLogger(os.Stdout)
}

func newLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
	return slog.New(handler)
}

// SetOutput은 로그 출력 대상을 변경합니다
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	baseLogger = newLogger(w)
	loggerMu.Unlock()
}

// SetLevel은 로그 레벨을 설정합니다 (debug, info, warn, error)
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "info":
		levelVar.Set(slog.LevelInfo)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// L은 현재 로거를 반환합니다
func L() *slog.Logger {
	loggerMu.RLock()
	l := baseLogger
	loggerMu.RUnlock()
	return l
}

// With는 구조화 필드가 붙은 로거를 반환합니다
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

func Debugf(format string, args ...any) {
	L().Debug(fmt.Sprintf(format, args...))
}

func Infof(format string, args ...any) {
	L().Info(fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	L().Warn(fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	L().Error(fmt.Sprintf(format, args...))
}

// Silent는 테스트에서 로그 출력을 끕니다
func Silent() {
	SetOutput(io.Discard)
}
