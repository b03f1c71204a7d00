package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("Panic in goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover("Panic in goroutine (with context)")
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(prefix string) {
	if r := recover(); r != nil {
		rh.logger.Errorf("%s: %v\nStack trace:\n%s", prefix, r, debug.Stack())
	}
}

// stdoutLogger используется, пока не задан логгер приложения.
type stdoutLogger struct{}

func (stdoutLogger) Errorf(format string, args ...interface{}) {
	fmt.Printf("[ERROR] "+format+"\n", args...)
}

var defaultHandler atomic.Pointer[RecoveryHandler]

func init() {
	defaultHandler.Store(NewRecoveryHandler(stdoutLogger{}))
}

// SetLogger задаёт логгер для SafeGo и SafeGoWithContext.
func SetLogger(logger Logger) {
	defaultHandler.Store(NewRecoveryHandler(logger))
}

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	defaultHandler.Load().SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	defaultHandler.Load().SafeGoWithContext(ctx, fn)
}
