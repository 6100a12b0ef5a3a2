package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Hook 把一個收尾函式包成 Component：Run 阻塞到 Shutdown，Shutdown 時執行 fn。
//
// 用來讓 Runtime.Close 之類的資源釋放跟著 App 的關閉流程走。
type Hook struct {
	fn   func()
	done chan struct{}
	once sync.Once
}

func OnShutdown(fn func()) *Hook {
	return &Hook{fn: fn, done: make(chan struct{})}
}

func (h *Hook) Run() error {
	<-h.done
	return nil
}

func (h *Hook) Shutdown(ctx context.Context) error {
	h.once.Do(func() {
		if h.fn != nil {
			h.fn()
		}
		close(h.done)
	})
	return ctx.Err()
}

func isServerClosed(err error) bool {
	return err == nil || errors.Is(err, http.ErrServerClosed)
}
