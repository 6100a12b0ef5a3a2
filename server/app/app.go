// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app 提供應用程式生命週期管理（App），負責統一啟動與關閉多個 Component。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 5 * time.Second

// App 啟動所有註冊的 Component；收到 OS 信號、Stop 或任一 Component 返回時，
// 依註冊順序逐一呼叫 Shutdown。
type App struct {
	comps   []Component
	timeout time.Duration
	log     *slog.Logger
	stop    chan struct{}
}

type Option func(*App)

// WithShutdownTimeout 優雅關閉的總時限
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

func New(opts ...Option) *App {
	a := &App{
		timeout: DefaultShutdownTimeout,
		log:     slog.New(slog.DiscardHandler),
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewWith 是 New 的語法糖，建立時直接註冊多個 Component。
func NewWith(comps ...Component) *App {
	app := New()
	for _, c := range comps {
		app.Register(c)
	}
	return app
}

func (a *App) Register(c Component) {
	a.comps = append(a.comps, c)
}

// Stop 讓 Run 走與收到 SIGTERM 相同的關閉流程，只能呼叫一次。
func (a *App) Stop() {
	close(a.stop)
}

// Run 阻塞直到收到 SIGINT/SIGTERM、Stop 或任一 Component.Run 返回。
//   - 信號或 Stop：優雅關閉後回傳 nil。
//   - Component 返回錯誤：優雅關閉後回傳該錯誤（http.ErrServerClosed 視為正常）。
func (a *App) Run() error {
	errCh := make(chan error, len(a.comps))
	for _, c := range a.comps {
		go func(c Component) {
			errCh <- c.Run()
		}(c)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		a.log.Info("signal received", slog.String("signal", sig.String()))
		return a.gracefulShutdown()
	case <-a.stop:
		return a.gracefulShutdown()
	case err := <-errCh:
		if shErr := a.gracefulShutdown(); shErr != nil {
			a.log.Warn("shutdown after component exit", slog.Any("err", shErr))
		}
		if isServerClosed(err) {
			return nil
		}
		return err
	}
}

// gracefulShutdown 在 timeout 內依序呼叫所有 Component.Shutdown，回傳合併後的錯誤。
func (a *App) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	var all []error
	for _, c := range a.comps {
		if err := c.Shutdown(ctx); err != nil {
			a.log.Error("shutdown err", slog.Any("err", err))
			all = append(all, err)
		}
	}
	return errors.Join(all...)
}
