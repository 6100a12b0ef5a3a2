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

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type failing struct {
	shut atomic.Bool
}

func (f *failing) Run() error { return errors.New("boom") }

func (f *failing) Shutdown(context.Context) error {
	f.shut.Store(true)
	return nil
}

func TestRunStopsOnComponentError(t *testing.T) {
	var closed atomic.Bool
	f := &failing{}
	a := New(WithShutdownTimeout(time.Second))
	a.Register(OnShutdown(func() { closed.Store(true) }))
	a.Register(f)

	err := a.Run()
	if err == nil || err.Error() != "boom" {
		t.Fatalf("want boom got %v", err)
	}
	if !closed.Load() || !f.shut.Load() {
		t.Fatalf("all components should be shut down")
	}
}

func TestStop(t *testing.T) {
	var closed atomic.Bool
	a := NewWith(OnShutdown(func() { closed.Store(true) }))
	done := make(chan error, 1)
	go func() { done <- a.Run() }()
	a.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop should return nil, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return")
	}
	if !closed.Load() {
		t.Fatalf("hook not called")
	}
}

func TestHookIsIdempotent(t *testing.T) {
	n := 0
	h := OnShutdown(func() { n++ })
	_ = h.Shutdown(context.Background())
	_ = h.Shutdown(context.Background())
	if n != 1 {
		t.Fatalf("hook ran %d times", n)
	}
	if err := h.Run(); err != nil {
		t.Fatalf("run after shutdown: %v", err)
	}
}
