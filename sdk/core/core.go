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

// Package core 提供抽樣器共用的亂數核心。
//
// 所有抽樣器都從外部注入 *Core，不使用任何全域亂數來源；
// 同一個 seed、同一個 PRNG 實作，必定得到同一串抽樣結果。
package core

import "github.com/zintix-labs/cbsample/sdk/core/internal"

// PRNG = 取樣能力 + 狀態快照/還原
type PRNG interface {
	RAND
	Restorable
}

type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// bounded 取樣 (UintN/IntN) 與 Float64 的精度交給實作決定，
// 32-bit 原生輸出的 PRNG 可以走自己的快速路徑。
type RAND interface {
	// Uint64 回傳 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：同一實作、同一版本下 New(seed) 必須是決定性的。
	// seed 由 Lab 統一管理，外部未提供時由 Lab 產生並保存，
	// 因此這裡不提供不帶 seed 的建構方式。
	New(int64) PRNG
}

// DefaultPRNG : PCG64 (DXSM)
type DefaultPRNG struct{}

func (d *DefaultPRNG) New(seed int64) PRNG {
	return internal.NewPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// LitePRNG : PCG32，Float64 只有 32 bits 精度
type LitePRNG struct{}

func (l *LitePRNG) New(seed int64) PRNG {
	return internal.NewPCG32WithSeed(seed)
}

func Lite() *LitePRNG {
	return &LitePRNG{}
}

// FactoryByName 依名稱取得 PRNGFactory："pcg64"(或空字串) / "pcg32"。
func FactoryByName(name string) (PRNGFactory, bool) {
	switch name {
	case "", "pcg64":
		return Default(), true
	case "pcg32":
		return Lite(), true
	default:
		return nil, false
	}
}

// Core 是抽樣器實際持有的亂數把手。
type Core struct {
	PRNG
}

func New(rng PRNG) *Core {
	return &Core{rng}
}

// Bernoulli 以機率 p 回傳 true：抽 u ∈ [0,1)，回傳 u < p。
//
// p <= 0 永遠為 false，p >= 1 永遠為 true（NaN 視為 false）。
func (c *Core) Bernoulli(p float64) bool {
	return c.Float64() < p
}
