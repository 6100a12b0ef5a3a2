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

// PCG 演算法由 Melissa O'Neill 設計。
// 有界亂數 (uint64n) 的乘法高位拒絕法改寫自 Go 標準庫 math/rand (BSD 3-Clause)。

package internal

import (
	"math/bits"
	r2 "math/rand/v2"
)

// PCG64 : 128-bit 狀態的 PCG (DXSM)，包裝 math/rand/v2.PCG 並補上快照能力。
type PCG64 struct {
	rng *r2.PCG
}

// NewPCG64WithSeed 以 int64 seed 展開成兩個 64-bit 狀態字。
//
// 相同 seed 必產生相同序列（可重現）。
func NewPCG64WithSeed(seed int64) *PCG64 {
	x := uint64(seed) ^ golden
	return &PCG64{rng: r2.NewPCG(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5))}
}

func (r *PCG64) Uint64() uint64 { return r.rng.Uint64() }

// Float64 : [0,1)，53 bits 精度
func (r *PCG64) Float64() float64 {
	return float64(r.rng.Uint64()>>11) / (1 << 53)
}

// UintN : [0,n)，n == 0 回傳 0
func (r *PCG64) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return uint(uint64n(r.rng.Uint64, uint64(n)))
}

// IntN : [0,n)，n <= 0 回傳 -1
func (r *PCG64) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return int(uint64n(r.rng.Uint64, uint64(n)))
}

func (r *PCG64) Snapshot() ([]byte, error) { return r.rng.MarshalBinary() }

func (r *PCG64) Restore(data []byte) error { return r.rng.UnmarshalBinary(data) }

const golden = 0x9e3779b97f4a7c15

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// uint64n 以 Lemire 乘法高位法產生 [0,n) 無偏亂數。
func uint64n(next func() uint64, n uint64) uint64 {
	if n&(n-1) == 0 {
		return next() & (n - 1)
	}
	hi, lo := bits.Mul64(next(), n)
	if lo < n {
		thresh := -n % n
		for lo < thresh {
			hi, lo = bits.Mul64(next(), n)
		}
	}
	return hi
}
