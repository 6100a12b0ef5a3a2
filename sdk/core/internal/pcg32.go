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

package internal

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	pcg32Mult      = 6364136223846793005
	pcg32FloatUnit = 1.0 / (1 << 32)
	pcg32SnapLen   = 16
)

// PCG32 : 64-bit 狀態、32-bit 輸出的 PCG (XSH RR)。
//
// 比 PCG64 輕量，Float64 只有 32 bits 精度，適合對精度不敏感的大量模擬。
type PCG32 struct {
	state uint64
	inc   uint64
}

// NewPCG32WithSeed 依 PCG 參考實作初始化：先以 stream 走一步，加入 seed，再走一步。
func NewPCG32WithSeed(seed int64) *PCG32 {
	r := &PCG32{inc: (1 << 1) | 1}
	r.next()
	r.state += uint64(seed)
	r.next()
	return r
}

func (r *PCG32) next() uint32 {
	old := r.state
	r.state = old*pcg32Mult + r.inc
	xorshifted := uint32(((old >> 18) ^ old) >> 27)
	return bits.RotateLeft32(xorshifted, -int(old>>59))
}

func (r *PCG32) Uint64() uint64 {
	return uint64(r.next())<<32 | uint64(r.next())
}

func (r *PCG32) Float64() float64 {
	return float64(r.next()) * pcg32FloatUnit
}

func (r *PCG32) UintN(n uint) uint {
	if n == 0 {
		return 0
	}
	return uint(uint64n(r.Uint64, uint64(n)))
}

func (r *PCG32) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return int(uint64n(r.Uint64, uint64(n)))
}

// Snapshot : state(8 bytes, big endian) + inc(8 bytes)
func (r *PCG32) Snapshot() ([]byte, error) {
	b := make([]byte, 0, pcg32SnapLen)
	b = binary.BigEndian.AppendUint64(b, r.state)
	b = binary.BigEndian.AppendUint64(b, r.inc)
	return b, nil
}

func (r *PCG32) Restore(data []byte) error {
	if len(data) != pcg32SnapLen {
		return fmt.Errorf("pcg32 snapshot: want %d bytes, got %d", pcg32SnapLen, len(data))
	}
	inc := binary.BigEndian.Uint64(data[8:])
	if inc&1 == 0 {
		return fmt.Errorf("pcg32 snapshot: stream increment must be odd")
	}
	r.state = binary.BigEndian.Uint64(data[:8])
	r.inc = inc
	return nil
}
