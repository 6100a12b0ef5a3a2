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

// Package xfloat 提供延伸指數範圍的浮點數 XFloat。
//
// XFloat 表示 mant · Bound^exp，mant 為 float64、exp 為 int64。
// 精度與 float64 相同（53 bits），但可表示遠小於 1e-308 的機率乘積，
// 例如十萬個 1e-3 相乘。
//
// 正規化後必滿足：mant == 0 時 exp == 0；否則 HBoundInv <= |mant| <= HBound。
package xfloat

import (
	"math"
	"strconv"

	"github.com/zintix-labs/cbsample/errs"
)

const (
	HBoundLog = 36
	HBound    = float64(1 << HBoundLog)
	HBoundInv = 1 / HBound
	Bound     = HBound * HBound // 2^72
	BoundInv  = 1 / Bound
	LogBound  = 2 * HBoundLog * math.Ln2

	// ExpLimit : |exp| 達到此值視為溢位
	ExpLimit int64 = 1 << 28

	// NegligibleGap : 加減法時兩者 exp 相差超過此值，小的一方直接忽略
	NegligibleGap = 1
)

// XFloat 為值型別，零值即為 0。
type XFloat struct {
	mant float64
	exp  int64
}

func Zero() XFloat { return XFloat{} }

func One() XFloat { return XFloat{mant: 1} }

// FromFloat64 : NaN 與 ±Inf 回傳 InvalidArgument。
func FromFloat64(f float64) (XFloat, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return XFloat{}, errs.Invalid("xfloat: non-finite value %v", f)
	}
	return norm(f, 0), nil
}

// MustFromFloat64 供已驗證過的輸入使用，非有限值會 panic。
func MustFromFloat64(f float64) XFloat {
	x, err := FromFloat64(f)
	if err != nil {
		panic(err)
	}
	return x
}

func FromInt(n int) XFloat { return norm(float64(n), 0) }

func norm(x float64, e int64) XFloat {
	if x == 0 {
		return XFloat{}
	}
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return XFloat{mant: x, exp: e}
	}
	if x > 0 {
		for x < HBoundInv {
			x *= Bound
			e--
		}
		for x > HBound {
			x *= BoundInv
			e++
		}
	} else {
		for x > -HBoundInv {
			x *= Bound
			e--
		}
		for x < -HBound {
			x *= BoundInv
			e++
		}
	}
	return XFloat{mant: x, exp: e}
}

func (a XFloat) Mantissa() float64 { return a.mant }

func (a XFloat) Exponent() int64 { return a.exp }

// Float64 轉回 float64：下溢得 0，上溢得 ±Inf。
func (a XFloat) Float64() float64 {
	x := a.mant
	for e := a.exp; e > 0 && !math.IsInf(x, 0); e-- {
		x *= Bound
	}
	for e := a.exp; e < 0 && x != 0; e++ {
		x *= BoundInv
	}
	return x
}

// InRange 回報 exp 是否仍在 (-ExpLimit, ExpLimit)。
func (a XFloat) InRange() bool {
	return a.exp > -ExpLimit && a.exp < ExpLimit
}

func (a XFloat) IsZero() bool { return a.mant == 0 }

func (a XFloat) Sign() int {
	switch {
	case a.mant > 0:
		return 1
	case a.mant < 0:
		return -1
	default:
		return 0
	}
}

// String 以十進位科學記號輸出，範圍不受 float64 限制。
func (a XFloat) String() string {
	if a.exp == 0 {
		return strconv.FormatFloat(a.mant, 'g', -1, 64)
	}
	l := math.Log10(math.Abs(a.mant)) + float64(a.exp)*LogBound/math.Ln10
	d := math.Floor(l)
	m := math.Pow(10, l-d)
	if a.mant < 0 {
		m = -m
	}
	return strconv.FormatFloat(m, 'g', 10, 64) + "e" + strconv.FormatInt(int64(d), 10)
}
