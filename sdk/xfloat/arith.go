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

package xfloat

import (
	"math"

	"github.com/zintix-labs/cbsample/errs"
)

// Add : exp 差距超過 NegligibleGap 時直接回傳較大者（另一方低於精度）。
func (a XFloat) Add(b XFloat) XFloat {
	if a.mant == 0 {
		return b
	}
	if b.mant == 0 {
		return a
	}
	d := a.exp - b.exp
	switch {
	case d > NegligibleGap:
		return a
	case d < -NegligibleGap:
		return b
	case d > 0:
		return norm(a.mant+b.mant*BoundInv, a.exp)
	case d < 0:
		return norm(a.mant*BoundInv+b.mant, b.exp)
	default:
		return norm(a.mant+b.mant, a.exp)
	}
}

// Sub = a + (-b)，因此 0 - b 為 -b，b 遠大於 a 時亦為 -b。
func (a XFloat) Sub(b XFloat) XFloat {
	return a.Add(b.Neg())
}

func (a XFloat) Neg() XFloat {
	return XFloat{mant: -a.mant, exp: a.exp}
}

func (a XFloat) Mul(b XFloat) XFloat {
	return norm(a.mant*b.mant, a.exp+b.exp)
}

// Quo : b == 0 回傳 ArithmeticDomain。
func (a XFloat) Quo(b XFloat) (XFloat, error) {
	if b.mant == 0 {
		return XFloat{}, errs.Domain("xfloat: division by zero")
	}
	return norm(a.mant/b.mant, a.exp-b.exp), nil
}

// MulAdd 回傳 a + b·c。
func MulAdd(a, b, c XFloat) XFloat {
	return a.Add(b.Mul(c))
}

// MulSub 回傳 a - b·c。
func MulSub(a, b, c XFloat) XFloat {
	return a.Add(b.Mul(c).Neg())
}

// Cmp 回傳 -1 / 0 / 1。
func (a XFloat) Cmp(b XFloat) int {
	return a.Sub(b).Sign()
}

func (a XFloat) Abs() XFloat {
	return XFloat{mant: math.Abs(a.mant), exp: a.exp}
}

// Sqrt : 負數回傳 ArithmeticDomain。
func (a XFloat) Sqrt() (XFloat, error) {
	switch {
	case a.mant == 0:
		return XFloat{}, nil
	case a.mant < 0:
		return XFloat{}, errs.Domain("xfloat: sqrt of negative value %s", a)
	}
	if a.exp%2 != 0 {
		return norm(math.Sqrt(a.mant*Bound), (a.exp-1)/2), nil
	}
	return norm(math.Sqrt(a.mant), a.exp/2), nil
}

// Floor / Ceil / Trunc
//
//   - exp < 0：|值| < 1，直接得 -1 / 0 / 1
//   - exp == 0, 1：值落在 float64 可精確處理的範圍
//   - exp >= 2：|值| >= 2^108，必為整數
func (a XFloat) Floor() XFloat { return a.round(math.Floor, -1, 0) }

func (a XFloat) Ceil() XFloat { return a.round(math.Ceil, 0, 1) }

func (a XFloat) Trunc() XFloat { return a.round(math.Trunc, 0, 0) }

func (a XFloat) round(fn func(float64) float64, neg, pos float64) XFloat {
	switch {
	case a.exp < 0:
		if a.mant < 0 {
			return FromInt(int(neg))
		}
		return FromInt(int(pos))
	case a.exp == 0:
		return norm(fn(a.mant), 0)
	case a.exp == 1:
		return norm(fn(a.mant*Bound)*BoundInv, 1)
	default:
		return a
	}
}

// Pow2 回傳 2^e。e 拆成 72·q + r，r ∈ [-36, 36)。
func Pow2(e int64) (XFloat, error) {
	const b = 2 * HBoundLog
	q, r := e/b, e%b
	if r < 0 {
		r += b
		q--
	}
	if r >= HBoundLog {
		r -= b
		q++
	}
	if q <= -ExpLimit || q >= ExpLimit {
		return XFloat{}, errs.Domain("xfloat: 2^%d out of range", e)
	}
	return XFloat{mant: math.Ldexp(1, int(r)), exp: q}, nil
}

// Ldexp 回傳 a·2^n。
func (a XFloat) Ldexp(n int64) (XFloat, error) {
	p, err := Pow2(n)
	if err != nil {
		return XFloat{}, err
	}
	z := a.Mul(p)
	if !z.InRange() {
		return XFloat{}, errs.Domain("xfloat: %s·2^%d out of range", a, n)
	}
	return z, nil
}

// Log 回傳自然對數，a <= 0 回傳 ArithmeticDomain。
func (a XFloat) Log() (float64, error) {
	if a.mant <= 0 {
		return 0, errs.Domain("xfloat: log of non-positive value %s", a)
	}
	return math.Log(a.mant) + float64(a.exp)*LogBound, nil
}

// Exp 回傳 e^f。f = (iy + frac)·LogBound，frac ∈ [-0.5, 0.5]。
func Exp(f float64) (XFloat, error) {
	if math.IsNaN(f) {
		return XFloat{}, errs.Domain("xfloat: exp of NaN")
	}
	if math.IsInf(f, -1) {
		return Zero(), nil
	}
	y := f / LogBound
	iy := math.Floor(y + 0.5)
	if iy <= -float64(ExpLimit) || iy >= float64(ExpLimit) {
		return XFloat{}, errs.Domain("xfloat: exp(%v) out of range", f)
	}
	return norm(math.Exp((y-iy)*LogBound), int64(iy)), nil
}
