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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : 錯誤嚴重度，讓最上層(HTTP/CLI)決定如何回應
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvNames = [...]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func (lv ErrLevel) String() string {
	if int(lv) < len(errLvNames) {
		return errLvNames[lv]
	}
	return ""
}

// Kind : 錯誤類別，與嚴重度正交。
//
// 抽樣器只會回傳下列四種類別之一（或 KindNone 代表系統/依賴錯誤）。
type Kind uint8

const (
	KindNone            Kind = iota
	KindInvalidArgument      // 參數不合法：r 超界、h 超界、機率不在 [0,1]
	KindArithmeticDomain     // 延伸精度運算不合法：除以零、負數開根、非正數取 log、指數溢位
	KindUnattainable         // 給定機率下不可能剛好抽出 r 個 case
	KindIterationLimit       // 拒絕抽樣用盡嘗試次數
)

var kindNames = [...]string{
	KindNone:             "",
	KindInvalidArgument:  "invalid_argument",
	KindArithmeticDomain: "arithmetic_domain",
	KindUnattainable:     "unattainable",
	KindIterationLimit:   "iteration_limit",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return ""
}

// 哨兵錯誤，搭配 errors.Is 使用：
//
//	if errors.Is(err, errs.ErrUnattainable) { ... }
var (
	ErrInvalidArgument  = &E{Message: "invalid argument", ErrLv: Warn, Kind: KindInvalidArgument}
	ErrArithmeticDomain = &E{Message: "arithmetic domain error", ErrLv: Warn, Kind: KindArithmeticDomain}
	ErrUnattainable     = &E{Message: "target count unattainable", ErrLv: Warn, Kind: KindUnattainable}
	ErrIterationLimit   = &E{Message: "iteration limit exceeded", ErrLv: Warn, Kind: KindIterationLimit}
)

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤；
// ErrLv 為嚴重度；Kind 為錯誤類別（可為 KindNone）。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    Kind
}

func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", e.ErrLv, e.Message)
	if e.Kind != KindNone {
		base = fmt.Sprintf("errlv=%s kind=%s %s", e.ErrLv, e.Kind, e.Message)
	}
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// Is 以 Kind 比對哨兵錯誤；沒有 Kind 的錯誤只比對指標。
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	if t.Kind == KindNone {
		return e == t
	}
	return e.Kind == t.Kind
}

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func newKind(k Kind, format string, a ...any) *E {
	return &E{Message: fmt.Sprintf(format, a...), ErrLv: Warn, Kind: k}
}

// Invalid 建立 KindInvalidArgument 錯誤。
func Invalid(format string, a ...any) *E { return newKind(KindInvalidArgument, format, a...) }

// Domain 建立 KindArithmeticDomain 錯誤。
func Domain(format string, a ...any) *E { return newKind(KindArithmeticDomain, format, a...) }

// Unattainable 建立 KindUnattainable 錯誤。
func Unattainable(format string, a ...any) *E { return newKind(KindUnattainable, format, a...) }

// IterationLimit 建立 KindIterationLimit 錯誤。
func IterationLimit(format string, a ...any) *E { return newKind(KindIterationLimit, format, a...) }

// Wrap 以訊息包裝底層錯誤。
//
// 規則：
//   - cause 為 *E：沿用其 ErrLv 與 Kind。
//   - 其他錯誤（標準庫或三方依賴）：ErrLv 一律視為 Fatal。
func Wrap(cause error, msg string) *E {
	r := &E{Message: msg, ErrLv: Fatal, Cause: cause}
	if e, ok := AsErr(cause); ok {
		r.ErrLv = e.ErrLv
		r.Kind = e.Kind
	}
	return r
}

// WrapWithExtra 同 Wrap，另附上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf 回傳錯誤鏈上第一個非 KindNone 的類別。
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind != KindNone {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindNone
}
