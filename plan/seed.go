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

package plan

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// SeedFromKey 由任意字串導出穩定的非負 63-bit seed。
//
// 同一個 key 在任何機器、任何版本都得到同一個 seed，
// 方便以人類可讀的名稱（例如 "study-42/replicate-7"）重現一次抽樣。
func SeedFromKey(key string) int64 {
	return int64(xxhash.Sum64String(key) & math.MaxInt64)
}
