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
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zintix-labs/cbsample/errs"
)

// GetSettingByYAML 嚴格解碼：多寫或拼錯欄位一律報錯，之後套用預設值並檢查。
func GetSettingByYAML(data []byte) (*Setting, error) {
	s := &Setting{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, errs.Wrap(err, "plan: decode yaml failed")
	}
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "plan: setting initialized err")
	}
	return s, nil
}

// GetSettingByJSON 同 GetSettingByYAML，輸入為 JSON。
func GetSettingByJSON(data []byte) (*Setting, error) {
	s := &Setting{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, errs.Wrap(err, "plan: decode json failed")
	}
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "plan: setting initialized err")
	}
	return s, nil
}

// GetSettingByExt 依副檔名選擇解碼器。
func GetSettingByExt(filename string, data []byte) (*Setting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetSettingByYAML(data)
	case ".json":
		return GetSettingByJSON(data)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", filename))
	}
}

// IsConfigFile 回報檔名是否為可解析的設定檔。
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
