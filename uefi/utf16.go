// Copyright 2024 The rdi-netconfig Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uefi

import (
	"strings"

	"golang.org/x/sys/unix"
	"golang.org/x/text/encoding/unicode"

	"github.com/thkukuk/rdi-netconfig/utils"
)

// DecodeUTF16String decodes a UTF-16LE payload into a byte string. Decoding
// stops at the first NUL; code points outside the ASCII range are rejected
// and backslashes become forward slashes, which turns EFI file paths into
// POSIX ones.
func DecodeUTF16String(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", utils.Errnof(unix.EINVAL, "UTF-16 payload has odd length %d", len(b))
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, err := decoder.Bytes(b)
	if err != nil {
		return "", utils.Errnof(unix.EINVAL, "malformed UTF-16 payload: %v", err)
	}

	var sb strings.Builder
	for _, r := range string(decoded) {
		if r == 0 {
			break
		}
		if r >= 128 {
			return "", utils.Errnof(unix.EINVAL, "code point %U out of range", r)
		}
		if r == '\\' {
			sb.WriteByte('/')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
