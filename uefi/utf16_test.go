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
	"errors"
	"testing"

	"golang.org/x/sys/unix"
)

// utf16le encodes an ASCII string as UTF-16LE without a terminator.
func utf16le(s string) []byte {
	var b []byte
	for _, r := range s {
		b = append(b, byte(r), 0)
	}
	return b
}

func TestDecodeUTF16String(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"empty", nil, ""},
		{"ascii", utf16le("hello"), "hello"},
		{"backslash-translation", utf16le(`\EFI\BOOT\BOOTX64.EFI`), "/EFI/BOOT/BOOTX64.EFI"},
		{"nul-terminated", append(utf16le("stop"), 0, 0, 'x', 0), "stop"},
		{"url", utf16le("http://example.com/image.raw.xz"), "http://example.com/image.raw.xz"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeUTF16String(tc.payload)
			if err != nil {
				t.Fatalf("DecodeUTF16String(%v) failed unexpectedly with error: %v", tc.payload, err)
			}
			if got != tc.want {
				t.Errorf("DecodeUTF16String(%v) = %q, want %q", tc.payload, got, tc.want)
			}
		})
	}
}

func TestDecodeUTF16StringErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"odd-length", []byte{'a', 0, 'b'}},
		{"out-of-range-low-byte", []byte{0x80, 0}},
		{"out-of-range-high-byte", []byte{0, 0x26}}, // U+2600
		{"surrogate-pair", []byte{0x3d, 0xd8, 0x00, 0xde}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeUTF16String(tc.payload)
			if err == nil {
				t.Fatalf("DecodeUTF16String(%v) succeeded, want error", tc.payload)
			}
			if !errors.Is(err, unix.EINVAL) {
				t.Errorf("DecodeUTF16String(%v) = %v, want EINVAL", tc.payload, err)
			}
		})
	}
}
