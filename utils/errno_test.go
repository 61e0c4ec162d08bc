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

package utils

import (
	"errors"
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
)

func TestErrnof(t *testing.T) {
	err := Errnof(unix.E2BIG, "too many interfaces: %d", 11)

	if got, want := err.Error(), "too many interfaces: 11"; got != want {
		t.Errorf("Errnof().Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, unix.E2BIG) {
		t.Errorf("errors.Is(%v, E2BIG) = false, want true", err)
	}
	if errors.Is(err, unix.EINVAL) {
		t.Errorf("errors.Is(%v, EINVAL) = true, want false", err)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{Errnof(unix.EINVAL, "syntax error"), int(unix.EINVAL)},
		{Errnof(unix.E2BIG, "table full"), int(unix.E2BIG)},
		{fmt.Errorf("wrapped: %w", Errnof(unix.ENOENT, "no variable")), int(unix.ENOENT)},
		{errors.New("untagged"), int(unix.EINVAL)},
	}

	for i, tc := range tests {
		t.Run(fmt.Sprintf("exit-code-%d", i), func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
