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
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrnoError is an error tagged with the errno the process should exit with.
type ErrnoError struct {
	Errno unix.Errno
	msg   string
}

// Error implements the error interface.
func (e *ErrnoError) Error() string {
	return e.msg
}

// Unwrap exposes the underlying errno so callers can match it with errors.Is.
func (e *ErrnoError) Unwrap() error {
	return e.Errno
}

// Errnof formats an error message and tags it with errno.
func Errnof(errno unix.Errno, format string, args ...any) error {
	return &ErrnoError{Errno: errno, msg: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error to the process exit status: the positive errno value
// if one is attached, EINVAL for untagged errors and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	// Errors coming out of the os package carry a syscall.Errno instead.
	var sysErrno syscall.Errno
	if errors.As(err, &sysErrno) {
		return int(sysErrno)
	}
	return int(unix.EINVAL)
}
