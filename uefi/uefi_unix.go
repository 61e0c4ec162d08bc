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

//go:build unix

// Package uefi provides utility functions to read UEFI variables.
package uefi

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/thkukuk/rdi-netconfig/utils"
)

const (
	defaultEFIVarsDir = "/sys/firmware/efi/efivars"
)

// Supported reports whether the firmware variable filesystem is available.
// Its absence is tagged ENOTSUP so callers can tell "no EFI here" from an
// ordinary missing variable.
func Supported(rootDir string) error {
	if rootDir == "" {
		rootDir = defaultEFIVarsDir
	}
	if _, err := os.Stat(rootDir); err != nil {
		return utils.Errnof(unix.ENOTSUP, "firmware variables not available at %q: %v", rootDir, err)
	}
	return nil
}

// Path returns a path for UEFI variable on disk.
func (v VariableName) Path() string {
	root := v.RootDir
	if root == "" {
		root = defaultEFIVarsDir
	}
	return filepath.Join(root, v.Name+"-"+v.GUID)
}

// VerifyType rejects anything other than a regular file, with a distinct
// error code per file type.
func VerifyType(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return utils.Errnof(unix.ENOENT, "variable %q does not exist", path)
		}
		return fmt.Errorf("unable to stat %q: %w", path, err)
	}

	mode := fi.Mode()
	switch {
	case mode.IsRegular():
		return nil
	case mode.IsDir():
		return utils.Errnof(unix.EISDIR, "%q is a directory, not a variable", path)
	case mode&fs.ModeSymlink != 0:
		return utils.Errnof(unix.ELOOP, "%q is a symlink, not a variable", path)
	}
	return utils.Errnof(unix.EBADF, "%q is not a regular file", path)
}

// ReadVariable reads UEFI variable and returns as byte array.
// Throws an error if variable is invalid or empty.
func ReadVariable(v VariableName) (*Variable, error) {
	path := v.Path()
	if err := VerifyType(path); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", path, err)
	}

	// According to UEFI specification the first four bytes of the contents are attributes.
	if len(b) < 4 {
		return nil, utils.Errnof(unix.EINVAL, "%q contains %d bytes of data, it should have at least 4", path, len(b))
	}

	return &Variable{
		Name:       v,
		Attributes: b[:4],
		Content:    b[4:],
	}, nil
}

// ReadStringVariable reads a UEFI variable and decodes its payload as a
// UTF-16LE string.
func ReadStringVariable(v VariableName) (string, error) {
	variable, err := ReadVariable(v)
	if err != nil {
		return "", err
	}

	s, err := DecodeUTF16String(variable.Content)
	if err != nil {
		return "", fmt.Errorf("error decoding %q: %w", v.Path(), err)
	}
	return s, nil
}
