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

// OS file util for rdi-netconfig and rdi-bootsource.

package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// dirMode is the mode used for every directory created on the way to an
// output file.
const dirMode = 0755

// MkdirAll creates dir and all missing parents.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("unable to create required directories %q: %w", dir, err)
	}
	return nil
}

// WriteFile creates parent directories if required and writes content to the
// output file, truncating it if it already exists.
func WriteFile(content []byte, outputFile string, perm fs.FileMode) error {
	if err := MkdirAll(filepath.Dir(outputFile)); err != nil {
		return err
	}
	return os.WriteFile(outputFile, content, perm)
}
