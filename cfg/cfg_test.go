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

package cfg

import "testing"

func TestLoad(t *testing.T) {
	if err := Load(nil); err != nil {
		t.Fatalf("Failed to load configuration: %+v", err)
	}

	cfg := Get()
	if cfg.Network.OutputDir != "/run/systemd/network" {
		t.Errorf("Expected Network.output_dir to be: /run/systemd/network, got: %s", cfg.Network.OutputDir)
	}

	if cfg.Network.ParseAll == true {
		t.Errorf("Expected Network.parse_all to be: false, got: true")
	}

	if cfg.Paths.Cmdline != "/proc/cmdline" {
		t.Errorf("Expected Paths.cmdline to be: /proc/cmdline, got: %s", cfg.Paths.Cmdline)
	}

	if cfg.Paths.EFIVars != "/sys/firmware/efi/efivars" {
		t.Errorf("Expected Paths.efivars to be: /sys/firmware/efi/efivars, got: %s", cfg.Paths.EFIVars)
	}
}

func TestLoadExtraDefaults(t *testing.T) {
	extra := `
[Network]
output_dir = /tmp/netconfig-test
parse_all = true
`
	if err := Load([]byte(extra)); err != nil {
		t.Fatalf("Failed to load configuration: %+v", err)
	}

	cfg := Get()
	if cfg.Network.OutputDir != "/tmp/netconfig-test" {
		t.Errorf("Expected Network.output_dir to be: /tmp/netconfig-test, got: %s", cfg.Network.OutputDir)
	}

	if cfg.Network.ParseAll != true {
		t.Errorf("Expected Network.parse_all to be: true, got: false")
	}
}

func TestInvalidConfig(t *testing.T) {
	invalidConfig := `
[Section
key = value
`

	dataSources = func(extraDefaults []byte) []interface{} {
		return []interface{}{
			[]byte(invalidConfig),
		}
	}

	// After testing set it back to the default one.
	defer func() {
		dataSources = defaultDataSources
	}()

	if err := Load(nil); err == nil {
		t.Errorf("Load() didn't fail to load invalid configuration, expected error")
	}
}

func TestDefaultDataSources(t *testing.T) {
	expectedDataSources := 2
	sources := defaultDataSources(nil)
	if len(sources) != expectedDataSources {
		t.Errorf("defaultDataSources() returned wrong number of sources, expected: %d, got: %d",
			expectedDataSources, len(sources))
	}

	_, ok := sources[0].([]byte)
	if !ok {
		t.Errorf("defaultDataSources() returned wrong sources, first source should be of type []byte")
	}
}
