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

// Package cfg is responsible for loading and accessing the program's own
// configuration. The directives the generator consumes are not handled here,
// only the defaults the commands start from.
package cfg

import (
	"fmt"

	"github.com/go-ini/ini"
)

var (
	// instance is the single instance of configuration sections, once loaded this
	// package should always return it.
	instance *Sections

	// dataSources is a pointer to a data source loading/defining function, unit
	// tests will want to change this pointer to whatever makes sense to its
	// implementation.
	dataSources = defaultDataSources
)

const (
	configPath = `/etc/rdi/netconfig.cfg`

	defaultConfig = `
[Network]
output_dir = /run/systemd/network
parse_all = false
debug = false

[Paths]
cmdline = /proc/cmdline
efivars = /sys/firmware/efi/efivars
`
)

// Sections encapsulates all the configuration sections.
type Sections struct {
	// Network defines the generator behavior defaults, overridable per
	// invocation by command line flags.
	Network *Network `ini:"Network,omitempty"`

	// Paths defines where the kernel command line and the firmware variables
	// are read from. Tests point these at fixture trees.
	Paths *Paths `ini:"Paths,omitempty"`
}

// Network contains the configurations of Network section.
type Network struct {
	// OutputDir is where the generated .network and .netdev fragments go.
	OutputDir string `ini:"output_dir,omitempty"`

	// ParseAll enables processing of all directive prefixes on the kernel
	// command line, not just ifcfg=.
	ParseAll bool `ini:"parse_all,omitempty"`

	// Debug enables verbose diagnostics.
	Debug bool `ini:"debug,omitempty"`
}

// Paths contains the configurations of Paths section.
type Paths struct {
	Cmdline string `ini:"cmdline,omitempty"`
	EFIVars string `ini:"efivars,omitempty"`
}

// defaultDataSources returns the configuration sources in override order:
// later sources take precedence over earlier ones when loaded by go-ini.
func defaultDataSources(extraDefaults []byte) []interface{} {
	res := []interface{}{[]byte(defaultConfig)}

	if len(extraDefaults) > 0 {
		res = append(res, extraDefaults)
	}

	return append(res, configPath)
}

// Load loads default configuration and the configuration from the default
// config file.
func Load(extraDefaults []byte) error {
	opts := ini.LoadOptions{
		Loose:       true,
		Insensitive: true,
	}

	sources := dataSources(extraDefaults)
	cfg, err := ini.LoadSources(opts, sources[0], sources[1:]...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %+v", err)
	}

	sections := new(Sections)
	if err := cfg.MapTo(sections); err != nil {
		return fmt.Errorf("failed to map configuration to object: %+v", err)
	}

	instance = sections
	return nil
}

// Get returns the configuration's instance previously loaded with Load().
func Get() *Sections {
	if instance == nil {
		panic("cfg package was not initialized, Load() " +
			"should be called in the early initialization code path")
	}
	return instance
}
