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

package netconfig

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/thkukuk/rdi-netconfig/utils"
)

// vlanNameRegex extracts the id from the trailing digits of a VLAN name,
// covering the vlan0005, vlan5, eth0.0005 and eth0.5 styles.
var vlanNameRegex = regexp.MustCompile(`^(?P<base>.*?)(?P<id>[0-9]+)$`)

// parseNameserver handles nameserver=<ip>, contributing a global DNS server
// as a free record.
func parseNameserver(s *State, value string) (*Record, error) {
	addr := stripBrackets(value)
	if !isIPLiteral(addr) {
		return nil, utils.Errnof(unix.EINVAL, "nameserver: invalid address %q", value)
	}
	return &Record{DNS1: []string{addr}}, nil
}

// parsePeerDNS handles rd.peerdns=0|1, a free record toggling whether DHCP
// provided DNS servers are honored.
func parsePeerDNS(s *State, value string) (*Record, error) {
	switch value {
	case "0":
		return &Record{UseDNS: TriFalse}, nil
	case "1":
		return &Record{UseDNS: TriTrue}, nil
	}
	return nil, utils.Errnof(unix.EINVAL, "rd.peerdns: invalid value %q", value)
}

// parseRoute handles rd.route=<destination>[:<gateway>][:<interface>].
func parseRoute(s *State, value string) (*Record, error) {
	fields := splitIPFields(value)
	if len(fields) > 3 {
		return nil, utils.Errnof(unix.EINVAL, "rd.route: too many fields in %q", value)
	}

	dest := stripBrackets(fields[0])
	if dest == "" {
		return nil, utils.Errnof(unix.EINVAL, "rd.route: missing destination")
	}

	rec := &Record{Destination: dest}
	if len(fields) > 1 {
		rec.Gateway = stripBrackets(fields[1])
	}
	if len(fields) > 2 {
		rec.Interface = fields[2]
	}

	return rec, nil
}

// parseVLAN handles vlan=<vlan-name>:<parent-interface>. The id comes from
// the name's digit suffix; the name itself is preserved verbatim in the VLAN
// table and as the parent's VLAN reference.
func parseVLAN(s *State, value string) (*Record, error) {
	name, parent, found := strings.Cut(value, ":")
	if !found || name == "" || parent == "" {
		return nil, utils.Errnof(unix.EINVAL, "vlan: expected <vlan-name>:<parent-interface>, got %q", value)
	}

	groups := utils.RegexGroupsMap(vlanNameRegex, name)
	digits, ok := groups["id"]
	if !ok {
		return nil, utils.Errnof(unix.EINVAL, "vlan: no id digits in name %q", name)
	}

	id, err := strconv.Atoi(digits)
	if err != nil {
		return nil, utils.Errnof(unix.EINVAL, "vlan: invalid id in name %q", name)
	}
	if id < 1 || id > MaxVlanID {
		return nil, utils.Errnof(unix.EINVAL, "vlan: id %d out of range [1, %d]", id, MaxVlanID)
	}

	if err := s.AddVLAN(id, name); err != nil {
		return nil, err
	}

	return &Record{Interface: parent, VlanRefs: []string{name}}, nil
}
