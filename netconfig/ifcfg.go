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
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/thkukuk/rdi-netconfig/utils"
)

// parseIfcfg handles the legacy single-interface specification:
//
//	ifcfg=<interface-spec>=<ip-spec>
//
// The interface spec is a name, name.vlanid, MAC address or glob. The ip
// spec is either a DHCP selector (dhcp, dhcp4, dhcp6, optionally with
// rfc2132) or the four comma-separated lists <IPs>,<gateways>,<DNS>,<domains>
// with space-separated items.
func parseIfcfg(s *State, value string) (*Record, error) {
	eq := strings.Index(value, "=")
	if eq < 0 {
		return nil, utils.Errnof(unix.EINVAL, "ifcfg: missing '=' between interface and address spec")
	}

	ifspec, ipspec := value[:eq], value[eq+1:]
	if ifspec == "" || ipspec == "" {
		return nil, utils.Errnof(unix.EINVAL, "ifcfg: empty interface or address spec")
	}

	rec := &Record{Legacy: true}

	switch {
	case strings.Contains(ifspec, ":"):
		// MAC address literal.
		rec.Interface = ifspec
	case strings.Contains(ifspec, "."):
		dot := strings.LastIndex(ifspec, ".")
		id, err := parseVlanID(ifspec[dot+1:])
		if err != nil {
			return nil, err
		}
		if ifspec[:dot] == "" {
			return nil, utils.Errnof(unix.EINVAL, "ifcfg: missing parent interface in %q", ifspec)
		}
		rec.Interface = ifspec[:dot]
		rec.VlanID = id
	default:
		rec.Interface = ifspec
	}

	if err := parseIfcfgAddress(rec, ipspec); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseIfcfgAddress(rec *Record, ipspec string) error {
	fields := strings.Split(ipspec, ",")

	switch fields[0] {
	case "dhcp", "dhcp4", "dhcp6":
		rec.DHCPv4 = fields[0] != "dhcp6"
		rec.DHCPv6 = fields[0] != "dhcp4"
		if len(fields) == 1 {
			return nil
		}
		if len(fields) > 2 || fields[1] != "rfc2132" {
			return utils.Errnof(unix.EINVAL, "ifcfg: invalid DHCP option %q", ipspec)
		}
		// MAC based client identifier, DHCPv4 only.
		rec.RFC2132 = true
		return nil
	}

	if len(fields) > 4 {
		return utils.Errnof(unix.EINVAL, "ifcfg: too many address fields in %q", ipspec)
	}

	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	rec.ClientIPs = strings.Fields(at(0))

	gateways := strings.Fields(at(1))
	if len(gateways) > 2 {
		return utils.Errnof(unix.E2BIG, "ifcfg: too many gateways in %q", ipspec)
	}
	if len(gateways) > 0 {
		rec.Gateway = gateways[0]
	}
	if len(gateways) > 1 {
		rec.Gateway1 = gateways[1]
	}

	rec.DNS1 = strings.Fields(at(2))
	rec.Domains = strings.Join(strings.Fields(at(3)), " ")

	return nil
}

// parseVlanID validates a 1..4095 VLAN id.
func parseVlanID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, utils.Errnof(unix.EINVAL, "invalid VLAN id %q", s)
	}
	if id < 1 || id > MaxVlanID {
		return 0, utils.Errnof(unix.EINVAL, "VLAN id %d out of range [1, %d]", id, MaxVlanID)
	}
	return id, nil
}
