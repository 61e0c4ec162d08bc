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

// Autoconf is the symbolic auto-configuration method of a link. The value is
// kept verbatim from the input; DHCPValue maps the closed set of known
// methods to the emitter's DHCP primitive.
type Autoconf string

// The known auto-configuration methods.
const (
	AutoconfNone      Autoconf = "none"
	AutoconfOff       Autoconf = "off"
	AutoconfOn        Autoconf = "on"
	AutoconfAny       Autoconf = "any"
	AutoconfDHCP      Autoconf = "dhcp"
	AutoconfDHCP6     Autoconf = "dhcp6"
	AutoconfAuto6     Autoconf = "auto6"
	AutoconfEither6   Autoconf = "either6"
	AutoconfIBFT      Autoconf = "ibft"
	AutoconfLink6     Autoconf = "link6"
	AutoconfLinkLocal Autoconf = "link-local"
)

// dhcpValues is the single source of truth mapping each known method to the
// DHCP= primitive of the emitted [Network] section.
var dhcpValues = map[Autoconf]string{
	AutoconfNone:      "no",
	AutoconfOff:       "no",
	AutoconfAuto6:     "no",
	AutoconfIBFT:      "no",
	AutoconfLink6:     "no",
	AutoconfLinkLocal: "no",
	AutoconfOn:        "yes",
	AutoconfAny:       "yes",
	AutoconfDHCP:      "ipv4",
	AutoconfDHCP6:     "ipv6",
	AutoconfEither6:   "ipv6",
}

// DHCPValue returns the DHCP= primitive for the method. The second return is
// false for unknown methods, which produce no DHCP line.
func (a Autoconf) DHCPValue() (string, bool) {
	v, ok := dhcpValues[a]
	return v, ok
}
