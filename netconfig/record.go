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

// Package netconfig parses network directives from the kernel command line or
// a configuration file and merges them into per-interface records. The
// networkd package turns the merged records into declarative configuration
// fragments.
package netconfig

import (
	"slices"

	"golang.org/x/sys/unix"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/utils"
)

const (
	// MaxInterfaces is the capacity of the interface record table.
	MaxInterfaces = 10

	// MaxVLANs is the capacity of the VLAN table.
	MaxVLANs = 10

	// maxVlanRefs limits how many VLANs a single interface may parent.
	maxVlanRefs = 3

	// MaxVlanID is the largest valid 12-bit VLAN id.
	MaxVlanID = 4095
)

// TriState is a yes/no setting that can also be left unspecified.
type TriState int

// TriState values.
const (
	TriUnset TriState = iota
	TriFalse
	TriTrue
)

// Record describes one network interface's desired configuration. A record
// with an empty Interface is a free record, see State.Merge.
type Record struct {
	// Interface is the textual selector: an exact name, a glob containing '*'
	// or a MAC address literal containing ':'. For a VLAN selector such as
	// eth0.66 the parent name is stored here and the id in VlanID.
	Interface string

	// VlanID is the VLAN id carried by the interface selector, 0 if none.
	VlanID int

	// ClientIPs are the static addresses. In the legacy (ifcfg) layout each
	// entry carries its own /prefix; otherwise Netmask supplies it.
	ClientIPs []string

	// PeerIP is the point-to-point peer address.
	PeerIP string

	// Gateway and Gateway1 are the two default gateway slots. The second one
	// exists because legacy route directives can contribute one more.
	Gateway  string
	Gateway1 string

	// Destination is a routed prefix, only set by route directives.
	Destination string

	// Netmask is the CIDR prefix length, 0 means unset.
	Netmask int

	// Hostname is the DHCP client hostname.
	Hostname string

	// Autoconf is the symbolic auto-configuration method.
	Autoconf Autoconf

	// UseDNS controls whether DNS servers offered by DHCP are honored.
	UseDNS TriState

	// DNS1, DNS2 and NTP are server lists, emitted in input order.
	DNS1 []string
	DNS2 []string
	NTP  []string

	// MTU is the desired MTU in bytes, 0 means unset.
	MTU int

	// MACAddr pins the link to a MAC address.
	MACAddr string

	// Domains is the space-separated search domain list.
	Domains string

	// VlanRefs names the VLANs this interface is a parent of.
	VlanRefs []string

	// Legacy marks records produced by the ifcfg= parser, which are rendered
	// with the legacy file layout.
	Legacy bool

	// DHCPv4, DHCPv6 and RFC2132 are the legacy DHCP family switches.
	DHCPv4  bool
	DHCPv6  bool
	RFC2132 bool

	// Origin is the input entry index that first contributed this record,
	// kept for diagnostics.
	Origin int
}

// VLAN is one entry of the VLAN table.
type VLAN struct {
	ID   int
	Name string
}

// State carries the three tables the generator builds up: the merged
// interface records, the VLAN definitions and the output directory. One
// State is threaded through parser, merger and emitter.
type State struct {
	OutputDir string
	Records   []*Record
	VLANs     []VLAN

	// Legacy ifcfg VLANs, grouped by parent interface in first-seen order.
	legacyParents []string
	legacyVlans   map[string][]int
}

// NewState returns an empty State writing to outputDir.
func NewState(outputDir string) *State {
	return &State{
		OutputDir:   outputDir,
		legacyVlans: make(map[string][]int),
	}
}

// AddVLAN records a VLAN definition. Ids are unique, the first definition
// wins. The historic overflow test is kept as-is: the table holds one entry
// less than its nominal capacity.
func (s *State) AddVLAN(id int, name string) error {
	for _, v := range s.VLANs {
		if v.ID == id {
			return nil
		}
	}
	if len(s.VLANs)+1 == MaxVLANs {
		return utils.Errnof(unix.E2BIG, "too many VLANs, maximum is %d", MaxVLANs)
	}
	s.VLANs = append(s.VLANs, VLAN{ID: id, Name: name})
	return nil
}

// LegacyParents returns the parents of ifcfg-declared VLANs in first-seen
// order.
func (s *State) LegacyParents() []string {
	return s.legacyParents
}

// LegacyVlanIDs returns the VLAN ids declared below the given parent.
func (s *State) LegacyVlanIDs(parent string) []int {
	return s.legacyVlans[parent]
}

func (s *State) addLegacyVlan(parent string, id int) {
	for _, known := range s.legacyVlans[parent] {
		if known == id {
			return
		}
	}
	if _, found := s.legacyVlans[parent]; !found {
		s.legacyParents = append(s.legacyParents, parent)
	}
	s.legacyVlans[parent] = append(s.legacyVlans[parent], id)
}

// Merge folds the partial record r into the table. A record naming an
// interface merges into the record with the same selector or is appended; a
// free record merges into every record that has an interface and is only
// appended when no such record exists. entry is the input position of r, for
// diagnostics.
func (s *State) Merge(r *Record, entry int) error {
	if r == nil {
		return nil
	}

	if r.Interface != "" {
		for _, rec := range s.Records {
			if rec.Interface == r.Interface && rec.VlanID == r.VlanID {
				logger.Debugf("entry %d: merging into existing record for %q", entry, r.Interface)
				return s.mergeInto(rec, r, entry)
			}
		}
		return s.append(r, entry)
	}

	var merged bool
	for _, rec := range s.Records {
		if rec.Interface == "" {
			continue
		}
		if err := s.mergeInto(rec, r, entry); err != nil {
			return err
		}
		merged = true
	}
	if merged {
		return nil
	}
	return s.append(r, entry)
}

func (s *State) append(r *Record, entry int) error {
	if len(s.Records) == MaxInterfaces {
		return utils.Errnof(unix.E2BIG, "too many interfaces, maximum is %d", MaxInterfaces)
	}
	r.Origin = entry
	s.Records = append(s.Records, r)
	if r.Legacy && r.VlanID > 0 {
		s.addLegacyVlan(r.Interface, r.VlanID)
	}
	return nil
}

// mergeInto copies the set fields of src on top of dst. Gateways and VLAN
// references are additive and fill the next free slot; running out of slots
// is a hard error.
func (s *State) mergeInto(dst, src *Record, entry int) error {
	if len(src.ClientIPs) > 0 {
		dst.ClientIPs = src.ClientIPs
	}
	if src.PeerIP != "" {
		dst.PeerIP = src.PeerIP
	}
	if src.Netmask > 0 {
		dst.Netmask = src.Netmask
	}
	if src.Hostname != "" {
		dst.Hostname = src.Hostname
	}
	if src.Autoconf != "" {
		dst.Autoconf = src.Autoconf
	}
	if src.UseDNS != TriUnset {
		dst.UseDNS = src.UseDNS
	}
	if len(src.DNS1) > 0 {
		dst.DNS1 = src.DNS1
	}
	if len(src.DNS2) > 0 {
		dst.DNS2 = src.DNS2
	}
	if len(src.NTP) > 0 {
		dst.NTP = src.NTP
	}
	if src.MTU > 0 {
		dst.MTU = src.MTU
	}
	if src.MACAddr != "" {
		dst.MACAddr = src.MACAddr
	}
	if src.Domains != "" {
		dst.Domains = src.Domains
	}
	if src.Destination != "" {
		dst.Destination = src.Destination
	}

	for _, gw := range []string{src.Gateway, src.Gateway1} {
		if gw == "" {
			continue
		}
		switch {
		case dst.Gateway == "":
			dst.Gateway = gw
		case dst.Gateway1 == "":
			dst.Gateway1 = gw
		default:
			return utils.Errnof(unix.E2BIG, "entry %d: too many gateways for %q", entry, dst.Interface)
		}
	}

	for _, ref := range src.VlanRefs {
		if slices.Contains(dst.VlanRefs, ref) {
			continue
		}
		if len(dst.VlanRefs) == maxVlanRefs {
			return utils.Errnof(unix.E2BIG, "entry %d: too many VLAN references for %q", entry, dst.Interface)
		}
		dst.VlanRefs = append(dst.VlanRefs, ref)
	}

	if src.Legacy {
		dst.Legacy = true
	}
	if src.DHCPv4 {
		dst.DHCPv4 = true
	}
	if src.DHCPv6 {
		dst.DHCPv6 = true
	}
	if src.RFC2132 {
		dst.RFC2132 = true
	}

	return nil
}
