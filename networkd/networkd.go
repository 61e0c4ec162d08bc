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

// Package networkd serializes merged interface records into declarative
// systemd-networkd configuration fragments: one .network file per record and
// one .netdev file per VLAN definition.
package networkd

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/go-ini/ini"

	"github.com/thkukuk/rdi-netconfig/netconfig"
	"github.com/thkukuk/rdi-netconfig/utils"
)

func init() {
	// The fragments use Key=Value without surrounding spaces.
	ini.PrettyFormat = false
}

// fileMode is the mode of every emitted fragment.
const fileMode = 0644

// Write emits all configuration fragments for the given state. Interface
// files come first, in merge order, the .netdev files after them so that a
// consumer reading in emission order never sees a dangling VLAN reference.
func Write(s *netconfig.State) error {
	if err := utils.MkdirAll(s.OutputDir); err != nil {
		return err
	}

	for i, rec := range s.Records {
		if err := writeRecord(s.OutputDir, i+1, rec); err != nil {
			return err
		}
	}

	for _, parent := range s.LegacyParents() {
		if err := writeLegacyParent(s.OutputDir, parent, s.LegacyVlanIDs(parent)); err != nil {
			return err
		}
	}

	seen := make(map[int]bool)
	for _, parent := range s.LegacyParents() {
		for _, id := range s.LegacyVlanIDs(parent) {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := writeLegacyNetdev(s.OutputDir, id); err != nil {
				return err
			}
		}
	}

	for _, v := range s.VLANs {
		if err := writeNetdev(s.OutputDir, v); err != nil {
			return err
		}
	}

	return nil
}

// newFragment returns an empty ini file prepared for repeated keys and a
// repeated [Route] section.
func newFragment() *ini.File {
	return ini.Empty(ini.LoadOptions{
		AllowShadows:           true,
		AllowNonUniqueSections: true,
	})
}

// addKey appends one Key=Value line, shadowing the key if it already exists.
func addKey(sec *ini.Section, name, value string) {
	if sec.HasKey(name) {
		key, err := sec.GetKey(name)
		if err == nil {
			if err := key.AddShadow(value); err != nil {
				logger.Warningf("unable to add %s=%s: %v", name, value, err)
			}
			return
		}
	}
	if _, err := sec.NewKey(name, value); err != nil {
		logger.Warningf("unable to add %s=%s: %v", name, value, err)
	}
}

// addList appends one Key=Value line per element, in input order.
func addList(sec *ini.Section, name string, values []string) {
	for _, v := range values {
		addKey(sec, name, v)
	}
}

// vlanName renders a legacy ifcfg VLAN interface name for an id.
func vlanName(id int) string {
	return fmt.Sprintf("Vlan%04d", id)
}

func saveFragment(f *ini.File, filePath string) error {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return fmt.Errorf("error serializing %q: %v", filePath, err)
	}
	if err := utils.WriteFile(buf.Bytes(), filePath, fileMode); err != nil {
		return fmt.Errorf("error saving %q: %w", filePath, err)
	}
	return nil
}

// networkFile returns the .network file path of the record with the given
// two-digit entry index.
func networkFile(dir string, index int) string {
	return path.Join(dir, fmt.Sprintf("66-ip-%02d.network", index))
}

func writeRecord(dir string, index int, rec *netconfig.Record) error {
	logger.Debugf("write network config %02d for %q", index, rec.Interface)

	var f *ini.File
	if rec.Legacy {
		f = buildLegacyNetwork(rec)
	} else {
		f = buildNetwork(rec)
	}
	return saveFragment(f, networkFile(dir, index))
}

// buildLegacyNetwork renders an ifcfg record: everything lives in the
// [Network] section, DHCP details in [DHCPv4]/[DHCPv6].
func buildLegacyNetwork(rec *netconfig.Record) *ini.File {
	f := newFragment()

	match, _ := f.NewSection("Match")
	switch {
	case rec.VlanID > 0:
		addKey(match, "Name", vlanName(rec.VlanID))
		addKey(match, "Type", "vlan")
	case strings.Contains(rec.Interface, ":"):
		addKey(match, "Name", "*")
		addKey(match, "MACAddress", rec.Interface)
	default:
		addKey(match, "Name", rec.Interface)
	}

	network, _ := f.NewSection("Network")
	if dhcp := legacyDHCPValue(rec); dhcp != "" {
		addKey(network, "DHCP", dhcp)
	}
	addList(network, "Address", rec.ClientIPs)
	if rec.Gateway != "" {
		addKey(network, "Gateway", rec.Gateway)
	}
	if rec.Gateway1 != "" {
		addKey(network, "Gateway", rec.Gateway1)
	}
	addList(network, "DNS", rec.DNS1)
	addList(network, "DNS", rec.DNS2)
	if rec.Domains != "" {
		addKey(network, "Domains", rec.Domains)
	}
	addList(network, "VLAN", rec.VlanRefs)

	useDNS := "true"
	if rec.UseDNS == netconfig.TriFalse {
		useDNS = "false"
	}
	if rec.DHCPv4 {
		dhcp4, _ := f.NewSection("DHCPv4")
		addKey(dhcp4, "UseHostname", "false")
		addKey(dhcp4, "UseDNS", useDNS)
		addKey(dhcp4, "UseNTP", "true")
		if rec.RFC2132 {
			addKey(dhcp4, "ClientIdentifier", "mac")
		}
	}
	if rec.DHCPv6 {
		dhcp6, _ := f.NewSection("DHCPv6")
		addKey(dhcp6, "UseHostname", "false")
		addKey(dhcp6, "UseDNS", useDNS)
		addKey(dhcp6, "UseNTP", "true")
	}

	return f
}

func legacyDHCPValue(rec *netconfig.Record) string {
	switch {
	case rec.DHCPv4 && rec.DHCPv6:
		return "yes"
	case rec.DHCPv4:
		return "ipv4"
	case rec.DHCPv6:
		return "ipv6"
	}
	return ""
}

// buildNetwork renders an ip=/route/free record with the full section
// layout: [Match], [Link], [Network], [DHCP], [Address] and up to two
// [Route] sections. Sections without content are not emitted.
func buildNetwork(rec *netconfig.Record) *ini.File {
	f := newFragment()

	match, _ := f.NewSection("Match")
	switch {
	case rec.Interface == "" || rec.Interface == "*":
		addKey(match, "Kind", "!*")
		addKey(match, "Type", "!loopback")
	case strings.Contains(rec.Interface, ":"):
		addKey(match, "Name", "*")
		addKey(match, "MACAddress", rec.Interface)
	default:
		addKey(match, "Name", rec.Interface)
	}

	if rec.MACAddr != "" || rec.MTU > 0 {
		link, _ := f.NewSection("Link")
		if rec.MACAddr != "" {
			addKey(link, "MACAddress", rec.MACAddr)
		}
		if rec.MTU > 0 {
			addKey(link, "MTUBytes", strconv.Itoa(rec.MTU))
		}
	}

	dhcp, haveDHCP := "", false
	if rec.Autoconf != "" {
		dhcp, haveDHCP = rec.Autoconf.DHCPValue()
		if !haveDHCP {
			logger.Warningf("unknown autoconf method %q, emitting no DHCP line", string(rec.Autoconf))
		}
	}
	if haveDHCP || len(rec.DNS1) > 0 || len(rec.DNS2) > 0 || len(rec.NTP) > 0 ||
		rec.Domains != "" || len(rec.VlanRefs) > 0 {
		network, _ := f.NewSection("Network")
		if haveDHCP {
			addKey(network, "DHCP", dhcp)
		}
		addList(network, "DNS", rec.DNS1)
		addList(network, "DNS", rec.DNS2)
		addList(network, "NTP", rec.NTP)
		if rec.Domains != "" {
			addKey(network, "Domains", rec.Domains)
		}
		addList(network, "VLAN", rec.VlanRefs)
	}

	if rec.Hostname != "" || rec.UseDNS != netconfig.TriUnset {
		dhcpSec, _ := f.NewSection("DHCP")
		if rec.Hostname != "" {
			addKey(dhcpSec, "Hostname", rec.Hostname)
		}
		switch rec.UseDNS {
		case netconfig.TriTrue:
			addKey(dhcpSec, "UseDNS", "true")
		case netconfig.TriFalse:
			addKey(dhcpSec, "UseDNS", "false")
		}
	}

	if len(rec.ClientIPs) > 0 || rec.PeerIP != "" {
		address, _ := f.NewSection("Address")
		for _, ip := range rec.ClientIPs {
			addKey(address, "Address", fmt.Sprintf("%s/%d", ip, rec.Netmask))
		}
		if rec.PeerIP != "" {
			addKey(address, "Peer", rec.PeerIP)
		}
	}

	addRoutes(f, rec)

	return f
}

// addRoutes emits the route sections. A destination travels with the
// gateway it was contributed with: next to the primary gateway when it is
// the only one, in a second [Route] with the secondary gateway otherwise.
func addRoutes(f *ini.File, rec *netconfig.Record) {
	switch {
	case rec.Destination != "" && rec.Gateway1 != "":
		route, _ := f.NewSection("Route")
		addKey(route, "Gateway", rec.Gateway)
		second, _ := f.NewSection("Route")
		addKey(second, "Destination", rec.Destination)
		addKey(second, "Gateway", rec.Gateway1)
	case rec.Destination != "":
		route, _ := f.NewSection("Route")
		addKey(route, "Destination", rec.Destination)
		if rec.Gateway != "" {
			addKey(route, "Gateway", rec.Gateway)
		}
	default:
		if rec.Gateway != "" {
			route, _ := f.NewSection("Route")
			addKey(route, "Gateway", rec.Gateway)
		}
		if rec.Gateway1 != "" {
			second, _ := f.NewSection("Route")
			addKey(second, "Gateway", rec.Gateway1)
		}
	}
}

// writeNetdev emits the .netdev file of one VLAN table entry.
func writeNetdev(dir string, v netconfig.VLAN) error {
	logger.Debugf("write netdev config for VLAN %q (id %d)", v.Name, v.ID)

	f := newFragment()
	netdev, _ := f.NewSection("NetDev")
	addKey(netdev, "Name", v.Name)
	addKey(netdev, "Kind", "vlan")
	vlan, _ := f.NewSection("VLAN")
	addKey(vlan, "Id", strconv.Itoa(v.ID))

	return saveFragment(f, path.Join(dir, fmt.Sprintf("62-rdii-%s.netdev", v.Name)))
}

// writeLegacyNetdev emits the .netdev file of an ifcfg-declared VLAN id.
func writeLegacyNetdev(dir string, id int) error {
	logger.Debugf("write netdev config for legacy VLAN id %d", id)

	f := newFragment()
	netdev, _ := f.NewSection("NetDev")
	addKey(netdev, "Name", vlanName(id))
	addKey(netdev, "Kind", "vlan")
	vlan, _ := f.NewSection("VLAN")
	addKey(vlan, "Id", strconv.Itoa(id))

	return saveFragment(f, path.Join(dir, fmt.Sprintf("62-ifcfg-vlan%04d.netdev", id)))
}

// writeLegacyParent links an ethernet device to its ifcfg-declared VLANs.
func writeLegacyParent(dir, parent string, ids []int) error {
	logger.Debugf("write parent link config for %q", parent)

	f := newFragment()
	match, _ := f.NewSection("Match")
	addKey(match, "Name", parent)
	network, _ := f.NewSection("Network")
	for _, id := range ids {
		addKey(network, "VLAN", vlanName(id))
	}

	return saveFragment(f, path.Join(dir, fmt.Sprintf("64-ifcfg-vlan-%s.network", parent)))
}
