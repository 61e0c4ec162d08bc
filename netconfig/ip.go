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
	"encoding/binary"
	"math/bits"
	"net"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/thkukuk/rdi-netconfig/utils"
)

// parseIP handles the historical colon-delimited ip= directive. The form is
// chosen by heuristic: a value without any colon is an auto-configuration
// method on its own, a value starting with an IP literal is the long form
//
//	<client>:[peer]:<gateway>:<netmask>:[hostname]:<interface>:[autoconf][:dns1:dns2[:ntp] | :mtu:macaddr]
//
// and anything else is the short form <interface>:<autoconf>[:[mtu][:macaddr]].
func parseIP(s *State, value string) (*Record, error) {
	if value == "" {
		return nil, utils.Errnof(unix.EINVAL, "ip: empty value")
	}

	if !strings.Contains(value, ":") {
		// A client IP given without any colons lands here too and is kept
		// as the method; the mapping table will reject it at emit time.
		return &Record{Autoconf: Autoconf(value)}, nil
	}

	fields := splitIPFields(value)
	if isIPLiteral(fields[0]) {
		return parseIPLong(fields)
	}
	return parseIPShort(fields)
}

func parseIPShort(fields []string) (*Record, error) {
	if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
		return nil, utils.Errnof(unix.EINVAL, "ip: short form needs <interface>:<autoconf>")
	}

	rec := &Record{
		Interface: fields[0],
		Autoconf:  Autoconf(fields[1]),
	}

	if len(fields) > 2 && fields[2] != "" {
		mtu, err := strconv.Atoi(fields[2])
		if err != nil || mtu < 0 {
			return nil, utils.Errnof(unix.EINVAL, "ip: invalid MTU %q", fields[2])
		}
		rec.MTU = mtu
	}
	if len(fields) > 3 {
		// The MAC address itself is colon separated, glue it back together.
		if mac := strings.Join(fields[3:], ":"); mac != "" {
			rec.MACAddr = mac
		}
	}

	return rec, nil
}

func parseIPLong(fields []string) (*Record, error) {
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	rec := &Record{
		PeerIP:    stripBrackets(at(1)),
		Gateway:   stripBrackets(at(2)),
		Hostname:  at(4),
		Interface: at(5),
	}

	client := stripBrackets(at(0))
	if maskTok := at(3); maskTok != "" {
		mask, err := parseNetmask(maskTok)
		if err != nil {
			return nil, err
		}
		rec.Netmask = mask
	}
	if client != "" {
		if rec.Netmask < 1 {
			return nil, utils.Errnof(unix.EINVAL, "ip: client address %q without a netmask", client)
		}
		rec.ClientIPs = []string{client}
	}

	// A catch-all hostname matches every link.
	if rec.Hostname == "*" {
		rec.Hostname = ""
		if rec.Interface == "" {
			rec.Interface = "*"
		}
	}

	if ac := at(6); ac != "" {
		rec.Autoconf = Autoconf(ac)
	}

	if len(fields) > 7 {
		if err := parseIPTail(rec, fields[7:]); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// parseIPTail disambiguates the long form's trailing fields: a leading IP
// literal makes it the DNS/NTP servers, a leading empty field makes the
// remaining fields the MAC address, anything else is the pair mtu:macaddr.
// The number of groups in the MAC address is not checked.
func parseIPTail(rec *Record, tail []string) error {
	switch {
	case isIPLiteral(tail[0]):
		rec.DNS1 = []string{stripBrackets(tail[0])}
		if len(tail) > 1 && tail[1] != "" {
			rec.DNS2 = []string{stripBrackets(tail[1])}
		}
		if len(tail) > 2 && tail[2] != "" {
			rec.NTP = []string{stripBrackets(tail[2])}
		}
	case tail[0] == "":
		if mac := strings.Join(tail[1:], ":"); mac != "" {
			rec.MACAddr = mac
		}
	default:
		mtu, err := strconv.Atoi(tail[0])
		if err != nil || mtu < 0 {
			return utils.Errnof(unix.EINVAL, "ip: invalid MTU %q", tail[0])
		}
		rec.MTU = mtu
		if len(tail) > 1 {
			if mac := strings.Join(tail[1:], ":"); mac != "" {
				rec.MACAddr = mac
			}
		}
	}
	return nil
}

// parseNetmask accepts a decimal prefix length or a dotted-quad netmask.
// Dotted quads must have contiguous leading one bits.
func parseNetmask(tok string) (int, error) {
	if strings.Contains(tok, ".") {
		ip := net.ParseIP(tok)
		if ip == nil || ip.To4() == nil {
			return 0, utils.Errnof(unix.EINVAL, "invalid netmask %q", tok)
		}
		v := binary.BigEndian.Uint32(ip.To4())
		ones := bits.OnesCount32(v)
		if v != uint32(0xffffffff)<<(32-ones) {
			return 0, utils.Errnof(unix.EINVAL, "non-contiguous netmask %q", tok)
		}
		return ones, nil
	}

	prefix, err := strconv.Atoi(tok)
	if err != nil || prefix < 0 || prefix > 128 {
		return 0, utils.Errnof(unix.EINVAL, "invalid prefix length %q", tok)
	}
	return prefix, nil
}

// splitIPFields splits on colons, leaving bracketed IPv6 literals whole.
func splitIPFields(s string) []string {
	var fields []string
	var cur strings.Builder
	var depth int

	for _, r := range s {
		switch {
		case r == '[':
			depth++
			cur.WriteRune(r)
		case r == ']':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case r == ':' && depth == 0:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())

	return fields
}

// stripBrackets removes the enclosing [...] of an IPv6 literal.
func stripBrackets(s string) string {
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}

// isIPLiteral reports whether s is an IP address, possibly bracketed.
func isIPLiteral(s string) bool {
	if s == "" {
		return false
	}
	return net.ParseIP(stripBrackets(s)) != nil
}
