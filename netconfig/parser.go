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
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/utils"
)

// sourceMode tells the dispatcher how strict to be: unknown prefixes are a
// hard error in a configuration file but expected noise on a kernel command
// line.
type sourceMode int

const (
	modeFile sourceMode = iota
	modeCmdline
)

// directive binds a recognized prefix to its syntactic sub-parser.
// cmdlineAlways marks the prefixes processed on the kernel command line even
// without the parse-all flag; the others are presumed to have been consumed
// by an upstream network generator already.
type directive struct {
	prefix        string
	cmdlineAlways bool
	parse         func(s *State, value string) (*Record, error)
}

var directives = []directive{
	{"ifcfg=", true, parseIfcfg},
	{"ip=", false, parseIP},
	{"nameserver=", false, parseNameserver},
	{"rd.peerdns=", false, parsePeerDNS},
	{"rd.route=", false, parseRoute},
	{"vlan=", false, parseVLAN},
}

// ParseConfigFile reads directives from a configuration file, one key=value
// per line. Blank lines and #-comments are skipped; anything else must carry
// a recognized prefix. Any error aborts the parse.
func (s *State) ParseConfigFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open config file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var line int
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if len(text) == 0 || len(strings.TrimSpace(text)) == 0 || text[0] == '#' || text[0] == '\n' {
			continue
		}
		if err := s.dispatch(text, line, modeFile, true); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", path, err)
	}
	return nil
}

// ParseCmdline parses kernel-command-line text. Tokens with an unrecognized
// prefix are ignored; a token that fails to parse is logged and skipped
// while the remaining tokens are still processed. Resource exhaustion aborts.
func (s *State) ParseCmdline(text string, parseAll bool) error {
	for i, token := range tokenizeCmdline(text) {
		if err := s.dispatch(token, i+1, modeCmdline, parseAll); err != nil {
			if errors.Is(err, unix.E2BIG) || errors.Is(err, unix.ENOMEM) {
				return err
			}
			continue
		}
	}
	return nil
}

// ParseCmdlineFile reads the kernel command line from path, usually
// /proc/cmdline, and parses it.
func (s *State) ParseCmdlineFile(path string, parseAll bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read kernel command line: %w", err)
	}
	return s.ParseCmdline(string(b), parseAll)
}

// tokenizeCmdline splits text on unquoted whitespace. A double quote toggles
// the in-quote state and is kept in the token; the directive handlers strip
// it where it matters.
func tokenizeCmdline(text string) []string {
	var tokens []string
	var cur strings.Builder
	var inQuote bool

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// dispatch routes one directive to its sub-parser and merges the result.
func (s *State) dispatch(token string, entry int, mode sourceMode, parseAll bool) error {
	for _, d := range directives {
		if !strings.HasPrefix(token, d.prefix) {
			continue
		}
		if mode == modeCmdline && !parseAll && !d.cmdlineAlways {
			logger.Debugf("%s %d: leaving %q to the upstream generator", originLabel(mode), entry, token)
			return nil
		}

		value := token[len(d.prefix):]
		if d.prefix == "ifcfg=" {
			value = unquote(value)
		}

		rec, err := d.parse(s, value)
		if err != nil {
			logger.Errorf("syntax error in %s %d (%q): %v", originLabel(mode), entry, token, err)
			return err
		}
		return s.Merge(rec, entry)
	}

	if mode == modeFile {
		logger.Errorf("syntax error in %s %d (%q): unknown directive", originLabel(mode), entry, token)
		return utils.Errnof(unix.EINVAL, "unknown directive %q", token)
	}
	return nil
}

func originLabel(mode sourceMode) string {
	if mode == modeFile {
		return "line"
	}
	return "entry"
}

// unquote strips one pair of surrounding double quotes.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}
