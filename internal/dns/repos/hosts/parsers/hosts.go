// Package parsers turns operator-authored host table files into flattened
// hosts entries consumed by the repository.
package parsers

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"strings"

	logpkg "github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/common/utils"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// ParseHostsFile parses a hosts-style file into entries.
//
// Format, one record per line:
//
//	<address> <name> [<name> ...]
//
// Rules:
// - '#' starts a comment (whole-line or inline); blank lines are skipped
// - The address must parse as IPv4 or IPv6; a bad address fails the load,
//   since the file is operator-authored and a typo should surface at startup
// - Multiple names on one line all map to that line's address
// - Names are canonicalized (lowercased, trailing dots removed); the first
//   occurrence of a name wins
// - The address 0.0.0.0 marks every name on its line as blacklisted
func ParseHostsFile(r io.Reader, source string, logger logpkg.Logger) ([]hosts.Entry, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]hosts.Entry, 0, 256)

	logger.Debug(map[string]any{"source": source}, "parse_hosts_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			logger.Debug(map[string]any{"line": lineNum}, "hosts_no_hostnames")
			continue
		}

		addr, err := netip.ParseAddr(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid address %q: %w", source, lineNum, fields[0], err)
		}
		addr = addr.Unmap()

		for _, raw := range fields[1:] {
			name := utils.CanonicalDNSName(raw)
			if name == "" || strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "hosts_skip_invalid_token")
				continue
			}
			if _, ok := seen[name]; ok {
				logger.Debug(map[string]any{"line": lineNum, "name": name}, "hosts_skip_duplicate")
				continue
			}
			out = append(out, hosts.Entry{Name: name, Addr: addr})
			seen[name] = struct{}{}
			logger.Debug(map[string]any{"line": lineNum, "name": name, "addr": addr.String()}, "hosts_emit_entry")
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_hosts_done")
	return out, nil
}
