package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/rr-relay/internal/dns/common/log"
	"github.com/haukened/rr-relay/internal/dns/common/utils"
	"github.com/haukened/rr-relay/internal/dns/repos/hosts"
)

// ParseBlacklist parses a newline-delimited list of domain names into entries
// bound to the blacklist sentinel 0.0.0.0. It complements the hosts-file
// format for operators who maintain block lists as bare name lists.
//
// Behavior:
// - '#' starts a comment (whole-line or inline); blank lines are skipped
// - Names are canonicalized; wildcards and leading-dot tokens are skipped
// - De-duplicates by canonical name, preserving first-seen order
func ParseBlacklist(r io.Reader, source string, logger logpkg.Logger) ([]hosts.Entry, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]hosts.Entry, 0, 256)

	logger.Debug(map[string]any{"source": source}, "parse_blacklist_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimPrefix(scanner.Text(), "\ufeff")

		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}

		raw := strings.TrimSpace(line)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
			logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "blacklist_skip_invalid_token")
			continue
		}

		name := utils.CanonicalDNSName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			logger.Debug(map[string]any{"line": lineNum, "name": name}, "blacklist_skip_duplicate")
			continue
		}

		out = append(out, hosts.Entry{Name: name, Addr: hosts.Sentinel()})
		seen[name] = struct{}{}
		logger.Debug(map[string]any{"line": lineNum, "name": name}, "blacklist_emit_entry")
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_blacklist_done")
	return out, nil
}
